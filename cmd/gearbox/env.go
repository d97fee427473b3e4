package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newEnvCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage deployment environments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List environments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			envs, err := a.envService(ws).List(cmd.Context())
			if err != nil {
				return err
			}

			a.con.Print(fmt.Sprintf("Listing %s and other environments:\n", a.con.Good("current")))
			rows := make([][]string, 0, len(envs))
			for _, e := range envs {
				name := e.Name
				if e.Current {
					name = a.con.Good(name)
				}
				rows = append(rows, []string{name, strings.Join(e.Tags, ", ")})
			}
			a.con.Table([]string{"Name", "Tags"}, rows)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "switch <name>",
		Short: "Switch the current environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			return a.envService(ws).Switch(cmd.Context(), args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "current",
		Short: "Print the current environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			name, err := a.envService(ws).Current(cmd.Context())
			if err != nil {
				return err
			}
			a.con.Print(name)
			return nil
		},
	})

	return cmd
}
