package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the gearbox version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.con.Print(fmt.Sprintf("gearbox %s (%s, %s/%s)", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH))
			return nil
		},
	}
}
