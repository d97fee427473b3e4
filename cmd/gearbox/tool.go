package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/service"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/transaction"
)

func newToolCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Manage catalog tools",
	}

	cmd.AddCommand(newToolListCmd(a))
	cmd.AddCommand(newToolBatchCmd(a, "install", "Install available tools", (*service.ToolService).Install))
	cmd.AddCommand(newToolBatchCmd(a, "remove", "Remove installed tools", (*service.ToolService).Remove))
	cmd.AddCommand(newToolEnsureCmd(a))
	cmd.AddCommand(newToolRunCmd(a))

	return cmd
}

func newToolListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tools and whether they are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.toolService(ws).List(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(res.Tools, "", "  ")
				if err != nil {
					return fmt.Errorf("encode json: %w", err)
				}
				a.con.Print(string(data))
				for _, txn := range res.Interrupted {
					a.logger.Warn("interrupted batch", "id", txn.ID, "operation", txn.Operation, "started", txn.Timestamp)
				}
				return nil
			}

			a.con.Print(fmt.Sprintf("Listing %s and %s tools:\n", a.con.Good("installed"), a.con.Bad("not installed")))
			rows := make([][]string, 0, len(res.Tools))
			for _, t := range res.Tools {
				version := t.Version
				if version == "" {
					version = "*"
				}
				if t.Installed {
					version = a.con.Good(version)
				} else {
					version = a.con.Bad(version)
				}
				rows = append(rows, []string{t.Name, version, strings.Join(t.Tags, ", ")})
			}
			a.con.Table([]string{"Name", "Version", "Tags"}, rows)

			for _, txn := range res.Interrupted {
				a.con.Warn(interruptedMessage(txn))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output machine-readable JSON")
	return cmd
}

func interruptedMessage(txn *transaction.BatchTxn) string {
	var names []string
	for _, t := range txn.Unfinished() {
		names = append(names, t.Name)
	}
	msg := fmt.Sprintf("Interrupted %s batch from %s", txn.Operation, txn.Timestamp.Local().Format("2006-01-02 15:04:05"))
	if len(names) > 0 {
		msg += ", unfinished: " + strings.Join(names, ", ")
	}
	return msg
}

type batchFunc func(*service.ToolService, context.Context, service.BatchRequest) (*service.BatchResult, error)

func newToolBatchCmd(a *app, use, short string, fn batchFunc) *cobra.Command {
	var req service.BatchRequest
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fn(a.toolService(ws), cmd.Context(), req)
			return err
		},
	}
	cmd.Flags().StringVar(&req.Include, "include", "", "Tags, globs or tool names to "+use+". Example: ops,golang-migrate,*")
	cmd.Flags().StringVar(&req.Exclude, "exclude", "", "Tags, globs or tool names to leave out. Example: golangci-lint,ci,dev*")
	cmd.Flags().BoolVarP(&req.Yes, "yes", "y", false, "Automatically say yes to all prompts")
	_ = cmd.MarkFlagRequired("include")
	return cmd
}

func newToolEnsureCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure <selector>",
		Short: "Install the selected tools without prompting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			_, err = a.toolService(ws).Ensure(cmd.Context(), args[0])
			return err
		},
	}
}

func newToolRunCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "run <name> [-- args...]",
		Short: "Run a tool, installing it first if needed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			toolArgs := args[1:]
			if len(toolArgs) > 0 && toolArgs[0] == "--" {
				toolArgs = toolArgs[1:]
			}
			code, err := a.toolService(ws).Run(cmd.Context(), args[0], toolArgs, yes)
			if err != nil {
				return err
			}
			a.code = code
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Automatically say yes to all prompts")
	// Everything after the tool name belongs to the tool.
	cmd.Flags().SetInterspersed(false)
	return cmd
}
