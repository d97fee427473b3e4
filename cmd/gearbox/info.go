package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/git"
)

func newInfoCmd(a *app) *cobra.Command {
	var changes int
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show repository metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			root, err := repoRoot()
			if err != nil {
				return err
			}
			repo := git.NewClient(root)

			commit, err := repo.Commit(ctx)
			if err != nil {
				return err
			}
			branch, err := repo.Branch(ctx)
			if err != nil {
				return err
			}
			current, err := repo.Tag(ctx, true)
			if err != nil {
				return err
			}
			latest, err := repo.Tag(ctx, false)
			if err != nil {
				return err
			}

			a.con.Table([]string{"Field", "Value"}, [][]string{
				{"Repository", root},
				{"Commit", commit},
				{"Branch", branch},
				{"Tag", orNone(current)},
				{"Latest tag", orNone(latest)},
			})

			if changes > 0 {
				files, err := repo.Changes(ctx, changes)
				if err != nil {
					return err
				}
				a.con.Print(fmt.Sprintf("\nFiles changed in the last %d commit(s):", changes))
				for _, f := range files {
					a.con.Print("  " + a.con.Accent(f))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&changes, "changes", 0, "Also list files changed in the last N commits")
	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
