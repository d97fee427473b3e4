package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gearbox",
		Short:         "Declarative tool and environment registry",
		Long:          "gearbox installs, removes and runs the tools declared in a repository catalog and tracks the current deployment environment.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.flags.catalog, "catalog", "", "Path to the catalog file (env "+envCatalog+")")
	flags.StringVar(&a.flags.cacheDir, "cache-dir", "", "Cache directory for tools and state (env "+envCacheDir+")")
	flags.IntVar(&a.flags.workers, "workers", 0, "Concurrent per-tool workers (env "+envWorkers+")")
	flags.DurationVar(&a.flags.probeTimeout, "probe-timeout", 0, "Timeout of each presence probe (env "+envProbeTimeout+")")
	flags.BoolVar(&a.flags.debug, "debug", false, "Enable debug logging (env "+envDebug+")")

	cmd.AddCommand(newToolCmd(a))
	cmd.AddCommand(newEnvCmd(a))
	cmd.AddCommand(newInfoCmd(a))
	cmd.AddCommand(newVersionCmd(a))

	return cmd
}
