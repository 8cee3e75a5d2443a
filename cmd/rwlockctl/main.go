// Command rwlockctl creates, inspects and holds reader/writer locks that live
// in a file mapped by several processes.
//
//	rwlockctl init /dev/shm/app.lock
//	rwlockctl hold /dev/shm/app.lock --mode write --for 10s
//	rwlockctl stat /dev/shm/app.lock
//	rwlockctl destroy /dev/shm/app.lock
//
// A process that dies while holding the lock leaves it held.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type app struct {
	configPath string
	cfg        Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "rwlockctl",
		Short:         "Manage process-shared reader/writer locks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file")
	flags.String("name", "", "lock name used in logs and metrics")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address while holding")

	root.AddCommand(
		newInitCmd(a),
		newStatCmd(a),
		newHoldCmd(a),
		newDestroyCmd(a),
	)
	return root
}

// setup loads the config file and applies the flags that were set.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	override(flags, "name", &cfg.Name)
	override(flags, "log-level", &cfg.LogLevel)
	override(flags, "metrics-addr", &cfg.MetricsAddr)
	a.cfg = cfg

	a.logger, err = newLogger(cfg.LogLevel)
	return err
}

// override copies flag name into dst when it was given on the command line.
func override(flags *pflag.FlagSet, name string, dst *string) {
	if !flags.Changed(name) {
		return
	}
	if v, err := flags.GetString(name); err == nil {
		*dst = v
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "rwlockctl:", err)
		os.Exit(1)
	}
}
