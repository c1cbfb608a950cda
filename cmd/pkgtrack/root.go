package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/pkgtrack/internal/lifecycle"
	"github.com/mesh-intelligence/pkgtrack/internal/paths"
	"github.com/mesh-intelligence/pkgtrack/pkg/sqlite"
	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

// app holds global flag values and state shared by subcommands.
type app struct {
	configDir string
	dataDir   string
	jsonOut   bool
	verbose   bool

	cfg *viper.Viper
	log *logrus.Logger
	out io.Writer
}

// newRootCmd builds the command tree. Each call returns independent state
// so tests can run commands side by side.
func newRootCmd() *cobra.Command {
	a := &app{log: logrus.New()}

	root := &cobra.Command{
		Use:           "pkgtrack",
		Short:         "Track shipped package manifests",
		Long:          "pkgtrack scans component trees, diffs them against earlier packages\nand records the resulting manifests with their lifecycle history.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			a.log.SetOutput(cmd.ErrOrStderr())

			configDir, err := paths.ResolveConfigDir(a.configDir)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(configDir)
			if err != nil {
				return err
			}
			a.cfg = cfg

			level, err := logrus.ParseLevel(cfg.GetString(cfgKeyLogLevel))
			if err != nil {
				return usagef("config %s: %v", cfgKeyLogLevel, err)
			}
			if a.verbose {
				level = logrus.DebugLevel
			}
			a.log.SetLevel(level)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/pkgtrack)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/pkgtrack)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "output as JSON")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newPackageCmd(a))
	root.AddCommand(newEventCmd(a))

	return root
}

// openStore resolves the data directory and attaches the configured store.
// The caller must Detach it.
func (a *app) openStore() (types.Store, error) {
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend: a.cfg.GetString(cfgKeyBackend),
		DataDir: dataDir,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	store := sqlite.NewBackend()
	if err := store.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach store: %w", err)
	}
	a.log.WithField("data_dir", dataDir).Debug("store attached")
	return store, nil
}

// withManager opens the store, builds a lifecycle manager and runs fn.
func (a *app) withManager(fn func(*lifecycle.Manager) error) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Detach()

	m, err := lifecycle.New(store,
		lifecycle.WithLogger(a.log),
		lifecycle.WithActor(a.actor()),
	)
	if err != nil {
		return err
	}
	return fn(m)
}

func (a *app) actor() string {
	if actor := a.cfg.GetString(cfgKeyActor); actor != "" {
		return actor
	}
	return lifecycle.DefaultActor
}
