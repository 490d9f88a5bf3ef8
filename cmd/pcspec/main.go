// Command pcspec manages a catalogue of PC builds: the PCs, their component
// categories and the ordered spec parameters of every component.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pcspec/internal/config"
	"pcspec/internal/core"
	"pcspec/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries global flags and the state built from them.
type app struct {
	configPath string
	storeDir   string
	driver     string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "pcspec",
		Short: "Catalogue PC builds and their component specs",
		Long: `pcspec keeps an ordered catalogue of PC builds.

Every PC holds ordered component categories (CPU, GPU, ...) and every
component holds ordered "Name: Value" spec parameters. Names are matched
case-insensitively and keep the case they were first stored with.

Each mutating command rotates two backup generations before it loads the
catalogue and saves it again after the change.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVar(&a.storeDir, "store-dir", "", "directory holding store.json")
	flags.StringVar(&a.driver, "driver", "", "storage driver: file|memory|sqlite|postgres|blob")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newPCCmd(a),
		newComponentCmd(a),
		newParamCmd(a),
		newBackupCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, func(c *config.Config) {
		if a.storeDir != "" {
			c.Storage.Dir = a.storeDir
		}
		if a.driver != "" {
			c.Storage.Driver = a.driver
		}
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger, err = newLogger(cfg.Logging, a.verbose)
	if err != nil {
		return err
	}
	a.logger.Debug("configuration loaded",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("dir", cfg.Storage.Dir))
	return nil
}

var (
	newLogger  = logging.New
	closeStore = core.CloseStore
)

// withStore opens the configured driver around fn. A failure to close the
// driver is reported when fn itself succeeded.
func (a *app) withStore(ctx context.Context, fn func(*core.Service) error) (err error) {
	ps, err := core.OpenPersistentStore(ctx, a.cfg.Storage, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(ps); cerr != nil && err == nil {
			err = cerr
		}
	}()
	svc, err := core.NewService(ps, core.WithLogger(a.logger))
	if err != nil {
		return err
	}
	return fn(svc)
}

// withService loads the catalogue (after a backup rotation when backup is
// set) and runs fn.
func (a *app) withService(ctx context.Context, backup bool, fn func(*core.Service) error) error {
	return a.withStore(ctx, func(svc *core.Service) error {
		load := svc.Reload
		if backup {
			load = svc.Open
		}
		if err := load(ctx); err != nil {
			return err
		}
		return fn(svc)
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
