package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"pcspec/internal/config"
	"pcspec/internal/core"
	"pcspec/internal/infra/persistence/file"
	"pcspec/internal/infra/persistence/generation"
	"pcspec/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Rotate the two backup generations without changing the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(svc *core.Service) error {
				if err := svc.Backup(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "backup rotated")
				return nil
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show which of the live and backup documents exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(svc *core.Service) error {
				infos, err := svc.Generations(cmd.Context())
				if err != nil {
					return err
				}
				printGenerations(cmd, infos)
				return nil
			})
		},
	})
	return cmd
}

func printGenerations(cmd *cobra.Command, infos []generation.Info) {
	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "no documents stored")
		return
	}
	for _, info := range infos {
		modified := "-"
		if !info.Modified.IsZero() {
			modified = info.Modified.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(out, "%-16s %8d bytes  %s\n", info.Name, info.Size, modified)
	}
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		debounce    time.Duration
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the PC list every time store.json changes on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Storage.Driver != string(core.StorageFile) {
				return fmt.Errorf("watch requires the file driver, got %s", a.cfg.Storage.Driver)
			}
			ctx := cmd.Context()
			fileStore, err := file.New(a.cfg.Storage.Dir, file.WithLogger(a.logger))
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := core.NewMetrics(reg)
			svc, err := core.NewService(fileStore, core.WithLogger(a.logger), core.WithMetrics(metrics))
			if err != nil {
				return err
			}
			if err := svc.Reload(ctx); err != nil {
				return err
			}
			printNames(cmd, svc.Store())

			w, err := core.NewWatcher(fileStore, func(st *domain.Store) {
				metrics.SetPCs(st.Len())
				printNames(cmd, st)
			}, debounce, a.logger)
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()
			if err := w.Start(ctx); err != nil {
				return err
			}

			if metricsAddr != "" {
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.logger.Error("metrics server", zap.Error(err))
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				a.logger.Info("serving metrics", zap.String("addr", metricsAddr))
			}

			select {
			case <-ctx.Done():
			case <-w.Done():
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", core.DefaultDebounce, "quiet period before reloading")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func printNames(cmd *cobra.Command, st *domain.Store) {
	fmt.Fprintf(cmd.OutOrStdout(), "--- %d PCs\n", st.Len())
	for _, name := range st.Names() {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write the configuration file",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			if err := a.cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd, &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}
