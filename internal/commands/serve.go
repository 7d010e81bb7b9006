package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valuagent/valuagent/internal/gitops"
	"github.com/valuagent/valuagent/internal/metrics"
	"github.com/valuagent/valuagent/internal/runlog"
	"github.com/valuagent/valuagent/internal/server"
)

func newServeCommand() *cobra.Command {
	var configPath string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validation API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				env.cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), env)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func runServe(ctx context.Context, env *environment) error {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	metrics.Init(nil)

	opts := server.Options{
		Tolerance: env.cfg.Validation.Tolerance,
		Columns:   env.cfg.RuleColumns(),
	}
	if env.cfg.History.Enabled {
		opts.History = runlog.NewRecorder(env.historyDir())
	}
	srv, err := server.New(env.set, logger, opts)
	if err != nil {
		return err
	}

	if dir := env.catalogDir(); dir != "" {
		version := gitops.Version(dir)
		if version == "" {
			version = "unversioned"
		}
		logger.Printf("catalog %s (%s)", dir, version)
	} else {
		logger.Printf("catalog: built-in defaults")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              env.cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("http listening on %s", env.cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Printf("http server stopped")
	return nil
}
