package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vijayrajbudala/GIS-Application/arcgis"
	"github.com/vijayrajbudala/GIS-Application/config"
	"github.com/vijayrajbudala/GIS-Application/display"
	"github.com/vijayrajbudala/GIS-Application/features"
	"github.com/vijayrajbudala/GIS-Application/handler"
	"github.com/vijayrajbudala/GIS-Application/store"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "gisapp",
		Short:         "Local service request store for an ArcGIS map",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	var outDir string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the saved points to " + features.ExportFilename,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, configPath, outDir)
		},
	}
	exportCmd.Flags().StringVar(&outDir, "out", ".", "directory to write the export into")

	optionsCmd := &cobra.Command{
		Use:   "options",
		Short: "Print the status options read from the layer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptions(cmd, configPath)
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved points",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd, configPath)
		},
	}

	root.AddCommand(serveCmd, exportCmd, optionsCmd, resetCmd)
	return root
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zc.Build()
}

func newSurface(cfg config.ServiceConfig, client *arcgis.Client) (display.Surface, error) {
	switch cfg.Surface {
	case "local", "":
		return display.NewLayer(), nil
	case "feature-service":
		u, err := arcgis.NormalizeLayerURL(cfg.EditLayerURL)
		if err != nil {
			return nil, err
		}
		return display.NewFeatureService(client, u), nil
	default:
		return nil, fmt.Errorf("unknown surface: %q", cfg.Surface)
	}
}

// app is everything one command needs, built from the loaded config.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	storage store.Store
	store   *features.LocalStore
}

// newApp builds the app. offline commands always render into an in-process
// layer so they never write to a remote feature service.
func newApp(configPath string, offline bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	s, err := store.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("create store (backend=%s): %w", cfg.Storage.Backend, err)
	}

	client := arcgis.NewClient(cfg.Service.Timeout)
	svc := cfg.Service
	if offline {
		svc.Surface = "local"
	}
	surface, err := newSurface(svc, client)
	if err != nil {
		s.Close()
		return nil, err
	}
	layerURL, err := arcgis.NormalizeLayerURL(cfg.Service.LayerURL)
	if err != nil {
		s.Close()
		return nil, err
	}

	ls := features.NewLocalStore(features.Options{
		Storage:  s,
		Surface:  surface,
		Schema:   client,
		LayerURL: layerURL,
		Logger:   log,
	})
	return &app{cfg: cfg, log: log, storage: s, store: ls}, nil
}

func (a *app) close() {
	if err := a.storage.Close(); err != nil {
		a.log.Warn("failed to close store", zap.Error(err))
	}
	_ = a.log.Sync()
}

func runServe(ctx context.Context, configPath string) error {
	a, err := newApp(configPath, false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Routes are only reachable once both startup steps are done.
	if err := a.store.Start(ctx); err != nil {
		return err
	}

	h := handler.New(a.store, a.log)
	wrapped := handler.CORS(handler.RequestLog(h, a.log), a.cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           wrapped,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("gisapp starting",
			zap.String("addr", srv.Addr),
			zap.String("store", a.cfg.Storage.Backend),
			zap.String("surface", a.cfg.Service.Surface),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runExport(cmd *cobra.Command, configPath, outDir string) error {
	a, err := newApp(configPath, true)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.Initialize(cmd.Context()); err != nil {
		return err
	}
	b, err := a.store.Export()
	if errors.Is(err, features.ErrNothingToExport) {
		fmt.Fprintln(cmd.OutOrStdout(), err.Error())
		return nil
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(outDir, features.ExportFilename)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d points to %s\n", len(a.store.Records()), path)
	return nil
}

func runOptions(cmd *cobra.Command, configPath string) error {
	a, err := newApp(configPath, true)
	if err != nil {
		return err
	}
	defer a.close()

	opts := a.store.LoadStatusOptions(cmd.Context())
	if len(opts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no status options available")
		return nil
	}
	for _, o := range opts {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", o.Value, o.Label)
	}
	return nil
}

func runReset(cmd *cobra.Command, configPath string) error {
	a, err := newApp(configPath, true)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.Initialize(cmd.Context()); err != nil {
		return err
	}
	n, err := a.store.Reset()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d saved points\n", n)
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "gisapp:", err)
		os.Exit(1)
	}
}
