package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldops/territory-cli/internal/activity"
	"github.com/fieldops/territory-cli/internal/ingest"
	"github.com/fieldops/territory-cli/internal/server"
	"github.com/fieldops/territory-cli/internal/voc"
)

var (
	serveArchivePath string
	serveSheetPath   string
	servePort        int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Ingest and serve the dataset over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cache := ingest.NewCache()
		result, err := cache.Run(ctx, ingest.New(cfg), serveArchivePath, serveSheetPath)
		if err != nil {
			return eris.Wrap(err, failureMessage(err))
		}
		logSummary(result)

		store, err := activity.Open(ctx, cfg.Activity)
		if err != nil {
			return eris.Wrap(err, "open activity store")
		}
		defer store.Close() //nolint:errcheck

		if cfg.Activity.RetentionDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -cfg.Activity.RetentionDays)
			purged, err := store.Purge(ctx, cutoff)
			if err != nil {
				zap.L().Warn("activity retention purge failed", zap.Error(err))
			} else if purged > 0 {
				zap.L().Info("activity retention purge", zap.Int64("purged", purged))
			}
		}

		vocStore, err := voc.Open(ctx, cfg.VOC)
		if err != nil {
			return eris.Wrap(err, "open voc store")
		}
		defer vocStore.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           server.New(result, store, vocStore, cfg).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("http server listening", zap.Int("port", port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return eris.Wrap(err, "shutdown server")
			}
			zap.L().Info("server stopped")
			return nil
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return eris.Wrap(err, "serve http")
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveArchivePath, "archive", "", "path to the registry zip archive (required)")
	serveCmd.Flags().StringVar(&serveSheetPath, "sheet", "", "path to the territory assignment xlsx (required)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	_ = serveCmd.MarkFlagRequired("archive")
	_ = serveCmd.MarkFlagRequired("sheet")
	rootCmd.AddCommand(serveCmd)
}
