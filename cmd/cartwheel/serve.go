package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cartwheel-app/cartwheel/internal/api"
	"github.com/cartwheel-app/cartwheel/internal/certs"
	"github.com/cartwheel-app/cartwheel/internal/config"
	"github.com/cartwheel-app/cartwheel/internal/engine"
	"github.com/cartwheel-app/cartwheel/internal/insights"
	"github.com/cartwheel-app/cartwheel/internal/storage"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API that mobile clients talk to. Exposes purchase
recording, predictions, product management, receipt parsing, suggestions
and share links, plus Prometheus metrics on /metrics.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("digest-cron", "", "cron expression for the prediction digest (empty disables it)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed local certificate")
	cmd.Flags().StringSlice("tls-host", nil, "extra hostname or IP the certificate must cover (repeatable)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.digest_cron", cmd.Flags().Lookup("digest-cron"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))
	_ = viper.BindPFlag("server.tls_hosts", cmd.Flags().Lookup("tls-host"))

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	generator, err := initGenerator()
	if err != nil {
		return err
	}
	if generator == nil {
		slog.Warn("no generator configured, receipt parsing will use heuristics only")
	}

	tracker := insights.NewTracker(store)
	miner := insights.NewMiner(store)
	predictor := insights.NewPredictor(store)
	recorder := engine.NewRecorder(tracker, miner)
	processor := engine.NewProcessor(generator)
	suggester := engine.NewSuggester(store, generator)
	shares := storage.NewShareStore(store)

	metrics := api.NewMetrics()
	server := api.NewServer(store, shares, recorder, predictor, miner, processor, suggester, metrics)

	addr := viper.GetString("server.addr")
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	useTLS := viper.GetBool("server.tls")
	if useTLS {
		provider := certs.NewProvider(
			config.CertsDir(),
			viper.GetStringSlice("server.tls_hosts")...,
		)
		cert, err := provider.Certificate()
		if err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		httpServer.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	scheduler, err := startDigest(ctx, predictor, shares)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr, "tls", useTLS)
		if useTLS {
			errCh <- httpServer.ListenAndServeTLS("", "")
			return
		}
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		if scheduler != nil {
			scheduler.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	}

	return nil
}

// startDigest schedules the periodic maintenance job: log a prediction digest
// and purge expired share links. Returns nil when no schedule is configured.
func startDigest(ctx context.Context, predictor *insights.Predictor, shares *storage.ShareStore) (*cron.Cron, error) {
	expr := viper.GetString("server.digest_cron")
	if expr == "" {
		return nil, nil
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(expr, func() {
		jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		predictions, err := predictor.PredictNeeded(jobCtx, 0, 0.5)
		if err != nil {
			slog.Error("digest prediction failed", "error", err)
			return
		}
		for _, p := range predictions {
			slog.Info("digest: likely needed soon",
				"product", p.Product.Name,
				"confidence", fmt.Sprintf("%.2f", p.Confidence),
				"days_since", fmt.Sprintf("%.1f", p.DaysSincePurchase))
		}

		purged, err := shares.PurgeExpired(jobCtx, time.Now().UTC())
		if err != nil {
			slog.Error("share purge failed", "error", err)
			return
		}
		if purged > 0 {
			slog.Info("purged expired share links", "count", purged)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid digest cron expression %q: %w", expr, err)
	}

	scheduler.Start()
	slog.Info("digest scheduled", "cron", expr)
	return scheduler, nil
}
