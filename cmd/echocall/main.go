package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/freedesktop/telepathy-phoenix/internal/adapters/engine"
	router "github.com/freedesktop/telepathy-phoenix/internal/adapters/http"
	"github.com/freedesktop/telepathy-phoenix/internal/adapters/rtc"
	sig "github.com/freedesktop/telepathy-phoenix/internal/adapters/signal"
	"github.com/freedesktop/telepathy-phoenix/internal/adapters/status"
	"github.com/freedesktop/telepathy-phoenix/internal/app"
	"github.com/freedesktop/telepathy-phoenix/internal/app/loop"
	"github.com/freedesktop/telepathy-phoenix/internal/app/orch"
	"github.com/freedesktop/telepathy-phoenix/internal/config"
	"github.com/freedesktop/telepathy-phoenix/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.ApplyLogLevel(cfg.LogLevel)

	api, err := rtc.NewAPI()
	if err != nil {
		log.Fatal().Err(err).Msg("webrtc api")
	}

	ctl := loop.New()
	loopCtx, stopLoop := context.WithCancel(context.Background())
	var wg conc.WaitGroup
	wg.Go(func() {
		if err := ctl.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("controller loop")
		}
	})

	eng := engine.New(ctl)
	exporter := status.NewExporter()
	m := metrics.New()

	o := &orch.Orchestrator{
		Registry:  app.NewRegistry(),
		Engine:    eng,
		Policy:    app.DefaultWiringPolicy{},
		Notifiers: defaultProperties(cfg.ElementProperties),
		Status:    exporter,
		Metrics:   m,
	}

	limiter := sig.NewCallRateLimiter(cfg.CallRateLimit, cfg.CallRateInterval)
	signalCtl := &sig.SignalWSController{
		Handler:    o,
		Dispatcher: ctl,
		Calls: rtc.Config{
			API:        api,
			WebRTC:     rtc.DefaultWebRTCConfig(cfg.ICEServers),
			Engine:     eng,
			Dispatcher: ctl,
		},
		Limiter:    limiter,
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	}
	if cfg.CallRateInterval > 0 {
		wg.Go(func() { pruneLoop(ctx, limiter, cfg.CallRateInterval) })
	}

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Signal:  signalCtl,
		Status:  exporter,
		Metrics: m,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("echocall server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := drain(shutdownCtx, ctl, o); err != nil {
		log.Warn().Err(err).Msg("calls still open at exit")
	}
	stopLoop()
	wg.Wait()
	log.Info().Msg("Server exited gracefully")
}

// drain closes every call and waits for their sessions to go away.
func drain(ctx context.Context, ctl *loop.Loop, o *orch.Orchestrator) error {
	if err := ctl.Do(ctx, o.CloseAll); err != nil {
		return err
	}
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		left := 0
		if err := ctl.Do(ctx, func() { left = o.Registry.Len() }); err != nil {
			return err
		}
		if left == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%d sessions: %w", left, ctx.Err())
		case <-ticker.C:
		}
	}
}

func pruneLoop(ctx context.Context, limiter *sig.CallRateLimiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune()
		}
	}
}

func defaultProperties(in map[string]map[string]map[string]any) engine.DefaultProperties {
	out := make(engine.DefaultProperties, len(in))
	for conf, elements := range in {
		out[conf] = engine.ElementDefaults(elements)
	}
	return out
}
