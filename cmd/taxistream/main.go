package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/rydersim/taxistream/internal/auth"
	"github.com/rydersim/taxistream/internal/config"
	"github.com/rydersim/taxistream/internal/dispatch"
	"github.com/rydersim/taxistream/internal/sim"
	"github.com/rydersim/taxistream/internal/sink"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snk, err := buildSink(ctx, cfg)
	if err != nil {
		log.WithError(err).WithField("sink", cfg.Sink.Kind).Fatal("failed to connect sink")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := snk.Close(closeCtx); err != nil {
			log.WithError(err).Warn("sink close failed")
		}
	}()

	logger := log.WithField("component", "taxistream")
	disp := dispatch.New(snk, dispatch.Options{
		Tick:        cfg.Tick(),
		ReportEvery: cfg.ReportInterval(),
		FailPause:   time.Second,
		CallTimeout: 30 * time.Second,
	}, logger)

	scheduler := sim.NewScheduler(sim.SchedulerConfig{
		FleetSize: cfg.FleetSize,
		Params: sim.Params{
			CenterLat:       cfg.CenterLat,
			CenterLon:       cfg.CenterLon,
			MaxRadiusKm:     cfg.MaxRadiusKm,
			TripMin:         time.Duration(cfg.TripMinSeconds) * time.Second,
			TripMax:         time.Duration(cfg.TripMaxSeconds) * time.Second,
			StartProb:       cfg.TripStartProbability,
			MoveProb:        cfg.MoveProbability,
			Heartbeat:       time.Duration(cfg.HeartbeatSeconds) * time.Second,
			Cooldown:        time.Duration(cfg.CooldownSeconds) * time.Second,
			BaseFare:        2.50,
			BucketPrecision: cfg.BucketPrecision,
		},
		Tick:         cfg.Tick(),
		RequestEvery: cfg.RequestCadence(),
		ErrorBackoff: cfg.ErrorBackoff(),
		SupplyStream: cfg.SupplyStream,
		DemandStream: cfg.DemandStream,
		Seed:         cfg.Seed,
	}, disp, logger)

	if err := scheduler.Run(ctx); err != nil {
		log.WithError(err).Fatal("simulation failed")
	}
	log.Info("simulation stopped")
}

// buildSink constructs the configured sink kind. For the HTTP sink a bearer
// token is minted when a shared secret is configured.
func buildSink(ctx context.Context, cfg *config.Config) (sink.Sink, error) {
	switch cfg.Sink.Kind {
	case config.SinkMongo:
		return sink.NewMongoSink(ctx, cfg.Sink.MongoURI, cfg.Sink.MongoDatabase)
	case config.SinkMQTT:
		return sink.NewMQTTSink(cfg.Sink.MQTTBroker, cfg.Sink.MQTTClientID)
	case config.SinkRedis:
		return sink.NewRedisSink(ctx, cfg.Sink.RedisAddr, cfg.Sink.RedisPassword, cfg.Sink.RedisDB)
	case config.SinkHTTP:
		token := ""
		if cfg.Sink.HTTPTokenSecret != "" {
			svc, err := auth.NewService(cfg.Sink.HTTPTokenSecret, 24*time.Hour)
			if err != nil {
				return nil, err
			}
			token, err = svc.MintToken("taxistream")
			if err != nil {
				return nil, fmt.Errorf("failed to mint sink token: %w", err)
			}
		}
		return sink.NewHTTPSink(cfg.Sink.HTTPBaseURL, token), nil
	default:
		return nil, fmt.Errorf("unknown sink kind %q", cfg.Sink.Kind)
	}
}
