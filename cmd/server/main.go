package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/compose"
	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/devices"
	"github.com/Nixie-Tech-LLC/marquee/internal/history"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api/endpoints"
	"github.com/Nixie-Tech-LLC/marquee/internal/playback"
	"github.com/Nixie-Tech-LLC/marquee/internal/raster"
	"github.com/Nixie-Tech-LLC/marquee/internal/redis"
	"github.com/Nixie-Tech-LLC/marquee/internal/slots"
	"github.com/Nixie-Tech-LLC/marquee/internal/transport"
)

func main() {
	cfg := LoadEnvironment()
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		registry devices.Registry
		hist     compose.History
		sinks    compose.Sinks
		events   endpoints.EventSource
	)

	// PostgreSQL is optional; without it history and devices live in memory.
	if cfg.DatabaseURL != "" {
		conn, err := db.Init(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("db init")
		}
		defer conn.Close()

		if err := db.RunMigrations(ctx, conn, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("db migrate")
		}
		pg := history.NewPostgres(conn)
		hist = pg
		sinks = append(sinks, pg)
		registry = devices.NewPostgres(conn)
	} else {
		mem := history.NewMemory()
		hist = mem
		sinks = append(sinks, mem)
		registry = devices.NewStatic()
		log.Warn().Msg("DATABASE_URL not set, history is kept in memory")
	}

	if cfg.RedisAddress != "" {
		rdb, err := redis.NewClient(ctx, cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("redis init")
		}
		defer rdb.Close()

		registry = devices.NewCached(registry, redis.NewKV(rdb), cfg.DeviceCacheTTL)
		pub := redis.NewPublisher(rdb)
		sinks = append(sinks, pub)
		events = pub
	}

	var deliver compose.Transport
	if cfg.MQTTBrokerURL != "" {
		mq, err := transport.DialMQTT(transport.MQTTConfig{
			BrokerURL:   cfg.MQTTBrokerURL,
			ClientID:    cfg.MQTTClientID,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			TopicPrefix: cfg.MQTTTopicPrefix,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt init")
		}
		defer mq.Close()
		deliver = mq
	} else {
		log.Warn().Msg("MQTT_BROKER_URL not set, using loopback transport")
		deliver = transport.NewLoopback()
	}

	rz, err := raster.New()
	if err != nil {
		log.Fatal().Err(err).Msg("rasterizer init")
	}
	mode, err := compose.ParseCommitMode(cfg.CommitMode)
	if err != nil {
		log.Fatal().Err(err).Msg("commit mode")
	}

	board := playback.NewBoard(nil)
	defer board.StopAll()

	composer, err := compose.New(compose.Options{
		Registry:          slots.NewRegistry(),
		Rasterizer:        rz,
		Directory:         registry,
		History:           hist,
		Transport:         deliver,
		Events:            sinks,
		Board:             board,
		Artifacts:         InitStorage(cfg),
		Mode:              mode,
		MaxContentLength:  cfg.MaxContentLength,
		DefaultResolution: defaultResolution(cfg),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("composer init")
	}
	if _, err := composer.Restore(ctx); err != nil {
		log.Fatal().Err(err).Msg("restore slot occupancy")
	}

	go runExpirySweeper(ctx, composer, cfg.ExpirySweepInterval)

	// set up gin router
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, cfg, composer, registry, events)

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}
	go func() {
		log.Info().Str("address", cfg.ServerAddress).Str("commit_mode", string(mode)).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
