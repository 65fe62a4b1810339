package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"marketpulse/config"
	"marketpulse/internal/channel"
	"marketpulse/internal/engine"
	"marketpulse/internal/feed"
	"marketpulse/internal/metrics"
	"marketpulse/internal/processor"
	"marketpulse/internal/publish"
	"marketpulse/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Service.Name,
		"version": cfg.Service.Version,
	}).Info("starting marketpulse")

	if cfg.CloudWatch.Enabled {
		logger.InitCloudWatch(cfg.CloudWatch.Region, cfg.CloudWatch.Namespace)
	}
	if cfg.Metrics.Enabled {
		metrics.Init(cfg.Metrics.Addr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feedCtx, feedCancel := context.WithCancel(ctx)
	defer feedCancel()

	channels := channel.NewChannels(
		cfg.Channels.TradeBuffer,
		cfg.Channels.BookBuffer,
		cfg.Channels.BarBuffer,
		cfg.Channels.MetricsBuffer,
	)

	if cfg.Metrics.Enabled {
		metrics.StartChannelSizeMetrics(ctx, channels, time.Duration(cfg.Metrics.ChannelReportIntervalMs)*time.Millisecond)
	}

	registry := engine.NewRegistry(engine.Options{
		DepthLevels:     cfg.Engines.Liquidity.DepthLevels,
		HeatmapBucketMS: cfg.Engines.Heatmap.BucketMs,
		HeatmapTickSize: cfg.Engines.Heatmap.TickSize,
	})

	proc := processor.NewProcessor(registry, channels, cfg.Processor.MaxWorkers)
	if err := proc.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start processor")
		os.Exit(1)
	}

	var publisher publish.Publisher
	if cfg.Publisher.Kafka.Enabled {
		publisher, err = publish.NewKafkaPublisher(cfg.Publisher.Kafka, channels.Metrics)
		if err != nil {
			log.WithError(err).Error("failed to create kafka publisher")
			os.Exit(1)
		}
	} else {
		log.WithComponent("main").Info("kafka disabled; logging metrics messages")
		publisher = publish.NewLogPublisher(channels.Metrics)
	}
	if err := publisher.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start publisher")
		os.Exit(1)
	}

	var marketFeed *feed.Feed
	if cfg.Feed.Enabled {
		marketFeed = feed.NewFeed(cfg.Feed, channels)
		if err := marketFeed.Start(feedCtx); err != nil {
			log.WithError(err).Error("failed to start feed")
			os.Exit(1)
		}
	} else {
		log.WithComponent("main").Warn("feed disabled; no events will arrive")
	}

	log.Info("all components started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	log.Info("starting graceful shutdown")

	done := make(chan struct{})
	go func() {
		// stop the intake first, then let each downstream stage drain
		feedCancel()
		if marketFeed != nil {
			marketFeed.Stop()
		}
		channels.CloseInputs()
		proc.Stop()
		channels.CloseMetrics()
		publisher.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	cancel()
	log.Info("marketpulse stopped")
}
