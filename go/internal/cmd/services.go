package main

import (
	"context"
	"fmt"

	"github.com/mcdev12/racecycles/go/internal/config"
	"github.com/mcdev12/racecycles/go/internal/events"
	"github.com/mcdev12/racecycles/go/internal/gateway"
	"github.com/mcdev12/racecycles/go/internal/kvstore"
	"github.com/mcdev12/racecycles/go/internal/publisher"
	"github.com/mcdev12/racecycles/go/internal/race"
	"github.com/mcdev12/racecycles/go/internal/users"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Store     kvstore.Store
	Users     *users.Directory
	Races     *race.Manager
	Gateway   *gateway.ConnectionManager
	Publisher *publisher.Worker

	jetStream *publisher.JetStreamPublisher
}

func setupServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	// Wire up dependency injection chain
	// Store → Repository → Directory / Manager → Sinks

	store, err := kvstore.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	s := &Services{Store: store}

	// The gateway needs the manager for state sync and the manager needs the
	// sink, so the fan-out is assembled before either exists.
	var sinks events.Fanout
	sinks = append(sinks, events.LogSink{})

	if cfg.NATS.Enabled {
		jsCfg := publisher.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATS.URL
		jsCfg.StreamName = cfg.NATS.StreamName
		jsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix

		js, err := publisher.NewJetStreamPublisher(ctx, jsCfg)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("set up event publisher: %w", err)
		}
		pubCfg := publisher.DefaultConfig()
		pubCfg.SkipTicks = !cfg.NATS.PublishTicks

		s.jetStream = js
		s.Publisher = publisher.NewWorker(js, pubCfg)
		sinks = append(sinks, s.Publisher)
	}

	gatewaySink := &lateSink{}
	sinks = append(sinks, gatewaySink)

	s.Users = users.NewDirectory(users.NewRepository(store, cfg.Store.Key), sinks)
	if err := s.Users.Load(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("load roster: %w", err)
	}

	s.Races = race.NewManager(race.Config{
		TickInterval: cfg.Race.TickInterval,
		Rates:        race.NewUniformRate(cfg.Race.MinRate, cfg.Race.MaxRate, nil),
	}, s.Users, sinks)

	s.Gateway = gateway.NewConnectionManager(gateway.DefaultConnectionConfig(), s.Races)
	gatewaySink.sink = s.Gateway

	return s, nil
}

// Start launches the background broadcasters
func (s *Services) Start(ctx context.Context) {
	go s.Gateway.Start(ctx)
	if s.Publisher != nil {
		if err := s.Publisher.Start(ctx); err != nil {
			log.Error().Err(err).Msg("failed to start publish worker")
		}
	}
}

// Close stops ticking, flushes the publisher and releases the store
func (s *Services) Close() {
	if s.Races != nil {
		s.Races.Close()
	}
	if s.Publisher != nil {
		if err := s.Publisher.Stop(); err != nil {
			log.Warn().Err(err).Msg("publish worker stop")
		}
	}
	if s.jetStream != nil {
		if err := s.jetStream.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close JetStream publisher")
		}
	}
	if err := s.Store.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close store")
	}
}

// Ping checks the store and, when enabled, the NATS connection
func (s *Services) Ping(ctx context.Context) error {
	if err := s.Store.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if s.jetStream != nil {
		if err := s.jetStream.Ping(ctx); err != nil {
			return fmt.Errorf("events: %w", err)
		}
	}
	return nil
}

// lateSink forwards to a sink that is set once wiring completes; events
// emitted before that are dropped.
type lateSink struct {
	sink events.Sink
}

func (l *lateSink) Emit(event events.Event) {
	if l.sink != nil {
		l.sink.Emit(event)
	}
}
