// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/keywordscout/internal/api"
	"github.com/tomtom215/keywordscout/internal/dispatch"
	"github.com/tomtom215/keywordscout/internal/logging"
	"github.com/tomtom215/keywordscout/internal/supervisor/services"
)

// messaging holds the NATS side of the process: an optional embedded
// server, the final-list publisher and what the outcome consumer needs.
type messaging struct {
	cfg       *dispatch.Config
	url       string
	server    *dispatch.EmbeddedServer
	rawPub    message.Publisher
	publisher *dispatch.Publisher
	wmLogger  watermill.LoggerAdapter
}

// initMessaging starts the embedded server when configured, provisions the
// stream and connects the publisher.
func initMessaging(ctx context.Context, cfg *dispatch.Config) (*messaging, error) {
	m := &messaging{
		cfg:      cfg,
		url:      cfg.URL,
		wmLogger: dispatch.NewWatermillLogger(logging.WithComponent("watermill")),
	}

	if cfg.Embedded {
		srv, err := dispatch.NewEmbeddedServer(&cfg.Server)
		if err != nil {
			return nil, fmt.Errorf("start embedded nats: %w", err)
		}
		m.server = srv
		m.url = srv.ClientURL()
		logging.Info().Str("url", m.url).Msg("Embedded NATS server started")
	}

	provisionCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := dispatch.EnsureStream(provisionCtx, m.url, &cfg.Stream); err != nil {
		m.shutdownServer(5 * time.Second)
		return nil, fmt.Errorf("provision stream: %w", err)
	}

	pub, err := dispatch.NewNATSPublisher(cfg, m.url, m.wmLogger)
	if err != nil {
		m.shutdownServer(5 * time.Second)
		return nil, err
	}
	m.rawPub = pub
	m.publisher = dispatch.NewPublisher(pub, cfg, logging.WithComponent("dispatch"))

	logging.Info().
		Str("stream", cfg.Stream.Name).
		Str("final_list_topic", cfg.FinalListTopic).
		Str("outcome_topic", cfg.OutcomeTopic).
		Str("occurrence_topic", cfg.OccurrenceTopic).
		Msg("Dispatch publisher connected")
	return m, nil
}

// outcomeConsumerFactory builds a fresh subscriber and router per start;
// a watermill router cannot be run twice. Poisoned reports are published
// through the final-list publisher's connection. Unmet occurrences get their
// own subscriber so the two handlers never share a durable consumer.
func (m *messaging) outcomeConsumerFactory(reporter dispatch.OutcomeReporter, recorder dispatch.OccurrenceRecorder) services.OutcomeConsumerFactory {
	return func() (services.OutcomeConsumer, error) {
		sub, err := dispatch.NewNATSSubscriber(m.cfg, m.url, m.wmLogger)
		if err != nil {
			return nil, err
		}
		consumer := &outcomeConsumer{subs: []message.Subscriber{sub}}

		router, err := dispatch.NewOutcomeRouter(m.cfg, sub, m.rawPub, reporter, m.wmLogger,
			logging.WithComponent("outcome"))
		if err != nil {
			//nolint:errcheck // already failing
			consumer.closeSubs()
			return nil, err
		}
		consumer.router = router

		if m.cfg.OccurrenceTopic != "" && recorder != nil {
			occCfg := *m.cfg
			occCfg.DurableName += "-occurrences"
			occSub, err := dispatch.NewNATSSubscriber(&occCfg, m.url, m.wmLogger)
			if err != nil {
				//nolint:errcheck // already failing
				consumer.Close()
				return nil, err
			}
			consumer.subs = append(consumer.subs, occSub)
			if err := router.AddOccurrenceHandler(m.cfg.OccurrenceTopic, occSub, recorder); err != nil {
				//nolint:errcheck // already failing
				consumer.Close()
				return nil, err
			}
		}
		return consumer, nil
	}
}

// readinessChecks reports the embedded server, if any.
func (m *messaging) readinessChecks() []api.ReadinessCheck {
	if m.server == nil {
		return nil
	}
	return []api.ReadinessCheck{{
		Name: "nats",
		Check: func(context.Context) error {
			if !m.server.Running() {
				return errors.New("embedded nats server is not running")
			}
			return nil
		},
	}}
}

func (m *messaging) close(timeout time.Duration) {
	if m.publisher != nil {
		if err := m.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing dispatch publisher")
		}
	}
	m.shutdownServer(timeout)
}

func (m *messaging) shutdownServer(timeout time.Duration) {
	if m.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := m.server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
	}
}

// outcomeConsumer closes its subscribers together with the router.
type outcomeConsumer struct {
	router *dispatch.OutcomeRouter
	subs   []message.Subscriber
}

func (c *outcomeConsumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

func (c *outcomeConsumer) Close() error {
	var err error
	if c.router != nil {
		err = c.router.Close()
	}
	return errors.Join(err, c.closeSubs())
}

func (c *outcomeConsumer) closeSubs() error {
	errs := make([]error, 0, len(c.subs))
	for _, sub := range c.subs {
		errs = append(errs, sub.Close())
	}
	return errors.Join(errs...)
}
