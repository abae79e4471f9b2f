// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/keywordscout/internal/metrics"
	"github.com/tomtom215/keywordscout/internal/models"
)

// ErrPublisherClosed is returned by Dispatch after Close.
var ErrPublisherClosed = errors.New("dispatch: publisher is closed")

// Publisher sends final lists to the execution layer.
type Publisher struct {
	publisher message.Publisher
	topic     string
	breaker   *gobreaker.CircuitBreaker[struct{}]
	limiter   *rate.Limiter
	logger    zerolog.Logger
	now       func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps pub with rate limiting and a circuit breaker.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPublisher(pub message.Publisher, cfg *Config, logger zerolog.Logger) *Publisher {
	limit := rate.Inf
	if cfg.PublishRate > 0 {
		limit = rate.Limit(cfg.PublishRate)
	}
	burst := cfg.PublishBurst
	if burst < 1 {
		burst = 1
	}
	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	p := &Publisher{
		publisher: pub,
		topic:     cfg.FinalListTopic,
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger.With().Str("component", "dispatch_publisher").Logger(),
		now:       time.Now,
	}
	p.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "dispatch",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), metrics.BreakerStateValue(to))
			p.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Dispatch circuit breaker changed state")
		},
	})
	return p
}

// Dispatch publishes the record's final list. The cycle id doubles as the
// message id so a redelivered list is dropped by the stream's duplicate
// window.
func (p *Publisher) Dispatch(ctx context.Context, rec *models.CycleRecord) (err error) {
	defer func() { metrics.RecordDispatch(err) }()

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for dispatch slot: %w", err)
	}

	payload, err := json.Marshal(NewFinalList(rec, p.now()))
	if err != nil {
		return fmt.Errorf("marshal final list: %w", err)
	}

	msg := message.NewMessage(rec.CycleID, payload)
	msg.Metadata.Set(natsgo.MsgIdHdr, rec.CycleID)
	msg.Metadata.Set("coverage_key", rec.CoverageKey)
	msg.Metadata.Set("source", string(rec.Source))
	msg.SetContext(ctx)

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(p.topic, msg)
	})
	if err != nil {
		return fmt.Errorf("publish final list %s: %w", rec.CycleID, err)
	}

	p.logger.Debug().Str("cycle_id", rec.CycleID).Str("coverage_key", rec.CoverageKey).
		Int("keywords", len(rec.SelectedKeywords)).Msg("Final list dispatched")
	return nil
}

// Close closes the underlying publisher. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
