// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/keywordscout/internal/models"
)

// ErrReportMismatch marks an outcome for a term the coverage area's latest
// cycle did not select. Such reports are acknowledged and dropped.
var ErrReportMismatch = errors.New("execution report does not match latest cycle")

// ErrRejectedOccurrence marks an occurrence the recorder will never accept,
// such as one without a user. Such occurrences are acknowledged and dropped
// without retries.
var ErrRejectedOccurrence = errors.New("occurrence rejected")

// OutcomeReporter applies one outcome report.
type OutcomeReporter interface {
	ReportOutcome(ctx context.Context, normalizedTerm, coverageKey string, outcome models.Outcome) error
}

// OccurrenceRecorder records unmet demand.
//
// Satisfied by *unmet.Tracker.
type OccurrenceRecorder interface {
	RecordOccurrence(ctx context.Context, term string, reason models.UnmetReason, coverageKey, userID string, linkedEntityID *string) error
}

// OutcomeRouter consumes outcome reports from the execution layer and,
// when configured, unmet occurrences from the search layer.
type OutcomeRouter struct {
	router   *message.Router
	reporter OutcomeReporter
	logger   zerolog.Logger
}

const (
	outcomeHandlerName    = "outcome-reports"
	occurrenceHandlerName = "unmet-occurrences"
)

// NewOutcomeRouter builds a router that feeds reports from sub into
// reporter. Messages that still fail after retries go to the poison topic
// when poison is non-nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewOutcomeRouter(
	cfg *Config,
	sub message.Subscriber,
	poison message.Publisher,
	reporter OutcomeReporter,
	wmLogger watermill.LoggerAdapter,
	logger zerolog.Logger,
) (*OutcomeRouter, error) {
	if sub == nil || reporter == nil {
		return nil, errors.New("dispatch: subscriber and reporter are required")
	}
	if wmLogger == nil {
		wmLogger = NewWatermillLogger(logger)
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create outcome router: %w", err)
	}

	// Outermost first: poison queue, retry, panic recovery.
	if poison != nil && cfg.PoisonTopic != "" {
		pq, err := middleware.PoisonQueue(poison, cfg.PoisonTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		router.AddMiddleware(pq)
	}
	router.AddMiddleware(
		middleware.Retry{
			MaxRetries:      cfg.RetryMaxRetries,
			InitialInterval: cfg.RetryInitialInterval,
			MaxInterval:     cfg.RetryMaxInterval,
			Multiplier:      cfg.RetryMultiplier,
			Logger:          wmLogger,
		}.Middleware,
		middleware.Recoverer,
	)

	r := &OutcomeRouter{
		router:   router,
		reporter: reporter,
		logger:   logger.With().Str("component", "outcome_router").Logger(),
	}
	router.AddConsumerHandler(outcomeHandlerName, cfg.OutcomeTopic, sub, r.handle)
	return r, nil
}

func (r *OutcomeRouter) handle(msg *message.Message) error {
	report, err := DecodeOutcomeReport(msg.Payload)
	if err != nil {
		r.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Rejecting outcome report")
		return err
	}

	err = r.reporter.ReportOutcome(msg.Context(), report.NormalizedTerm, report.CoverageKey, report.Outcome)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrReportMismatch):
		r.logger.Info().Str("term", report.NormalizedTerm).Str("coverage_key", report.CoverageKey).
			Str("outcome", string(report.Outcome)).Msg("Ignoring outcome for term outside latest cycle")
		return nil
	default:
		return fmt.Errorf("apply outcome for %q in %s: %w", report.NormalizedTerm, report.CoverageKey, err)
	}
}

// AddOccurrenceHandler also feeds occurrences published on topic into
// recorder. It shares the router's poison queue and retry policy and must be
// called before Run. Errors wrapping ErrRejectedOccurrence are acknowledged.
func (r *OutcomeRouter) AddOccurrenceHandler(topic string, sub message.Subscriber, recorder OccurrenceRecorder) error {
	if topic == "" || sub == nil || recorder == nil {
		return errors.New("dispatch: occurrence topic, subscriber and recorder are required")
	}

	r.router.AddConsumerHandler(occurrenceHandlerName, topic, sub, func(msg *message.Message) error {
		occ, err := DecodeOccurrenceReport(msg.Payload)
		if err != nil {
			r.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Rejecting occurrence report")
			return err
		}
		err = recorder.RecordOccurrence(msg.Context(), occ.Term, occ.Reason, occ.CoverageKey, occ.UserID, occ.LinkedEntityID)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrRejectedOccurrence):
			r.logger.Info().Err(err).Str("message_uuid", msg.UUID).Str("coverage_key", occ.CoverageKey).
				Msg("Dropping rejected occurrence")
			return nil
		default:
			return fmt.Errorf("record occurrence of %q in %s: %w", occ.Term, occ.CoverageKey, err)
		}
	})
	return nil
}

// Run blocks until ctx is cancelled or Close is called.
func (r *OutcomeRouter) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once handlers are subscribed.
func (r *OutcomeRouter) Running() chan struct{} {
	return r.router.Running()
}

// Close stops the router.
func (r *OutcomeRouter) Close() error {
	return r.router.Close()
}
