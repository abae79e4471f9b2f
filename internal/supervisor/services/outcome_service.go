// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// OutcomeConsumer is a blocking consumer of execution outcome reports.
//
// Satisfied by *dispatch.OutcomeRouter.
type OutcomeConsumer interface {
	Run(ctx context.Context) error
	Close() error
}

// OutcomeConsumerFactory builds a fresh consumer. A watermill router cannot be
// run twice, so every restart needs a new one.
type OutcomeConsumerFactory func() (OutcomeConsumer, error)

// errConsumerStopped makes suture restart a consumer that returned while
// its context was still live.
var errConsumerStopped = errors.New("outcome consumer stopped unexpectedly")

// OutcomeConsumerService supervises the outcome report consumer.
type OutcomeConsumerService struct {
	factory OutcomeConsumerFactory
	logger  zerolog.Logger
	name    string
}

// NewOutcomeConsumerService creates the supervised consumer wrapper.
func NewOutcomeConsumerService(factory OutcomeConsumerFactory, logger zerolog.Logger) *OutcomeConsumerService {
	return &OutcomeConsumerService{
		factory: factory,
		logger:  logger.With().Str("component", "outcome-consumer").Logger(),
		name:    "outcome-consumer",
	}
}

// Serve implements suture.Service.
func (s *OutcomeConsumerService) Serve(ctx context.Context) error {
	consumer, err := s.factory()
	if err != nil {
		return fmt.Errorf("create outcome consumer: %w", err)
	}
	defer func() {
		if cerr := consumer.Close(); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("Closing outcome consumer")
		}
	}()

	err = consumer.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("outcome consumer: %w", err)
	}
	return errConsumerStopped
}

// String implements fmt.Stringer for logging.
func (s *OutcomeConsumerService) String() string {
	return s.name
}
