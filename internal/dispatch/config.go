// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package dispatch

import (
	"fmt"
	"time"
)

// Config holds transport settings for dispatch and outcome consumption.
type Config struct {
	// URL of the NATS server. Ignored when Embedded is set.
	URL string `koanf:"url"`

	// Embedded starts an in-process JetStream server.
	Embedded bool         `koanf:"embedded"`
	Server   ServerConfig `koanf:"server"`
	Stream   StreamConfig `koanf:"stream"`

	FinalListTopic string `koanf:"final_list_topic" validate:"required"`
	OutcomeTopic   string `koanf:"outcome_topic" validate:"required"`
	PoisonTopic    string `koanf:"poison_topic"`

	// OccurrenceTopic carries unmet searches from the search layer. Empty
	// disables the consumer.
	OccurrenceTopic string `koanf:"occurrence_topic"`

	// Subscriber settings.
	QueueGroup       string        `koanf:"queue_group"`
	DurableName      string        `koanf:"durable_name"`
	SubscribersCount int           `koanf:"subscribers_count" validate:"min=1"`
	AckWaitTimeout   time.Duration `koanf:"ack_wait_timeout"`
	MaxDeliver       int           `koanf:"max_deliver" validate:"min=1"`
	MaxAckPending    int           `koanf:"max_ack_pending" validate:"min=1"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`

	// Connection settings shared by publisher and subscriber.
	MaxReconnects   int           `koanf:"max_reconnects"`
	ReconnectWait   time.Duration `koanf:"reconnect_wait"`
	ReconnectBuffer int           `koanf:"reconnect_buffer"`

	// PublishRate caps final-list publishes per second. Zero disables.
	PublishRate  float64 `koanf:"publish_rate" validate:"min=0"`
	PublishBurst int     `koanf:"publish_burst" validate:"min=0"`

	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`

	// Outcome router retry middleware.
	RetryMaxRetries      int           `koanf:"retry_max_retries" validate:"min=0"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	RetryMultiplier      float64       `koanf:"retry_multiplier"`
}

// ServerConfig configures the embedded NATS server.
type ServerConfig struct {
	Host              string `koanf:"host"`
	Port              int    `koanf:"port"` // -1 picks a random port
	StoreDir          string `koanf:"store_dir"`
	JetStreamMaxMem   int64  `koanf:"jetstream_max_memory"`
	JetStreamMaxStore int64  `koanf:"jetstream_max_store"`
}

// StreamConfig describes the JetStream stream carrying dispatch traffic.
type StreamConfig struct {
	Name            string        `koanf:"name" validate:"required"`
	Subjects        []string      `koanf:"subjects" validate:"required,min=1"`
	MaxAge          time.Duration `koanf:"max_age"`
	MaxBytes        int64         `koanf:"max_bytes"`
	DuplicateWindow time.Duration `koanf:"duplicate_window"`
	Replicas        int           `koanf:"replicas" validate:"min=1"`
}

// DefaultConfig returns settings for a single-node deployment.
func DefaultConfig() Config {
	return Config{
		URL:      "nats://127.0.0.1:4222",
		Embedded: true,
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              4222,
			StoreDir:          "/data/nats",
			JetStreamMaxMem:   64 * 1024 * 1024,
			JetStreamMaxStore: 1024 * 1024 * 1024,
		},
		Stream: StreamConfig{
			Name:            "KEYWORDSCOUT",
			Subjects:        []string{"keywordscout.>"},
			MaxAge:          7 * 24 * time.Hour,
			DuplicateWindow: 24 * time.Hour,
			Replicas:        1,
		},
		FinalListTopic:          "keywordscout.final_list",
		OutcomeTopic:            "keywordscout.outcomes",
		PoisonTopic:             "keywordscout.outcomes.poison",
		OccurrenceTopic:         "keywordscout.unmet.occurrences",
		QueueGroup:              "keywordscout",
		DurableName:             "keywordscout-outcomes",
		SubscribersCount:        2,
		AckWaitTimeout:          30 * time.Second,
		MaxDeliver:              5,
		MaxAckPending:           256,
		CloseTimeout:            30 * time.Second,
		MaxReconnects:           -1,
		ReconnectWait:           2 * time.Second,
		ReconnectBuffer:         8 * 1024 * 1024,
		PublishRate:             5,
		PublishBurst:            10,
		BreakerFailureThreshold: 5,
		BreakerTimeout:          30 * time.Second,
		RetryMaxRetries:         3,
		RetryInitialInterval:    100 * time.Millisecond,
		RetryMaxInterval:        5 * time.Second,
		RetryMultiplier:         2,
	}
}

// Validate checks settings that struct tags cannot express.
func (c *Config) Validate() error {
	if c.PoisonTopic != "" && c.PoisonTopic == c.OutcomeTopic {
		return fmt.Errorf("poison_topic must differ from outcome_topic")
	}
	if c.FinalListTopic == c.OutcomeTopic {
		return fmt.Errorf("final_list_topic must differ from outcome_topic")
	}
	if c.OccurrenceTopic != "" {
		for name, topic := range map[string]string{
			"final_list_topic": c.FinalListTopic,
			"outcome_topic":    c.OutcomeTopic,
			"poison_topic":     c.PoisonTopic,
		} {
			if topic == c.OccurrenceTopic {
				return fmt.Errorf("occurrence_topic must differ from %s", name)
			}
		}
	}
	if !c.Embedded && c.URL == "" {
		return fmt.Errorf("url is required when embedded server is disabled")
	}
	return nil
}
