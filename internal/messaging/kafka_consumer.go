package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/arb-ledger-service/internal/metrics"
	"github.com/cypherlabdev/arb-ledger-service/internal/models"
	"github.com/cypherlabdev/arb-ledger-service/internal/service"
	"github.com/cypherlabdev/arb-ledger-service/pkg/solver"
)

// KafkaConsumer consumes per-event bookmaker odds from Kafka, scans them for
// arbitrage and caches the latest quote per event
type KafkaConsumer struct {
	reader     *kafka.Reader
	solver     service.Solver
	store      service.Store
	scanBudget decimal.Decimal
	logger     zerolog.Logger
}

// KafkaConsumerConfig holds Kafka consumer configuration
type KafkaConsumerConfig struct {
	Brokers    []string        // e.g., ["localhost:9092"]
	Topic      string          // e.g., "event_odds"
	GroupID    string          // e.g., "arb-ledger"
	ScanBudget decimal.Decimal // notional budget used for feed scans
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(
	config KafkaConsumerConfig,
	slv service.Solver,
	store service.Store,
	logger zerolog.Logger,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       1e3,  // 1KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: 1000, // Commit every 1 second
	})

	return &KafkaConsumer{
		reader:     reader,
		solver:     slv,
		store:      store,
		scanBudget: config.ScanBudget,
		logger:     logger.With().Str("component", "kafka_consumer").Logger(),
	}
}

// Start begins consuming messages from Kafka
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("started consuming from Kafka")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("stopping Kafka consumer")
			return c.reader.Close()

		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if err == context.Canceled {
					return nil
				}
				c.logger.Error().Err(err).Msg("failed to fetch message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.logger.Error().
					Err(err).
					Int64("offset", msg.Offset).
					Str("key", string(msg.Key)).
					Msg("failed to process message")
				// Don't commit if processing failed
				continue
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("failed to commit message")
			}
		}
	}
}

// processMessage scans a single feed event for arbitrage. Events that cannot
// be scanned (unsupported outcome count, out-of-range odds) are skipped and
// committed; only storage failures hold the offset back for redelivery.
func (c *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var feed models.OddsFeedMessage
	if err := json.Unmarshal(msg.Value, &feed); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	metrics.FeedEvents.Inc()
	start := time.Now()

	odds, offers, err := solver.BestOdds(feed.Offers)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("event_id", feed.EventID).
			Int("offer_count", len(feed.Offers)).
			Msg("skipping unscannable event")
		return nil
	}

	quote, err := c.solver.Solve(c.scanBudget, odds)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("event_id", feed.EventID).
			Msg("skipping event with invalid odds")
		return nil
	}

	metrics.ScanLatency.Observe(time.Since(start).Seconds())

	if !quote.HasOpportunity {
		c.logger.Debug().
			Str("event_id", feed.EventID).
			Str("implied_sum", quote.ImpliedSum.String()).
			Msg("no opportunity in feed event")
		return nil
	}

	eventQuote := &models.EventQuote{
		EventID:    feed.EventID,
		EventName:  feed.EventName,
		Quote:      *quote,
		DetectedAt: time.Now().UTC(),
	}
	if err := c.store.SaveQuote(ctx, eventQuote); err != nil {
		metrics.StorageErrors.Inc()
		return fmt.Errorf("failed to cache quote: %w", err)
	}

	metrics.OpportunitiesDetected.Inc()
	c.logger.Info().
		Str("event_id", feed.EventID).
		Str("event_name", feed.EventName).
		Int("offer_count", len(offers)).
		Str("guaranteed_profit", quote.GuaranteedProfit.String()).
		Str("roi", quote.ROI.String()).
		Msg("cached arbitrage opportunity")

	return nil
}

// Close closes the Kafka reader
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
