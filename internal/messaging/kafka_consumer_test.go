package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/arb-ledger-service/internal/mocks"
	"github.com/cypherlabdev/arb-ledger-service/internal/models"
)

// testKafkaConsumerSetup is a helper struct to hold test dependencies
type testKafkaConsumerSetup struct {
	mockSolver *mocks.MockSolver
	mockStore  *mocks.MockStore
	logger     zerolog.Logger
	ctrl       *gomock.Controller
}

// setupTestKafkaConsumer creates a test consumer with mocked dependencies
func setupTestKafkaConsumer(t *testing.T) *testKafkaConsumerSetup {
	ctrl := gomock.NewController(t)

	mockSolver := mocks.NewMockSolver(ctrl)
	mockStore := mocks.NewMockStore(ctrl)
	logger := zerolog.Nop()

	return &testKafkaConsumerSetup{
		mockSolver: mockSolver,
		mockStore:  mockStore,
		logger:     logger,
		ctrl:       ctrl,
	}
}

// cleanup cleans up test resources
func (s *testKafkaConsumerSetup) cleanup() {
	s.ctrl.Finish()
}

func (s *testKafkaConsumerSetup) newConsumer() *KafkaConsumer {
	config := KafkaConsumerConfig{
		Brokers:    []string{"localhost:9092"},
		Topic:      "event_odds",
		GroupID:    "test-group",
		ScanBudget: decimal.NewFromInt(100),
	}
	return NewKafkaConsumer(config, s.mockSolver, s.mockStore, s.logger)
}

func feedMessage(t *testing.T, offers []models.BookmakerOffer) kafka.Message {
	t.Helper()

	feed := models.OddsFeedMessage{
		EventID:   "event-123",
		EventName: "Team A vs Team B",
		Offers:    offers,
		Timestamp: time.Now(),
	}
	value, err := json.Marshal(feed)
	require.NoError(t, err)

	return kafka.Message{Value: value}
}

func twoWayOffers() []models.BookmakerOffer {
	return []models.BookmakerOffer{
		{Bookmaker: "alpha", Outcome: "home", Price: decimal.NewFromFloat(1.75)},
		{Bookmaker: "beta", Outcome: "away", Price: decimal.NewFromFloat(2.5)},
	}
}

// TestNewKafkaConsumer tests consumer creation
func TestNewKafkaConsumer(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := setup.newConsumer()

	assert.NotNil(t, consumer)
	assert.NotNil(t, consumer.reader)
	assert.NotNil(t, consumer.solver)
	assert.NotNil(t, consumer.store)
	assert.Equal(t, "event_odds", consumer.reader.Config().Topic)
	assert.Equal(t, "test-group", consumer.reader.Config().GroupID)

	consumer.Close()
}

// TestProcessMessage_OpportunityCached tests the scan-and-cache path
func TestProcessMessage_OpportunityCached(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := setup.newConsumer()
	defer consumer.Close()

	quote := &models.ArbitrageQuote{
		Budget:           decimal.NewFromInt(100),
		ImpliedSum:       decimal.NewFromFloat(0.9714),
		HasOpportunity:   true,
		GuaranteedProfit: decimal.NewFromFloat(2.94),
		ROI:              decimal.NewFromFloat(2.94),
	}

	setup.mockSolver.EXPECT().
		Solve(decimal.NewFromInt(100), gomock.Any()).
		Return(quote, nil)

	var cached *models.EventQuote
	setup.mockStore.EXPECT().
		SaveQuote(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q *models.EventQuote) error {
			cached = q
			return nil
		})

	err := consumer.processMessage(context.Background(), feedMessage(t, twoWayOffers()))

	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "event-123", cached.EventID)
	assert.Equal(t, "Team A vs Team B", cached.EventName)
	assert.True(t, cached.Quote.HasOpportunity)
}

// TestProcessMessage_NoOpportunity tests that losing events are not cached
func TestProcessMessage_NoOpportunity(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := setup.newConsumer()
	defer consumer.Close()

	quote := &models.ArbitrageQuote{
		ImpliedSum:     decimal.NewFromFloat(1.5),
		HasOpportunity: false,
		Reason:         "guaranteed profit not achievable with these odds",
	}

	setup.mockSolver.EXPECT().
		Solve(gomock.Any(), gomock.Any()).
		Return(quote, nil)

	// No SaveQuote expectation: caching a no-opportunity quote fails the test
	err := consumer.processMessage(context.Background(), feedMessage(t, twoWayOffers()))

	assert.NoError(t, err)
}

// TestProcessMessage_InvalidJSON tests processing with invalid JSON
func TestProcessMessage_InvalidJSON(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := setup.newConsumer()
	defer consumer.Close()

	err := consumer.processMessage(context.Background(), kafka.Message{Value: []byte("not json")})

	assert.Error(t, err)
}

// TestProcessMessage_SingleOutcomeSkipped tests that unscannable events are
// skipped without holding the offset back
func TestProcessMessage_SingleOutcomeSkipped(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := setup.newConsumer()
	defer consumer.Close()

	offers := []models.BookmakerOffer{
		{Bookmaker: "alpha", Outcome: "home", Price: decimal.NewFromFloat(1.75)},
	}

	// Neither solver nor store may be called
	err := consumer.processMessage(context.Background(), feedMessage(t, offers))

	assert.NoError(t, err)
}

// TestProcessMessage_InvalidOddsSkipped tests that solver input errors skip
// the event instead of failing the batch
func TestProcessMessage_InvalidOddsSkipped(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := setup.newConsumer()
	defer consumer.Close()

	setup.mockSolver.EXPECT().
		Solve(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("odds must be greater than 1.0: got 1"))

	err := consumer.processMessage(context.Background(), feedMessage(t, twoWayOffers()))

	assert.NoError(t, err)
}

// TestProcessMessage_CacheFailure tests that storage faults propagate so the
// message is redelivered
func TestProcessMessage_CacheFailure(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := setup.newConsumer()
	defer consumer.Close()

	quote := &models.ArbitrageQuote{
		HasOpportunity:   true,
		GuaranteedProfit: decimal.NewFromFloat(2.94),
	}

	setup.mockSolver.EXPECT().
		Solve(gomock.Any(), gomock.Any()).
		Return(quote, nil)
	setup.mockStore.EXPECT().
		SaveQuote(gomock.Any(), gomock.Any()).
		Return(errors.New("write failed"))

	err := consumer.processMessage(context.Background(), feedMessage(t, twoWayOffers()))

	assert.Error(t, err)
}

// TestKafkaConsumerConfig tests different configurations
func TestKafkaConsumerConfig(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	tests := []struct {
		name   string
		config KafkaConsumerConfig
	}{
		{
			name: "Single broker",
			config: KafkaConsumerConfig{
				Brokers:    []string{"localhost:9092"},
				Topic:      "test-topic",
				GroupID:    "test-group",
				ScanBudget: decimal.NewFromInt(100),
			},
		},
		{
			name: "Multiple brokers",
			config: KafkaConsumerConfig{
				Brokers:    []string{"broker1:9092", "broker2:9092", "broker3:9092"},
				Topic:      "test-topic",
				GroupID:    "test-group",
				ScanBudget: decimal.NewFromInt(100),
			},
		},
		{
			name: "Different topic",
			config: KafkaConsumerConfig{
				Brokers:    []string{"localhost:9092"},
				Topic:      "event_odds_v2",
				GroupID:    "test-group",
				ScanBudget: decimal.NewFromInt(250),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer := NewKafkaConsumer(tt.config, setup.mockSolver, setup.mockStore, setup.logger)

			assert.NotNil(t, consumer)
			assert.Equal(t, tt.config.Topic, consumer.reader.Config().Topic)
			assert.Equal(t, tt.config.GroupID, consumer.reader.Config().GroupID)
			assert.Equal(t, tt.config.Brokers, consumer.reader.Config().Brokers)

			consumer.Close()
		})
	}
}
