//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "coopreg/pkg/platform/audit"
	"coopreg/pkg/platform/audit/store/kafka"
	"coopreg/pkg/testutil/containers"
)

type KafkaSinkSuite struct {
	suite.Suite
	broker string
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T()).Broker
}

func (s *KafkaSinkSuite) TestAppendProducesKeyedRecord() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "audit-" + uuid.NewString()
	sink, err := kafka.New([]string{s.broker}, topic)
	s.Require().NoError(err)
	defer sink.Close()

	s.Require().NoError(sink.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(sink.EnsureTopic(ctx, 1, 1), "second ensure is a no-op")

	entityID := uuid.NewString()
	s.Require().NoError(sink.Append(ctx, audit.Event{
		Timestamp:  time.Now().UTC(),
		Action:     string(audit.EventRegistrationStatusChanged),
		EntityType: "registration",
		EntityID:   entityID,
		Decision:   "approved",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var records []*kgo.Record
	for len(records) == 0 && ctx.Err() == nil {
		fetches := consumer.PollFetches(ctx)
		s.Require().Empty(fetches.Errors())
		records = append(records, fetches.Records()...)
	}
	s.Require().Len(records, 1)
	s.Equal(entityID, string(records[0].Key))

	var body map[string]any
	s.Require().NoError(json.Unmarshal(records[0].Value, &body))
	s.Equal("registration_status_changed", body["action"])
	s.Equal("compliance", body["category"])
	s.Equal("approved", body["decision"])
}
