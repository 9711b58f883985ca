package service

import (
	"context"
	"testing"
	"time"

	"health_track_backend/internal/config"
	"health_track_backend/internal/workflow"
	"health_track_backend/pkg/monitoring"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewEventPublisher(t *testing.T) {
	ctx := context.Background()

	p, err := NewEventPublisher(ctx, &config.EventsConfig{})
	require.NoError(t, err)
	assert.Equal(t, PublisherLog, p.Name())

	p, err = NewEventPublisher(ctx, &config.EventsConfig{Publisher: "kafka", KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "events"})
	require.NoError(t, err)
	assert.Equal(t, PublisherKafka, p.Name())
	kp := p.(*KafkaPublisher)
	assert.Equal(t, 1, kp.Writer.BatchSize)
	assert.Less(t, kp.Writer.BatchTimeout, time.Second)
	assert.NoError(t, p.Close())

	_, err = NewEventPublisher(ctx, &config.EventsConfig{Publisher: "kafka"})
	assert.Error(t, err)

	_, err = NewEventPublisher(ctx, &config.EventsConfig{Publisher: "nats"})
	assert.ErrorContains(t, err, "unsupported event publisher")
}

func TestPublishAfterCommitCountsFailures(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)

	counter := monitoring.EventPublishFailures.WithLabelValues("mock")
	before := testutil.ToFloat64(counter)

	ev := NewProgramEvent(workflow.TransitionCompleteIntroVideo, enrolled(3), fixedNow)
	publishAfterCommit(context.Background(), pub, ev)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	pub.AssertExpectations(t)
}

func TestPublishAfterCommitIgnoresCancelledRequest(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	publishAfterCommit(ctx, pub, ProgramEvent{Transition: workflow.TransitionEnroll})
	pub.AssertExpectations(t)
}

func TestPublishAfterCommitHasDeadline(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= eventPublishTimeout
	}), mock.Anything).Return(nil)

	publishAfterCommit(context.Background(), pub, ProgramEvent{Transition: workflow.TransitionEnroll})
	pub.AssertExpectations(t)
}
