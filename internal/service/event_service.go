package service

import (
	"context"
	"encoding/json"
	"fmt"
	"health_track_backend/internal/config"
	"health_track_backend/internal/model"
	"health_track_backend/internal/workflow"
	"health_track_backend/pkg/logger"
	"health_track_backend/pkg/monitoring"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	PublisherLog   = "log"
	PublisherKafka = "kafka"
	PublisherSQS   = "sqs"
)

// 发布在请求内同步执行，超时后只记录失败
const eventPublishTimeout = 3 * time.Second

// ProgramEvent 项目进度变化，写库成功后发布
type ProgramEvent struct {
	Transition   workflow.Transition `json:"transition"`
	UserID       uint                `json:"userId"`
	ProgramID    uint                `json:"programId"`
	EnrollmentID uint                `json:"enrollmentId"`
	CurrentStep  int                 `json:"currentStep"`
	OccurredAt   time.Time           `json:"occurredAt"`
}

func NewProgramEvent(t workflow.Transition, e *model.Enrollment, now time.Time) ProgramEvent {
	return ProgramEvent{
		Transition:   t,
		UserID:       e.UserID,
		ProgramID:    e.ProgramID,
		EnrollmentID: e.ID,
		CurrentStep:  e.CurrentStep,
		OccurredAt:   now,
	}
}

type EventPublisher interface {
	Name() string
	Publish(ctx context.Context, event ProgramEvent) error
	Close() error
}

// LogPublisher 只写日志，未配置消息队列时使用
type LogPublisher struct{}

func (LogPublisher) Name() string { return PublisherLog }

func (LogPublisher) Publish(ctx context.Context, event ProgramEvent) error {
	logger.Log.Info("program event",
		zap.String("transition", string(event.Transition)),
		zap.Uint("userID", event.UserID),
		zap.Uint("programID", event.ProgramID),
		zap.Int("currentStep", event.CurrentStep))
	return nil
}

func (LogPublisher) Close() error { return nil }

type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		Writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:  brokers,
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
			// 单条事件立即发送，不等默认 1s 的批次
			BatchSize:    1,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: eventPublishTimeout,
		}),
	}
}

func (p *KafkaPublisher) Name() string { return PublisherKafka }

func (p *KafkaPublisher) Publish(ctx context.Context, event ProgramEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// 同一报名的事件落在同一分区，保证顺序
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.EnrollmentID), 10)),
		Value: body,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.Writer.Close()
}

type SQSPublisher struct {
	Client   *sqs.Client
	QueueURL string
}

func NewSQSPublisher(ctx context.Context, queueName string) (*SQSPublisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	client := sqs.NewFromConfig(awsCfg)
	out, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(queueName)})
	if err != nil {
		return nil, fmt.Errorf("get queue url %s: %w", queueName, err)
	}
	return &SQSPublisher{Client: client, QueueURL: aws.ToString(out.QueueUrl)}, nil
}

func (p *SQSPublisher) Name() string { return PublisherSQS }

func (p *SQSPublisher) Publish(ctx context.Context, event ProgramEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.QueueURL),
		MessageBody: aws.String(string(body)),
	})
	return err
}

func (p *SQSPublisher) Close() error { return nil }

func NewEventPublisher(ctx context.Context, cfg *config.EventsConfig) (EventPublisher, error) {
	switch cfg.Publisher {
	case PublisherKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("events.kafka_brokers is empty")
		}
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case PublisherSQS:
		return NewSQSPublisher(ctx, cfg.SQSQueueName)
	case PublisherLog, "":
		return LogPublisher{}, nil
	default:
		return nil, fmt.Errorf("unsupported event publisher %q", cfg.Publisher)
	}
}

// publishAfterCommit 事务已提交，发布失败只记录，不回滚
func publishAfterCommit(ctx context.Context, publisher EventPublisher, event ProgramEvent) {
	if publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()
	if err := publisher.Publish(ctx, event); err != nil {
		monitoring.EventPublishFailures.WithLabelValues(publisher.Name()).Inc()
		logger.Log.Warn("publish program event failed",
			zap.String("publisher", publisher.Name()),
			zap.String("transition", string(event.Transition)),
			zap.Uint("enrollmentID", event.EnrollmentID),
			zap.Error(err))
	}
}
