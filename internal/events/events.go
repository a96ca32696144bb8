// Package events publishes the moderation and administration audit stream.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Type names an audited action.
type Type string

const (
	PostApproved    Type = "post.approved"
	PostRejected    Type = "post.rejected"
	PostPickToggled Type = "post.pick_toggled"
	PostEdited      Type = "post.edited"
	PostDeleted     Type = "post.deleted"
	CommentDeleted  Type = "comment.deleted"
	UserRoleChanged Type = "user.role_changed"
	UserDeleted     Type = "user.deleted"
	CategoryCreated Type = "category.created"
	CategoryUpdated Type = "category.updated"
	CategoryDeleted Type = "category.deleted"
	BannerCreated   Type = "banner.created"
	BannerUpdated   Type = "banner.updated"
	BannerDeleted   Type = "banner.deleted"
)

type Event struct {
	Type      Type              `json:"type"`
	ActorID   uuid.UUID         `json:"actorId"`
	SubjectID uuid.UUID         `json:"subjectId"`
	At        time.Time         `json:"at"`
	Data      map[string]string `json:"data,omitempty"`
}

func New(t Type, actor, subject uuid.UUID, data map[string]string) Event {
	return Event{Type: t, ActorID: actor, SubjectID: subject, At: time.Now().UTC(), Data: data}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.InfoContext(ctx, "audit",
		"type", e.Type,
		"actor", e.ActorID,
		"subject", e.SubjectID,
		"data", e.Data,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// KafkaConfig names the brokers and topic of the audit stream.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher writes events as JSON keyed by subject id, so every event
// about one entity lands on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher needs at least one broker")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w, topic: cfg.Topic}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := Encode(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.SubjectID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Fanout publishes every event to each of its publishers.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func Encode(e Event) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return b, nil
}
