package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/ShortLink/internal/app/model"
)

// ClickPublisher publishes click events to NATS JetStream
type ClickPublisher struct {
	js nats.JetStreamContext
}

// NewClickPublisher creates a new click event publisher
func NewClickPublisher(js nats.JetStreamContext) *ClickPublisher {
	return &ClickPublisher{js: js}
}

// EnsureStream creates the click stream if it does not exist yet.
func (p *ClickPublisher) EnsureStream() error {
	if _, err := p.js.StreamInfo(model.ClickStreamName); err == nil {
		return nil
	}
	_, err := p.js.AddStream(&nats.StreamConfig{
		Name:     model.ClickStreamName,
		Subjects: []string{model.ClickStreamSubject},
		MaxBytes: model.ClickStreamMaxBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// Publish publishes a click event to the stream
func (p *ClickPublisher) Publish(event model.ClickEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ClickStreamSubject, data)
	return err
}

// NewClickEvent builds the event for a redirect of link.
func NewClickEvent(link *model.ShortLink, ip, userAgent, referer string) model.ClickEvent {
	return model.ClickEvent{
		ID:        uuid.New().String(),
		LinkID:    link.ID,
		ShortCode: link.ShortCode,
		IP:        ip,
		UserAgent: userAgent,
		Referer:   referer,
		Timestamp: time.Now().UTC(),
	}
}
