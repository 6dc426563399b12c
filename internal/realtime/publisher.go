// Package realtime fans item changes out to dashboard clients over Redis
// pub/sub. Delivery is at-most-once.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Channel names a broadcast topic.
type Channel string

const (
	ChannelIncidents     Channel = "incidents"
	ChannelRequirements  Channel = "requirements"
	ChannelNotifications Channel = "notifications"
)

// ChannelFor maps an item kind to its topic.
func ChannelFor(kind domain.ItemKind) Channel {
	if kind == domain.KindRequirement {
		return ChannelRequirements
	}
	return ChannelIncidents
}

// Message is the broadcast payload.
type Message struct {
	Type          string    `json:"type"`
	EntityID      string    `json:"entityId"`
	ChangeSummary string    `json:"changeSummary"`
	ActorID       string    `json:"actorId"`
	RecipientID   string    `json:"recipientId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher sends a message on a channel.
type Publisher interface {
	Publish(ctx context.Context, channel Channel, msg Message) error
}

// RedisPublisher publishes JSON messages with PUBLISH.
type RedisPublisher struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisPublisher builds a publisher. prefix is prepended to every channel
// name, e.g. "helpdesk:" gives "helpdesk:incidents".
func NewRedisPublisher(client redis.UniversalClient, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

// Publish encodes msg and publishes it.
func (p *RedisPublisher) Publish(ctx context.Context, channel Channel, msg Message) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("realtime publisher not configured")
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode realtime message: %w", err)
	}
	if err := p.client.Publish(ctx, p.topic(channel), body).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.topic(channel), err)
	}
	return nil
}

func (p *RedisPublisher) topic(channel Channel) string {
	return p.prefix + string(channel)
}

// NopPublisher discards messages. It stands in when Redis is not configured.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, Channel, Message) error { return nil }
