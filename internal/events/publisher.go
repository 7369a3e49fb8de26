// Package events publishes lifecycle events for downstream consumers such as
// the storefront cache.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
)

// Publisher publishes applied lifecycle transitions.
type Publisher interface {
	Publish(ctx context.Context, ev domain.LifecycleEvent) error
}

// NATSPublisher publishes events as JSON on "<prefix>.<resource>.lifecycle".
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, name, prefix string) (*NATSPublisher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("nats url is required")
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return nil, errors.New("subject prefix is required")
	}
	conn, err := nats.Connect(url, nats.Name(name), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

// Subject returns the subject events for resource are published on.
func (p *NATSPublisher) Subject(resource string) string {
	return p.prefix + "." + resource + ".lifecycle"
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, ev domain.LifecycleEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode lifecycle event: %w", err)
	}
	if err := p.conn.Publish(p.Subject(ev.Resource), data); err != nil {
		return fmt.Errorf("publish lifecycle event: %w", err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, domain.LifecycleEvent) error { return nil }
