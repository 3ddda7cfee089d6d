// Package events publishes ledger changes to interested consumers once the
// transaction that produced them has committed.
package events

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"reconledger-backend/internal/logger"
)

type Type string

const (
	PaymentCreated          Type = "payment.created"
	PaymentUpdated          Type = "payment.updated"
	PaymentDeleted          Type = "payment.deleted"
	AllocationCreated       Type = "allocation.created"
	AllocationUpdated       Type = "allocation.updated"
	AllocationDeleted       Type = "allocation.deleted"
	ReconciliationCompleted Type = "reconciliation.completed"
	StatementImported       Type = "statement.imported"
	CommissionCalculated    Type = "commission.calculated"
)

type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	TenantID   int32     `json:"tenant_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New stamps an event with a sortable id and the current time.
func New(tenantID int32, typ Type, payload any) Event {
	now := time.Now().UTC()
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), entropy)
	entropyMu.Unlock()
	return Event{ID: id.String(), Type: typ, TenantID: tenantID, OccurredAt: now, Payload: payload}
}

type Publisher interface {
	Publish(ctx context.Context, evts ...Event) error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ...Event) error { return nil }

// RedisPublisher sends each event as JSON on a per-tenant pub/sub channel.
type RedisPublisher struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisPublisher(rdb redis.UniversalClient, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = "ledger_events"
	}
	return &RedisPublisher{rdb: rdb, prefix: prefix}
}

// Channel is the pub/sub channel carrying a tenant's events.
func (p *RedisPublisher) Channel(tenantID int32) string {
	return fmt.Sprintf("%s:%d", p.prefix, tenantID)
}

func (p *RedisPublisher) Publish(ctx context.Context, evts ...Event) error {
	for _, evt := range evts {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		logger.ExternalServiceCall("redis", "publish", "type", evt.Type, "tenantID", evt.TenantID)
		err = p.rdb.Publish(ctx, p.Channel(evt.TenantID), payload).Err()
		logger.ExternalServiceResult("redis", "publish", err, "eventID", evt.ID)
		if err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
	}
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, evts ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evts...)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
