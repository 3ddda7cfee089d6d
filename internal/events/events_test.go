package events

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AssignsSortableIDs(t *testing.T) {
	a := New(1, PaymentCreated, map[string]int{"payment_id": 1})
	b := New(1, PaymentDeleted, nil)

	_, err := ulid.ParseStrict(a.ID)
	require.NoError(t, err)
	assert.Less(t, a.ID, b.ID)
	assert.Equal(t, int32(1), a.TenantID)
	assert.False(t, a.OccurredAt.IsZero())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Publish(context.Background(), New(1, PaymentCreated, nil), New(1, AllocationCreated, nil)))
	assert.Equal(t, []Type{PaymentCreated, AllocationCreated}, r.Types())
	assert.Len(t, r.Events(), 2)
}

func TestRedisPublisher_Channel(t *testing.T) {
	p := NewRedisPublisher(nil, "")
	assert.Equal(t, "ledger_events:42", p.Channel(42))
}
