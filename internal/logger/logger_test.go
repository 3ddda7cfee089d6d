package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "debug", "json")
	t.Cleanup(func() { Initialize("info", "text") })

	ctx := WithRequestID(WithTenant(context.Background(), 7), "req-1")
	Audit(ctx, "payment.created", "paymentID", 12)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Ledger mutation", rec["msg"])
	assert.Equal(t, "payment.created", rec["action"])
	assert.Equal(t, float64(7), rec["tenant_id"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, float64(12), rec["paymentID"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "warn", "text")
	t.Cleanup(func() { Initialize("info", "text") })

	EnterMethod("x.Y")
	Info("ignored")
	assert.Zero(t, buf.Len())

	Warn("kept", "k", "v")
	assert.Contains(t, buf.String(), "kept")
	assert.Contains(t, buf.String(), "k=v")
}

func TestTenantFrom(t *testing.T) {
	_, ok := TenantFrom(context.Background())
	assert.False(t, ok)

	id, ok := TenantFrom(WithTenant(context.Background(), 3))
	assert.True(t, ok)
	assert.Equal(t, int32(3), id)
}
