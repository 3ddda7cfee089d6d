package interceptor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/security"
)

const (
	testSecret       = "0123456789abcdef0123456789abcdef"
	healthCheck      = "/grpc.health.v1.Health/Check"
	reflectionMethod = "/grpc.reflection.v1.ServerReflection/ServerReflectionInfo"
)

func withToken(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
}

func okHandler(ctx context.Context, req interface{}) (interface{}, error) {
	tenantID, _ := logger.TenantFrom(ctx)
	return tenantID, nil
}

func TestUnary_PublicHealthCheck(t *testing.T) {
	i := NewAuthInterceptor(security.NewTokenManager(testSecret, time.Hour))

	resp, err := i.Unary()(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: healthCheck}, okHandler)
	require.NoError(t, err)
	assert.Equal(t, int32(0), resp)
}

func TestUnary_RequiresServiceToken(t *testing.T) {
	tm := security.NewTokenManager(testSecret, time.Hour)
	i := NewAuthInterceptor(tm)
	info := &grpc.UnaryServerInfo{FullMethod: reflectionMethod}

	_, err := i.Unary()(context.Background(), nil, info, okHandler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = i.Unary()(withToken("garbage"), nil, info, okHandler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	access, err := tm.GenerateAccessToken(7, 1, nil)
	require.NoError(t, err)
	_, err = i.Unary()(withToken(access), nil, info, okHandler)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	svc, err := tm.GenerateServiceToken(7, "ops")
	require.NoError(t, err)
	resp, err := i.Unary()(withToken(svc), nil, info, okHandler)
	require.NoError(t, err)
	assert.Equal(t, int32(7), resp)
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeStream) Context() context.Context { return f.ctx }

func TestStream_PutsTenantOnContext(t *testing.T) {
	tm := security.NewTokenManager(testSecret, time.Hour)
	i := NewAuthInterceptor(tm)
	svc, err := tm.GenerateServiceToken(3, "ops")
	require.NoError(t, err)

	var seen int32
	handler := func(srv interface{}, ss grpc.ServerStream) error {
		seen, _ = logger.TenantFrom(ss.Context())
		return nil
	}
	err = i.Stream()(nil, &fakeStream{ctx: withToken(svc)}, &grpc.StreamServerInfo{FullMethod: reflectionMethod}, handler)
	require.NoError(t, err)
	assert.Equal(t, int32(3), seen)

	err = i.Stream()(nil, &fakeStream{ctx: context.Background()}, &grpc.StreamServerInfo{FullMethod: reflectionMethod}, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
