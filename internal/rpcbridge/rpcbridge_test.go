package rpcbridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leshchenko1979/telegram-mcp-go/internal/platformtest"
	"github.com/leshchenko1979/telegram-mcp-go/internal/toolerr"
)

func TestInvoke_UnknownMethodIsValidationError(t *testing.T) {
	registry := NewRegistry()
	client := &platformtest.FakeClient{}

	_, err := Invoke(context.Background(), registry, client, "bogus.Method", nil)

	require.Error(t, err)
	var te *toolerr.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, toolerr.KindValidation, te.Kind)
}

func TestInvoke_PopulatesFieldsAndCallsClient(t *testing.T) {
	registry := NewRegistry()
	var gotRequest any
	client := &platformtest.FakeClient{
		InvokeFn: func(ctx context.Context, request any) (any, error) {
			gotRequest = request
			return map[string]any{"ok": true}, nil
		},
	}

	result, err := Invoke(context.Background(), registry, client, "messages.GetHistory", map[string]any{
		"peer":  "12345",
		"limit": float64(50),
	})

	require.NoError(t, err)
	assert.True(t, result.OK)

	req, ok := gotRequest.(*GetHistoryRequest)
	require.True(t, ok, "expected *GetHistoryRequest, got %T", gotRequest)
	assert.Equal(t, "12345", req.Peer)
	assert.Equal(t, 50, req.Limit)
}

func TestInvoke_RequestSuffixIsOptional(t *testing.T) {
	registry := NewRegistry()
	_, ok := registry.Lookup("messages.GetHistoryRequest")
	assert.True(t, ok, "should normalise away the Request suffix")
}

func TestInvoke_UpstreamFailureIsReportedInBand(t *testing.T) {
	registry := NewRegistry()
	client := &platformtest.FakeClient{
		InvokeFn: func(ctx context.Context, request any) (any, error) {
			return nil, assertErr{}
		},
	}

	result, err := Invoke(context.Background(), registry, client, "contacts.ResolveUsername", map[string]any{"username": "x"})

	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.NotEmpty(t, result.Error)
}

type assertErr struct{}

func (assertErr) Error() string { return "upstream failed" }
