package persistence

import (
	"context"
	"testing"

	"social-relay/infrastructure/configuration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostHistory_Disabled(t *testing.T) {
	history, closeFn, err := NewPostHistory(context.Background(), configuration.Database{})
	require.NoError(t, err)
	assert.IsType(t, NoopPostHistory{}, history)
	assert.NoError(t, closeFn())
}

func TestNewPostHistory_UnsupportedVendor(t *testing.T) {
	history, closeFn, err := NewPostHistory(context.Background(), configuration.Database{Vendor: "oracle"})
	require.Error(t, err)
	assert.Nil(t, history)
	assert.NotNil(t, closeFn)
	assert.Contains(t, err.Error(), `"oracle"`)
}
