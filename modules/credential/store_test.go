package credential

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore("")

	has, err := store.HasSelectedKey(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	assert.ErrorIs(t, store.SelectKey(ctx, "   "), ErrEmptyKey)

	require.NoError(t, store.SelectKey(ctx, " AIzaSy-test-key "))
	has, err = store.HasSelectedKey(ctx)
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, "AIzaSy-test-key", store.APIKey())

	store.Invalidate()
	has, _ = store.HasSelectedKey(ctx)
	assert.False(t, has)
	assert.Empty(t, store.APIKey())
}

func TestStore_SeededKey(t *testing.T) {
	store := NewStore(" from-env ")
	assert.Equal(t, "from-env", store.APIKey())
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore("k").HasSelectedKey(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "****", mask("abc"))
	assert.Equal(t, "****6789", mask("123456789"))
}
