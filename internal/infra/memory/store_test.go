package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, found, err := s.Get(ctx, "mgm_x")
	require.NoError(t, err)
	assert.False(t, found)

	val := []byte(`[1]`)
	require.NoError(t, s.Set(ctx, "mgm_x", val))
	val[0] = 'X'

	got, found, err := s.Get(ctx, "mgm_x")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[1]`, string(got))

	require.NoError(t, s.SetMany(ctx, map[string][]byte{"mgm_a": []byte("1"), "other": []byte("2")}))
	keys, err := s.Keys(ctx, "mgm_")
	require.NoError(t, err)
	assert.Equal(t, []string{"mgm_a", "mgm_x"}, keys)

	require.NoError(t, s.Delete(ctx, "mgm_x"))
	keys, err = s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"mgm_a", "other"}, keys)

	require.NoError(t, s.DeleteMany(ctx, []string{"mgm_a", "other", "absent"}))
	keys, err = s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.NoError(t, s.Ping(ctx))
}
