package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelmirror/pkg/mirror"
)

func TestClient(t *testing.T) {
	srv, k, m := setup(t)
	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	ret, err := c.Push(ctx, make([]byte, dims.BufferLen()))
	require.NoError(t, err)
	assert.False(t, ret.Updated)

	id, err := k.Create(ctx, 7)
	require.NoError(t, err)

	ret, err = c.Push(ctx, make([]byte, dims.BufferLen()))
	require.NoError(t, err)
	assert.True(t, ret.Updated)
	assert.Len(t, m.Patches, 1)

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, st.Identity)
	assert.True(t, st.Ready)

	require.NoError(t, c.Clear(ctx))
	assert.True(t, k.Identity().IsZero())
}

func TestClientErrors(t *testing.T) {
	srv, k, m := setup(t)
	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	id, err := k.Create(ctx, 7)
	require.NoError(t, err)

	_, err = c.Push(ctx, []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrRejected)

	m.Delete(id)
	_, err = c.Push(ctx, make([]byte, dims.BufferLen()))
	assert.ErrorIs(t, err, mirror.ErrStaleMirror)

	_, err = k.Create(ctx, 7)
	require.NoError(t, err)
	m.Lock()
	m.FailWith = context.DeadlineExceeded
	m.Unlock()
	_, err = c.Push(ctx, make([]byte, dims.BufferLen()))
	assert.ErrorIs(t, err, mirror.ErrPublish)
}
