package command

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func static(text string) Handler {
	return func(context.Context, *Invocation) (string, error) {
		return text, nil
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New("p.", nil, zap.NewNop(),
		&Command{Name: "repo", Aliases: []string{"github"}, Handler: static("a")},
		&Command{Name: "github", Handler: static("b")},
	)
	assert.EqualError(t, err, `command name "github" of "github" already used by "repo"`)

	_, err = New("p.", nil, zap.NewNop(),
		&Command{Name: "repo", Aliases: []string{"src", "src"}, Handler: static("a")},
	)
	assert.Error(t, err)
}

func TestNewValidates(t *testing.T) {
	for name, cmd := range map[string]*Command{
		"empty name":  {Name: "", Handler: static("a")},
		"space":       {Name: "a b", Handler: static("a")},
		"no handler":  {Name: "a"},
		"restricted":  {Name: "a", Restricted: true, Handler: static("a")},
		"empty alias": {Name: "a", Aliases: []string{""}, Handler: static("a")},
	} {
		_, err := New("p.", nil, zap.NewNop(), cmd)
		assert.Error(t, err, name)
	}

	_, err := New("", nil, zap.NewNop())
	assert.Error(t, err)
}

func newRouter(t *testing.T, calls *[]*Invocation) *Router {
	t.Helper()
	r, err := New("pixels.", Owners(1), zap.NewNop(),
		&Command{Name: "repo", Aliases: []string{"github", "source"}, Handler: static("url")},
		&Command{
			Name:       "startmirror",
			Args:       1,
			Usage:      "startmirror <channel>",
			Restricted: true,
			Handler: func(ctx context.Context, inv *Invocation) (string, error) {
				*calls = append(*calls, inv)
				if inv.Args[0] == "bad" {
					return "", errors.New("boom")
				}
				return "done", nil
			},
		},
	)
	require.NoError(t, err)
	return r
}

func TestDispatch(t *testing.T) {
	var calls []*Invocation
	r := newRouter(t, &calls)
	ctx := context.Background()

	for _, content := range []string{"pixels.repo", "pixels.github", "  pixels.source extra args "} {
		reply, handled := r.Dispatch(ctx, Invocation{AuthorID: 9}, content)
		assert.True(t, handled, content)
		assert.Equal(t, "url", reply, content)
	}

	for _, content := range []string{"hello", "pixels.", "pixels.unknown", "!pixels.repo", "pixels.Repo"} {
		_, handled := r.Dispatch(ctx, Invocation{AuthorID: 9}, content)
		assert.False(t, handled, content)
	}
}

func TestDispatchRestricted(t *testing.T) {
	var calls []*Invocation
	r := newRouter(t, &calls)
	ctx := context.Background()

	reply, handled := r.Dispatch(ctx, Invocation{AuthorID: 9}, "pixels.startmirror <#42>")
	assert.True(t, handled)
	assert.Equal(t, ReplyForbidden, reply)
	assert.Empty(t, calls)

	reply, _ = r.Dispatch(ctx, Invocation{AuthorID: 1}, "pixels.startmirror")
	assert.Equal(t, "Usage: pixels.startmirror <channel>", reply)
	assert.Empty(t, calls)

	reply, _ = r.Dispatch(ctx, Invocation{AuthorID: 1, ChannelID: 5}, "pixels.startmirror <#42>")
	assert.Equal(t, "done", reply)
	require.Len(t, calls, 1)
	assert.Equal(t, "startmirror", calls[0].Name)
	assert.Equal(t, []string{"<#42>"}, calls[0].Args)
	assert.Equal(t, uint64(5), calls[0].ChannelID)

	reply, _ = r.Dispatch(ctx, Invocation{AuthorID: 1}, "pixels.startmirror bad")
	assert.Equal(t, "command failed: boom", reply)
}

func TestNames(t *testing.T) {
	var calls []*Invocation
	r := newRouter(t, &calls)
	assert.Equal(t, []string{"github", "repo", "source", "startmirror"}, r.Names())

	cmd, ok := r.Lookup("source")
	require.True(t, ok)
	assert.Equal(t, "repo", cmd.Name)
}
