package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelmirror/pkg/mirror"
	"pixelmirror/pkg/raster"
)

const sample = `
token: abc
owner_id: 77
canvas:
  width: 160
  height: 90
timeout: 5s
mirror:
  channel_id: 10
  message_id: 20
`

func parse(t *testing.T, afs afero.Fs, args ...string) (*Config, error) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return Load(afs, fs)
}

func TestLoadFile(t *testing.T) {
	t.Setenv(TokenEnv, "")
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "pixels.yaml", []byte(sample), 0644))

	c, err := parse(t, afs, "--config", "pixels.yaml")
	require.NoError(t, err)

	assert.Equal(t, "abc", c.Token)
	assert.Equal(t, uint64(77), c.OwnerID)
	assert.Equal(t, raster.Dimensions{Width: 160, Height: 90}, c.Canvas)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, mirror.Identity{ChannelID: 10, MessageID: 20}, c.Mirror)
	// defaults survive
	assert.Equal(t, "pixels.", c.Prefix)
	assert.Equal(t, mirror.DefaultScale, c.Scale)
	assert.Equal(t, "state.yaml", c.StateFile)
}

func TestFlagsOverrideFile(t *testing.T) {
	t.Setenv(TokenEnv, "")
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "pixels.yaml", []byte(sample), 0644))

	c, err := parse(t, afs, "-c", "pixels.yaml", "--token", "xyz", "--scale", "2", "--width", "8", "--debug")
	require.NoError(t, err)

	assert.Equal(t, "xyz", c.Token)
	assert.Equal(t, 2, c.Scale)
	assert.Equal(t, uint(8), c.Canvas.Width)
	assert.Equal(t, uint(90), c.Canvas.Height)
	assert.True(t, c.Debug)
}

func TestTokenFromEnv(t *testing.T) {
	t.Setenv(TokenEnv, "from-env")

	c, err := parse(t, afero.NewMemMapFs(), "--width", "2", "--height", "2")
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Token)
}

func TestValidate(t *testing.T) {
	t.Setenv(TokenEnv, "")
	afs := afero.NewMemMapFs()

	_, err := parse(t, afs, "--width", "2", "--height", "2")
	assert.EqualError(t, err, "token is required")

	_, err = parse(t, afs, "--token", "t")
	assert.ErrorIs(t, err, raster.ErrInvalidDimensions)

	_, err = parse(t, afs, "--token", "t", "--width", "2", "--height", "2", "--scale", "-1")
	assert.ErrorIs(t, err, raster.ErrInvalidScale)

	c, err := parse(t, afs, "--dry-run", "--width", "2", "--height", "2")
	require.NoError(t, err)
	assert.True(t, c.DryRun)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := parse(t, afero.NewMemMapFs(), "--config", "nope.yaml")
	assert.Error(t, err)
}
