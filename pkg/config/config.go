package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"pixelmirror/pkg/discord"
	"pixelmirror/pkg/mirror"
	"pixelmirror/pkg/raster"
)

const TokenEnv = "PIXELMIRROR_TOKEN"

type Config struct {
	Token     string            `yaml:"token"`
	OwnerID   uint64            `yaml:"owner_id"`
	Prefix    string            `yaml:"prefix"`
	Canvas    raster.Dimensions `yaml:"canvas"`
	Scale     int               `yaml:"scale"`
	StateFile string            `yaml:"state_file"`
	Listen    string            `yaml:"listen"`
	Timeout   time.Duration     `yaml:"timeout"`
	APIBase   string            `yaml:"api_base"`
	Debug     bool              `yaml:"debug"`
	DryRun    bool              `yaml:"dry_run"`
	// Mirror resumes an existing mirror message, overriding the state file.
	Mirror mirror.Identity `yaml:"mirror"`
}

func Default() *Config {
	return &Config{
		Prefix:    "pixels.",
		Scale:     mirror.DefaultScale,
		StateFile: "state.yaml",
		Listen:    "127.0.0.1:9123",
		Timeout:   15 * time.Second,
		APIBase:   discord.DefaultBaseURL,
	}
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *flag.FlagSet) {
	fs.StringP("config", "c", "", "config file")
	fs.String("token", "", "discord bot token (or $"+TokenEnv+")")
	fs.Uint64("owner", 0, "discord user id allowed to run owner commands")
	fs.String("listen", "", "canvas ingest listen addr")
	fs.String("state", "", "state file")
	fs.Uint("width", 0, "canvas width")
	fs.Uint("height", 0, "canvas height")
	fs.Int("scale", 0, "image upscale factor")
	fs.Bool("debug", false, "set debug")
	fs.Bool("dry-run", false, "log mirror writes instead of sending them")
}

// Load reads the config file named by the config flag, if any, then applies
// the environment and every flag that was set explicitly.
func Load(afs afero.Fs, fs *flag.FlagSet) (*Config, error) {
	c := Default()

	if path, _ := fs.GetString("config"); path != "" {
		bs, err := afero.ReadFile(afs, path)
		if err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
		if err := yaml.Unmarshal(bs, c); err != nil {
			return nil, fmt.Errorf("parse config %s failed: %w", path, err)
		}
	}

	if c.Token == "" {
		c.Token = os.Getenv(TokenEnv)
	}

	var err error
	set := func(name string, apply func()) {
		if err == nil && fs.Changed(name) {
			apply()
		}
	}
	set("token", func() { c.Token, err = fs.GetString("token") })
	set("owner", func() { c.OwnerID, err = fs.GetUint64("owner") })
	set("listen", func() { c.Listen, err = fs.GetString("listen") })
	set("state", func() { c.StateFile, err = fs.GetString("state") })
	set("width", func() { c.Canvas.Width, err = fs.GetUint("width") })
	set("height", func() { c.Canvas.Height, err = fs.GetUint("height") })
	set("scale", func() { c.Scale, err = fs.GetInt("scale") })
	set("debug", func() { c.Debug, err = fs.GetBool("debug") })
	set("dry-run", func() { c.DryRun, err = fs.GetBool("dry-run") })
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Validate() error {
	if c.Token == "" && !c.DryRun {
		return errors.New("token is required")
	}
	if c.Canvas.Width == 0 || c.Canvas.Height == 0 {
		return fmt.Errorf("%w: %s", raster.ErrInvalidDimensions, c.Canvas)
	}
	if c.Scale < 1 {
		return fmt.Errorf("%w: %d", raster.ErrInvalidScale, c.Scale)
	}
	if c.Prefix == "" {
		return errors.New("prefix is required")
	}
	return nil
}
