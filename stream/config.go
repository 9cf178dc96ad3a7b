package stream

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/matt-g-everett/ledrace/race"
	"gopkg.in/yaml.v2"
)

type MqttConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"clientId"`
	Qos      byte   `yaml:"qos"`
	Topics   struct {
		Stream string `yaml:"stream"`
		Labels string `yaml:"labels"`
	} `yaml:"topics"`
}

type RaceConfig struct {
	PlaybackSpeed float64       `yaml:"playbackSpeed"`
	FrameRate     int           `yaml:"frameRate"`
	Labels        bool          `yaml:"labels"`
	Mode          string        `yaml:"mode"`
	Entities      []race.Entity `yaml:"entities"`
}

type StripConfig struct {
	Pixels            int   `yaml:"pixels"`
	Glow              int   `yaml:"glow"`
	FadeInFrames      int   `yaml:"fadeInFrames"`
	BackdropParticles int   `yaml:"backdropParticles"`
	Seed              int64 `yaml:"seed"`
}

type ApiConfig struct {
	Addr   string `yaml:"addr"`
	Static string `yaml:"static"`
}

type Config struct {
	Mqtt  MqttConfig  `yaml:"mqtt"`
	Race  RaceConfig  `yaml:"race"`
	Strip StripConfig `yaml:"strip"`
	Api   ApiConfig   `yaml:"api"`
}

// SampleEntities is the time each language took to run a billion loops.
func SampleEntities() []race.Entity {
	return []race.Entity{
		{Name: "C", Duration: 0.5},
		{Name: "Rust", Duration: 0.5},
		{Name: "Java", Duration: 0.54},
		{Name: "Kotlin", Duration: 0.56},
		{Name: "Go", Duration: 0.8},
		{Name: "Bun", Duration: 0.8},
		{Name: "Node", Duration: 1.03},
		{Name: "Deno", Duration: 1.06},
		{Name: "Dart", Duration: 1.34},
		{Name: "PyPy", Duration: 1.53},
		{Name: "PHP", Duration: 9.93},
		{Name: "Ruby", Duration: 28.8},
		{Name: "R", Duration: 73.16},
		{Name: "Python", Duration: 74.42},
	}
}

// DefaultConfig is used for anything the config file leaves out.
func DefaultConfig() Config {
	var c Config
	c.Mqtt.URL = "tcp://localhost:1883"
	c.Mqtt.ClientID = "ledrace"
	c.Mqtt.Qos = 2
	c.Mqtt.Topics.Stream = "home/xmastree/stream"
	c.Mqtt.Topics.Labels = "home/xmastree/labels"

	c.Race.PlaybackSpeed = race.DefaultPlaybackSpeed
	c.Race.FrameRate = race.DefaultFrameRate

	c.Strip.Pixels = DefaultPixels
	c.Strip.Glow = 3
	c.Strip.FadeInFrames = 30
	c.Strip.BackdropParticles = 40
	c.Strip.Seed = 1

	c.Api.Addr = ":3000"
	c.Api.Static = "client/dist"
	return c
}

// LoadEnv reads variables from a .env file, if there is one.
func LoadEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// LoadConfig reads a YAML config on top of DefaultConfig, then applies the
// LEDRACE_MQTT_* environment variables. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return c, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		// An empty file decodes to io.EOF and leaves the defaults alone.
		if err := decoder.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
			return c, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LEDRACE_MQTT_URL"); v != "" {
		c.Mqtt.URL = v
	}
	if v := os.Getenv("LEDRACE_MQTT_USERNAME"); v != "" {
		c.Mqtt.Username = v
	}
	if v := os.Getenv("LEDRACE_MQTT_PASSWORD"); v != "" {
		c.Mqtt.Password = v
	}
}

// Entities returns the configured racers, or the sample languages when none
// are configured.
func (c Config) Entities() []race.Entity {
	if len(c.Race.Entities) == 0 {
		return SampleEntities()
	}
	return c.Race.Entities
}

// Settings converts the race section into planner settings.
func (c Config) Settings() (race.Settings, error) {
	mode, err := race.ParseMode(c.Race.Mode)
	if err != nil {
		return race.Settings{}, err
	}

	settings := race.DefaultSettings()
	settings.PlaybackSpeed = c.Race.PlaybackSpeed
	settings.FrameRate = c.Race.FrameRate
	settings.Mode = mode
	return settings, nil
}

// Plan validates the race section and plans the race.
func (c Config) Plan() (*race.Plan, error) {
	settings, err := c.Settings()
	if err != nil {
		return nil, err
	}
	return race.PlanWith(c.Entities(), settings)
}
