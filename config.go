package ledfan

import (
	"encoding"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
	"libdb.so/ledfan/anim"
	"libdb.so/ledfan/board"
	"libdb.so/ledfan/internal/ledconn"
	"libdb.so/ledfan/led"
)

// Config is the configuration for the ledfan daemon.
type Config struct {
	// Device is the path to the serial device of the controller.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0.
	Device string `toml:"device" yaml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud" yaml:"baud"`
	// MQTT streams frames to a broker instead of a serial device.
	MQTT *MQTTConfig `toml:"mqtt,omitempty" yaml:"mqtt,omitempty"`
	// Rate is the refresh rate for the LEDs in frames per second. Animations
	// with their own loop delay ignore it.
	Rate int `toml:"rate" yaml:"rate"`
	// Blending is the palette blending shared by all palette animations,
	// either "none" or "linear".
	Blending string `toml:"blending" yaml:"blending"`
	// ColorOrder is the channel order the strip expects, such as "GBR".
	// It defaults to the board's wiring.
	ColorOrder string `toml:"color_order" yaml:"color_order"`
	// StartupDelay is how long to wait for the controller before sending the
	// first packet.
	StartupDelay Duration `toml:"startup_delay" yaml:"startup_delay"`
	// AckTimeout is how long to wait for a frame to be acknowledged before
	// sending the next one anyway.
	AckTimeout Duration `toml:"ack_timeout" yaml:"ack_timeout"`
	// Modes are the animation modes cycled by the button, at most
	// board.NumModes. Missing modes are filled with the default sine wave,
	// rainbow and ripple.
	Modes []ModeConfig `toml:"mode" yaml:"modes"`
}

// Default configuration values.
const (
	DefaultBaud         = 115200
	DefaultRate         = 50
	DefaultStartupDelay = 100 * time.Millisecond
	DefaultAckTimeout   = time.Second
)

// MQTTConfig is the configuration for streaming frames over MQTT.
type MQTTConfig struct {
	URL         string `toml:"url" yaml:"url"`
	Username    string `toml:"username" yaml:"username"`
	Password    string `toml:"password" yaml:"password"`
	ClientID    string `toml:"client_id" yaml:"client_id"`
	QoS         int    `toml:"qos" yaml:"qos"`
	StreamTopic string `toml:"stream_topic" yaml:"stream_topic"`
	ButtonTopic string `toml:"button_topic" yaml:"button_topic"`
}

// ModeConfig is the configuration for one animation mode.
type ModeConfig struct {
	// Only one of the following fields should be set.

	Sine    *SineWaveConfig   `toml:"sine,omitempty" yaml:"sine,omitempty"`
	Rainbow *RainbowConfig    `toml:"rainbow,omitempty" yaml:"rainbow,omitempty"`
	Ripple  *RippleConfig     `toml:"ripple,omitempty" yaml:"ripple,omitempty"`
	Solid   *SolidColorConfig `toml:"solid,omitempty" yaml:"solid,omitempty"`
}

// SineWaveConfig overrides fields of the default sine wave. Unset fields keep
// their default; out of range values are clamped.
type SineWaveConfig struct {
	Phase                *int  `toml:"phase" yaml:"phase"`
	LoopDelay            *int  `toml:"loop_delay" yaml:"loop_delay"`
	Brightness           *int  `toml:"brightness" yaml:"brightness"`
	Hue                  *int  `toml:"hue" yaml:"hue"`
	Rotation             *int  `toml:"rotation" yaml:"rotation"`
	Saturation           *int  `toml:"saturation" yaml:"saturation"`
	Frequency            *int  `toml:"frequency" yaml:"frequency"`
	Cutoff               *int  `toml:"cutoff" yaml:"cutoff"`
	BackgroundHue        *int  `toml:"bg_hue" yaml:"bg_hue"`
	BackgroundBrightness *int  `toml:"bg_brightness" yaml:"bg_brightness"`
	Velocity             *int  `toml:"velocity" yaml:"velocity"`
	Backwards            *bool `toml:"backwards" yaml:"backwards"`
}

// RainbowConfig overrides fields of the default rainbow.
type RainbowConfig struct {
	// Palette is the name of a built-in palette.
	Palette string `toml:"palette" yaml:"palette"`
	// Colors is a custom palette of exactly 16 #rrggbb colors. It takes
	// precedence over Palette.
	Colors     []string `toml:"colors" yaml:"colors"`
	Brightness *int     `toml:"brightness" yaml:"brightness"`
	Steps      *int     `toml:"steps" yaml:"steps"`
	Velocity   *int     `toml:"velocity" yaml:"velocity"`
}

// RippleConfig overrides fields of the default ripple.
type RippleConfig struct {
	// Center pins the first ripple to a pixel. Later ripples pick a random
	// center.
	Center                  *int `toml:"center" yaml:"center"`
	Hue                     *int `toml:"hue" yaml:"hue"`
	Saturation              *int `toml:"saturation" yaml:"saturation"`
	BackgroundColorRotation *int `toml:"bg_color_rotation" yaml:"bg_color_rotation"`
	Brightness              *int `toml:"brightness" yaml:"brightness"`
	Velocity                *int `toml:"velocity" yaml:"velocity"`
	MaxSteps                *int `toml:"max_steps" yaml:"max_steps"`
}

// SolidColorConfig overrides fields of the default solid color.
type SolidColorConfig struct {
	Hue        *int `toml:"hue" yaml:"hue"`
	Saturation *int `toml:"saturation" yaml:"saturation"`
	Brightness *int `toml:"brightness" yaml:"brightness"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch {
	case c.Device == "" && c.MQTT == nil:
		return errors.New("no device or mqtt broker configured")
	case c.Device != "" && c.MQTT != nil:
		return errors.New("only one of device and mqtt may be configured")
	}

	if c.MQTT != nil {
		if c.MQTT.URL == "" {
			return errors.New("mqtt: missing url")
		}
		if c.MQTT.StreamTopic == "" {
			return errors.New("mqtt: missing stream_topic")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt: invalid qos %d", c.MQTT.QoS)
		}
	}

	if c.Baud < 0 {
		return fmt.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.Rate < 0 {
		return fmt.Errorf("invalid refresh rate %d", c.Rate)
	}
	if c.StartupDelay < 0 || c.AckTimeout < 0 {
		return errors.New("delays must not be negative")
	}

	if _, err := c.blending(); err != nil {
		return err
	}
	if _, err := c.colorOrder(); err != nil {
		return err
	}

	if len(c.Modes) > board.NumModes {
		return fmt.Errorf("%d modes configured, at most %d are supported", len(c.Modes), board.NumModes)
	}

	for i, mode := range c.Modes {
		if err := mode.validate(); err != nil {
			return errors.Wrapf(err, "mode %d", i)
		}
	}

	return nil
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}
	if cfg.Rate == 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.StartupDelay == 0 {
		cfg.StartupDelay = Duration(DefaultStartupDelay)
	}
	if cfg.AckTimeout == 0 {
		cfg.AckTimeout = Duration(DefaultAckTimeout)
	}
	return cfg
}

func (c *Config) colorOrder() (led.ColorOrder, error) {
	if c.ColorOrder == "" {
		return board.ColorOrder, nil
	}
	return led.ParseColorOrder(c.ColorOrder)
}

func (c *Config) blending() (led.BlendType, error) {
	blend := led.LinearBlend
	if c.Blending == "" {
		return blend, nil
	}
	if err := blend.UnmarshalText([]byte(c.Blending)); err != nil {
		return 0, err
	}
	return blend, nil
}

// BuildModes builds the animation modes. Slots not configured get the default
// sine wave, rainbow and ripple, in that order.
func (c *Config) BuildModes() ([board.NumModes]Mode, error) {
	modes := DefaultModes()
	for i, mode := range c.Modes {
		if i >= len(modes) {
			return modes, fmt.Errorf("%d modes configured, at most %d are supported", len(c.Modes), board.NumModes)
		}
		m, err := mode.build()
		if err != nil {
			return modes, errors.Wrapf(err, "mode %d", i)
		}
		modes[i] = m
	}
	return modes, nil
}

func (c *Config) connConfig() ledconn.MQTTConfig {
	return ledconn.MQTTConfig{
		URL:         c.MQTT.URL,
		Username:    c.MQTT.Username,
		Password:    c.MQTT.Password,
		ClientID:    c.MQTT.ClientID,
		QoS:         byte(c.MQTT.QoS),
		StreamTopic: c.MQTT.StreamTopic,
		ButtonTopic: c.MQTT.ButtonTopic,
	}
}

func (m ModeConfig) validate() error {
	var n int
	for _, set := range []bool{m.Sine != nil, m.Rainbow != nil, m.Ripple != nil, m.Solid != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("exactly one of sine, rainbow, ripple or solid must be set, got %d", n)
	}

	if m.Rainbow != nil {
		if _, err := m.Rainbow.palette(); err != nil {
			return err
		}
	}

	return nil
}

func (m ModeConfig) build() (Mode, error) {
	if err := m.validate(); err != nil {
		return Mode{}, err
	}

	switch {
	case m.Sine != nil:
		return SineMode(m.Sine.build()), nil
	case m.Rainbow != nil:
		r, err := m.Rainbow.build()
		if err != nil {
			return Mode{}, err
		}
		return RainbowMode(r), nil
	case m.Ripple != nil:
		return RippleMode(m.Ripple.build()), nil
	default:
		return SolidMode(m.Solid.build()), nil
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setClamped(v *int, set func(int)) {
	if v != nil {
		set(*v)
	}
}

func (c *SineWaveConfig) build() anim.SineWave {
	s := anim.DefaultSineWave()
	setInt(&s.Phase, c.Phase)
	setInt(&s.LoopDelay, c.LoopDelay)
	setClamped(c.Brightness, s.SetBrightness)
	setClamped(c.Hue, s.SetHue)
	setClamped(c.Rotation, s.SetRotation)
	setClamped(c.Saturation, s.SetSaturation)
	setClamped(c.Frequency, s.SetFrequency)
	setClamped(c.Cutoff, s.SetCutoff)
	setClamped(c.BackgroundHue, func(v int) { s.BackgroundHue = anim.Clamp8(v) })
	setClamped(c.BackgroundBrightness, func(v int) { s.BackgroundBrightness = anim.Clamp8(v) })
	setClamped(c.Velocity, s.SetVelocity)
	if c.Backwards != nil {
		s.Backwards = *c.Backwards
	}
	return s
}

func (c *RainbowConfig) palette() (led.Palette16, error) {
	if len(c.Colors) > 0 {
		var p led.Palette16
		if len(c.Colors) != len(p) {
			return p, fmt.Errorf("palette needs exactly %d colors, got %d", len(p), len(c.Colors))
		}
		for i, text := range c.Colors {
			if err := p[i].UnmarshalText([]byte(text)); err != nil {
				return p, errors.Wrapf(err, "palette color %d", i)
			}
		}
		return p, nil
	}

	if c.Palette == "" {
		return led.RainbowPalette, nil
	}

	p, ok := led.LookupPalette(c.Palette)
	if !ok {
		return p, fmt.Errorf("unknown palette %q, known palettes: %v", c.Palette, led.PaletteNames())
	}
	return p, nil
}

func (c *RainbowConfig) build() (anim.Rainbow, error) {
	r := anim.DefaultRainbow()

	p, err := c.palette()
	if err != nil {
		return r, err
	}
	r.Palette = p

	setClamped(c.Brightness, r.SetBrightness)
	setClamped(c.Steps, r.SetSteps)
	setClamped(c.Velocity, r.SetVelocity)
	return r, nil
}

func (c *RippleConfig) build() anim.Ripple {
	r := anim.DefaultRipple()
	if c.Center != nil {
		r.Center = anim.Some(*c.Center)
	}
	setClamped(c.Hue, r.SetHue)
	setClamped(c.Saturation, r.SetSaturation)
	setClamped(c.BackgroundColorRotation, r.SetBackgroundColorRotation)
	setClamped(c.Brightness, r.SetBrightness)
	setClamped(c.Velocity, r.SetVelocity)
	setClamped(c.MaxSteps, r.SetMaxSteps)
	return r
}

func (c *SolidColorConfig) build() anim.SolidColor {
	s := anim.DefaultSolidColor()
	setClamped(c.Hue, s.SetHue)
	setClamped(c.Saturation, s.SetSaturation)
	setClamped(c.Brightness, s.SetBrightness)
	return s
}

// Duration is a duration that can be parsed from TOML and YAML.
type Duration time.Duration

var (
	_ encoding.TextUnmarshaler = (*Duration)(nil)
	_ encoding.TextMarshaler   = (*Duration)(nil)
	_ yaml.Unmarshaler         = (*Duration)(nil)
)

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var text string
	if err := unmarshal(&text); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(text))
}

// ParseConfig parses a TOML configuration from a reader.
func ParseConfig(r io.Reader) (*Config, error) {
	var config Config
	if err := toml.NewDecoder(r).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ParseYAMLConfig parses a YAML configuration from a reader.
func ParseYAMLConfig(r io.Reader) (*Config, error) {
	var config Config
	if err := yaml.NewDecoder(r).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadConfig reads the configuration file at path. Files ending in .yaml or
// .yml are parsed as YAML, everything else as TOML.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return ParseYAMLConfig(f)
	default:
		return ParseConfig(f)
	}
}
