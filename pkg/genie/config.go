package genie

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is everything needed to bring up a display link
type Config struct {
	Link     string
	Baud     int
	HTTP     string
	LogLevel string
	Options  Options
	Widgets  WidgetList
}

type fileWidget struct {
	Name        string  `toml:"name"`
	Description string  `toml:"description"`
	Type        string  `toml:"type"`
	Object      *int    `toml:"object"`
	Index       int     `toml:"index"`
	Factor      float64 `toml:"factor"`
	Offset      float64 `toml:"offset"`
	Min         float64 `toml:"min"`
	Max         float64 `toml:"max"`
	Unit        string  `toml:"unit"`
}

type fileConfig struct {
	Link         string       `toml:"link"`
	Baud         int          `toml:"baud"`
	HTTP         string       `toml:"http"`
	LogLevel     string       `toml:"log_level"`
	ReadTimeout  string       `toml:"read_timeout"`
	WriteTimeout string       `toml:"write_timeout"`
	PollInterval string       `toml:"poll_interval"`
	ByteTimeout  string       `toml:"byte_timeout"`
	SyncAttempts int          `toml:"sync_attempts"`
	Realtime     bool         `toml:"realtime"`
	Widgets      []fileWidget `toml:"widget"`
}

// DefaultConfig returns the configuration used for keys missing from a file
func DefaultConfig() Config {
	return Config{
		Link:     "/dev/ttyAMA0",
		Baud:     115200,
		LogLevel: "info",
		Options:  DefaultOptions(),
		Widgets:  make(WidgetList),
	}
}

// LoadConfig reads a TOML config file
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load genie config: %w", err)
	}
	return ParseConfig(string(b))
}

// ParseConfig decodes TOML config data on top of DefaultConfig
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("decode genie config: %w", err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("decode genie config: unknown key %q", undec[0].String())
	}

	if meta.IsDefined("link") {
		cfg.Link = strings.TrimSpace(raw.Link)
	}
	if meta.IsDefined("baud") {
		if !baudRates[raw.Baud] {
			return Config{}, fmt.Errorf("parse baud %d: %w", raw.Baud, ErrBaudRate)
		}
		cfg.Baud = raw.Baud
	}
	if meta.IsDefined("http") {
		cfg.HTTP = strings.TrimSpace(raw.HTTP)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"read_timeout", raw.ReadTimeout, &cfg.Options.ReadTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.Options.WriteTimeout},
		{"poll_interval", raw.PollInterval, &cfg.Options.PollInterval},
		{"byte_timeout", raw.ByteTimeout, &cfg.Options.ByteTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		if v <= 0 {
			return Config{}, fmt.Errorf("parse %s: must be positive", d.key)
		}
		*d.dst = v
	}

	if meta.IsDefined("sync_attempts") {
		cfg.Options.SyncAttempts = raw.SyncAttempts
	}
	if meta.IsDefined("realtime") {
		cfg.Options.RealtimePriority = raw.Realtime
	}

	for i, fw := range raw.Widgets {
		w, err := fw.widget()
		if err != nil {
			return Config{}, fmt.Errorf("widget %d: %w", i, err)
		}
		if _, dup := cfg.Widgets[w.Name]; dup {
			return Config{}, fmt.Errorf("widget %d: duplicate name %q", i, w.Name)
		}
		cfg.Widgets[w.Name] = w
	}
	return cfg, nil
}

func (fw fileWidget) widget() (*Widget, error) {
	name := strings.TrimSpace(fw.Name)
	if name == "" {
		return nil, fmt.Errorf("missing name")
	}
	if fw.Index < 0 || fw.Index > 255 {
		return nil, fmt.Errorf("%s: index %d out of range", name, fw.Index)
	}

	var obj ObjectType
	switch {
	case fw.Object != nil:
		if *fw.Object < 0 || *fw.Object > 255 {
			return nil, fmt.Errorf("%s: object %d out of range", name, *fw.Object)
		}
		obj = ObjectType(*fw.Object)
	case fw.Type != "":
		t, ok := ObjectTypes[strings.ToLower(strings.TrimSpace(fw.Type))]
		if !ok {
			return nil, fmt.Errorf("%s: unknown object type %q", name, fw.Type)
		}
		obj = t
	default:
		return nil, fmt.Errorf("%s: needs type or object", name)
	}

	return &Widget{
		Name:        name,
		Description: fw.Description,
		Object:      obj,
		Index:       byte(fw.Index),
		Factor:      fw.Factor,
		Offset:      fw.Offset,
		LowerBorder: fw.Min,
		UpperBorder: fw.Max,
		Unit:        fw.Unit,
	}, nil
}
