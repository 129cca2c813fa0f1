package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trim21/errgo"
)

const EnvPrefix = "PIPEMETER"

const (
	keyTimeInterval = "time-interval"
	keyBlockSize    = "block-size"
	keyForward      = "forward-stdin"
	keyQuiet        = "quiet"
	keyLogLevel     = "log-level"
)

type Meter struct {
	// seconds between two periodic reports
	TimeInterval float64 `toml:"time_interval"`
	BlockSize    int     `toml:"block_size"`
	Forward      bool    `toml:"forward_stdin"`
	Quiet        bool    `toml:"quiet"`
}

type Log struct {
	Level string `toml:"level"`
}

type Config struct {
	Log   Log   `toml:"log"`
	Meter Meter `toml:"meter"`
}

// largest interval in seconds that still fits in a time.Duration
var maxTimeInterval = float64(math.MaxInt64/int64(time.Millisecond)) / 1000

func Default() Config {
	return Config{
		Meter: Meter{TimeInterval: 1, BlockSize: 4 * units.KiB},
		Log:   Log{Level: zerolog.LevelWarnValue},
	}
}

// Interval converts TimeInterval to a duration, truncated to milliseconds.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Meter.TimeInterval*1000) * time.Millisecond
}

func (c Config) Validate() error {
	if math.IsNaN(c.Meter.TimeInterval) || math.IsInf(c.Meter.TimeInterval, 0) || c.Meter.TimeInterval < 0 {
		return fmt.Errorf("invalid time interval %v, must be a non-negative number of seconds", c.Meter.TimeInterval)
	}

	if c.Meter.TimeInterval > maxTimeInterval {
		return fmt.Errorf("invalid time interval %v, must not exceed %v seconds", c.Meter.TimeInterval, maxTimeInterval)
	}

	if c.Meter.BlockSize <= 0 {
		return fmt.Errorf("invalid block size %d, must be positive", c.Meter.BlockSize)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return errgo.Wrap(err, "invalid log level")
	}

	return nil
}

// LoadFromFile reads a TOML config file on top of Default.
// An empty path returns Default.
func LoadFromFile(path string) (Config, error) {
	var cfg = Default()

	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, errgo.Wrap(err, fmt.Sprintf("config file %s not found", path))
		}

		return cfg, errgo.Wrap(err, "failed to parse config file")
	}

	return cfg, nil
}

// RegisterFlags adds the meter flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.BoolP(keyForward, "f", d.Meter.Forward, "Forward stdin to stdout")
	fs.Float64P(keyTimeInterval, "t", d.Meter.TimeInterval, "Time interval in seconds to print speed")
	fs.StringP(keyBlockSize, "b", strconv.Itoa(d.Meter.BlockSize), "Number of bytes to read from stdin at once in the read loop (accepts units, e.g. 64k, 1MiB)")
	fs.BoolP(keyQuiet, "q", d.Meter.Quiet, "Do not print any intermediate stats")
	fs.String(keyLogLevel, d.Log.Level, "log level (trace, debug, info, warn, error)")
}

// Resolve overlays environment variables and changed flags on base.
// Flags take precedence over environment, environment over base.
func Resolve(base Config, fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyTimeInterval, base.Meter.TimeInterval)
	v.SetDefault(keyBlockSize, strconv.Itoa(base.Meter.BlockSize))
	v.SetDefault(keyForward, base.Meter.Forward)
	v.SetDefault(keyQuiet, base.Meter.Quiet)
	v.SetDefault(keyLogLevel, base.Log.Level)

	lo.Must0(v.BindPFlags(fs))

	cfg := base
	cfg.Meter.TimeInterval = v.GetFloat64(keyTimeInterval)
	cfg.Meter.Forward = v.GetBool(keyForward)
	cfg.Meter.Quiet = v.GetBool(keyQuiet)
	cfg.Log.Level = strings.ToLower(v.GetString(keyLogLevel))

	blockSize, err := ParseBlockSize(v.GetString(keyBlockSize))
	if err != nil {
		return cfg, err
	}
	cfg.Meter.BlockSize = blockSize

	return cfg, cfg.Validate()
}

// Load reads the config file at path (optional) and applies env and flags.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	cfg, err := LoadFromFile(path)
	if err != nil {
		return cfg, err
	}

	return Resolve(cfg, fs)
}

// ParseBlockSize accepts a plain byte count or a size with a binary unit.
func ParseBlockSize(s string) (int, error) {
	n, err := units.RAMInBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, errgo.Wrap(err, fmt.Sprintf("invalid block size %q", s))
	}

	if n <= 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("invalid block size %q, must be between 1 and %d bytes", s, math.MaxInt32)
	}

	return int(n), nil
}
