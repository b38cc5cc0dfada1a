// Package config defines service configuration and its layered loader.
package config

import "fmt"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RedisAddr enables the Redis event publisher when non-empty.
	RedisAddr       string `koanf:"redis_addr"`
	RedisPassword   string `koanf:"redis_password"`
	RedisChannel    string `koanf:"redis_channel"`
	RedisHistoryKey string `koanf:"redis_history_key"`

	// TickMS is the loop period at speed 1.0.
	TickMS int `koanf:"tick_ms"`
	// Speed divides the period; 2.0 runs cycles twice as often.
	Speed     float64 `koanf:"speed"`
	Autostart bool    `koanf:"autostart"`

	MaxPoolSize      int     `koanf:"max_pool_size"`
	AdmitProbability float64 `koanf:"admit_probability"`
	BandWidth        int     `koanf:"band_width"`
	HistorySize      int     `koanf:"history_size"`
	// RetainMatched bounds how many matched records stay listed.
	RetainMatched    int     `koanf:"retain_matched"`

	RatingMin    int     `koanf:"rating_min"`
	RatingMax    int     `koanf:"rating_max"`
	RatingMean   float64 `koanf:"rating_mean"`
	RatingStdDev float64 `koanf:"rating_stddev"`
	PingMin      int     `koanf:"ping_min"`
	PingMax      int     `koanf:"ping_max"`

	// Seed fixes the synthetic generator; 0 seeds from the clock.
	Seed int64 `koanf:"seed"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":8080",
		RedisChannel:     "mm:events",
		RedisHistoryKey:  "mm:matches",
		TickMS:           2000,
		Speed:            1.0,
		MaxPoolSize:      100,
		AdmitProbability: 0.7,
		BandWidth:        100,
		HistorySize:      10,
		RetainMatched:    100,
		RatingMin:        1000,
		RatingMax:        2000,
		RatingMean:       1500,
		RatingStdDev:     150,
		PingMin:          15,
		PingMax:          80,
	}
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TickMS <= 0:
		return fmt.Errorf("%w: tick_ms must be positive", ErrInvalidConfig)
	case !(c.Speed >= 0.001) || float64(c.TickMS)/c.Speed < 1:
		// The period tick_ms/speed must stay at or above 1ms.
		return fmt.Errorf("%w: speed must be within [0.001, tick_ms]", ErrInvalidConfig)
	case c.MaxPoolSize <= 0:
		return fmt.Errorf("%w: max_pool_size must be positive", ErrInvalidConfig)
	case c.HistorySize <= 0:
		return fmt.Errorf("%w: history_size must be positive", ErrInvalidConfig)
	case c.AdmitProbability < 0 || c.AdmitProbability > 1:
		return fmt.Errorf("%w: admit_probability must be within [0,1]", ErrInvalidConfig)
	case c.RetainMatched < 0:
		return fmt.Errorf("%w: retain_matched must not be negative", ErrInvalidConfig)
	case c.BandWidth < 0:
		return fmt.Errorf("%w: band_width must not be negative", ErrInvalidConfig)
	case c.RatingMin >= c.RatingMax:
		return fmt.Errorf("%w: rating_min must be below rating_max", ErrInvalidConfig)
	case c.PingMin < 0 || c.PingMin > c.PingMax:
		return fmt.Errorf("%w: ping range is invalid", ErrInvalidConfig)
	}
	return nil
}
