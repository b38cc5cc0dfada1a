package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/yourname/hardpoint-mm/internal/config"
)

var envKeys = []string{
	"HMM_CONFIG", "HMM_ADDR", "HMM_TICK_MS", "HMM_SPEED", "HMM_MAX_POOL_SIZE",
	"HMM_BAND_WIDTH", "HMM_REDIS_ADDR", "HMM_RATING_MIN", "HMM_AUTOSTART",
}

func clearEnv() {
	for _, k := range envKeys {
		_ = os.Unsetenv(k)
	}
}

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "hmm.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it mirrors the reference simulation", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.TickMS, convey.ShouldEqual, 2000)
			convey.So(cfg.Speed, convey.ShouldEqual, 1.0)
			convey.So(cfg.MaxPoolSize, convey.ShouldEqual, 100)
			convey.So(cfg.AdmitProbability, convey.ShouldEqual, 0.7)
			convey.So(cfg.BandWidth, convey.ShouldEqual, 100)
			convey.So(cfg.HistorySize, convey.ShouldEqual, 10)
			convey.So(cfg.RatingMin, convey.ShouldEqual, 1000)
			convey.So(cfg.RatingMax, convey.ShouldEqual, 2000)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearEnv()
		defer clearEnv()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx, "")

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.RedisAddr, convey.ShouldBeEmpty)
		})

		convey.Convey("When loading with environment variables", func() {
			_ = os.Setenv("HMM_ADDR", ":9090")
			_ = os.Setenv("HMM_TICK_MS", "500")
			_ = os.Setenv("HMM_SPEED", "2.5")
			_ = os.Setenv("HMM_AUTOSTART", "true")

			cfg, err := config.Load(ctx, "")

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.TickMS, convey.ShouldEqual, 500)
			convey.So(cfg.Speed, convey.ShouldEqual, 2.5)
			convey.So(cfg.Autostart, convey.ShouldBeTrue)
		})

		convey.Convey("When loading a YAML file with an env override", func() {
			path := writeConfig(t, "addr: \":7070\"\nmax_pool_size: 40\nband_width: 150\n")
			_ = os.Setenv("HMM_CONFIG", path)
			_ = os.Setenv("HMM_BAND_WIDTH", "80")

			cfg, err := config.Load(ctx, "")

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			convey.So(cfg.MaxPoolSize, convey.ShouldEqual, 40)
			convey.So(cfg.BandWidth, convey.ShouldEqual, 80)
			convey.So(cfg.HistorySize, convey.ShouldEqual, 10)
		})

		convey.Convey("When the path argument is given", func() {
			path := writeConfig(t, "redis_addr: localhost:6379\n")

			cfg, err := config.Load(ctx, path)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
		})

		convey.Convey("When the file does not exist", func() {
			cfg, err := config.Load(ctx, "/non/existent/hmm.yaml")

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the YAML is malformed", func() {
			path := writeConfig(t, "invalid: yaml: content: [")

			cfg, err := config.Load(ctx, path)

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When a numeric env var is not numeric", func() {
			_ = os.Setenv("HMM_TICK_MS", "soon")

			cfg, err := config.Load(ctx, "")

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the speed would leave the period range", func() {
			for _, speed := range []string{"1e10", "2001", "0.0001", "0", "-1", "NaN", "+Inf"} {
				_ = os.Setenv("HMM_SPEED", speed)

				cfg, err := config.Load(ctx, "")

				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "speed")
			}

			_ = os.Setenv("HMM_SPEED", "2000")
			cfg, err := config.Load(ctx, "")
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Speed, convey.ShouldEqual, 2000.0)
		})

		convey.Convey("When validation fails", func() {
			_ = os.Setenv("HMM_RATING_MIN", "3000")

			cfg, err := config.Load(ctx, "")

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "rating_min")
		})

		convey.Convey("When addr is emptied", func() {
			_ = os.Setenv("HMM_ADDR", "")

			cfg, err := config.Load(ctx, "")

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
		})
	})
}
