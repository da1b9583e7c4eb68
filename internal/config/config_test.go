package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/tubecontrol/internal/config"
	"github.com/ayusman/tubecontrol/internal/gesture"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then the timing matches the stock command policy", func() {
			convey.So(cfg.Cooldown(), convey.ShouldEqual, 1800*time.Millisecond)
			convey.So(cfg.Dwell(), convey.ShouldEqual, 650*time.Millisecond)
			convey.So(cfg.VolumeDiscount, convey.ShouldEqual, 0.75)
			convey.So(cfg.VolumeStep, convey.ShouldEqual, 10)
			convey.So(cfg.FPS, convey.ShouldEqual, 30)
		})

		convey.Convey("And it validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("And the stock bindings are used", func() {
			b, err := cfg.BindingsTable()
			convey.So(err, convey.ShouldBeNil)
			convey.So(b.Len(), convey.ShouldEqual, gesture.DefaultBindings().Len())
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"empty addr", func(c *config.Config) { c.Addr = "" }},
		{"zero fps", func(c *config.Config) { c.FPS = 0 }},
		{"negative cooldown", func(c *config.Config) { c.CooldownMS = -1 }},
		{"discount above one", func(c *config.Config) { c.VolumeDiscount = 1.5 }},
		{"negative dwell", func(c *config.Config) { c.DwellMS = -5 }},
		{"zero volume step", func(c *config.Config) { c.VolumeStep = 0 }},
		{"confidence above one", func(c *config.Config) { c.MinGestureConfidence = 2 }},
		{"negative margin", func(c *config.Config) { c.CalibrationMargin = -0.1 }},
		{"unknown player", func(c *config.Config) { c.Player = "vlc" }},
		{"zero plugin timeout", func(c *config.Config) { c.PluginTimeoutMS = 0 }},
		{"unknown binding action", func(c *config.Config) { c.Bindings = map[string]string{"Wave": "playVideoControl"} }},
		{"unknown binding operation", func(c *config.Config) { c.Bindings = map[string]string{"PlayVideo": "rewind"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
