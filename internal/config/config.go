// Package config loads the demo command's settings via Viper: built-in
// defaults, an optional config file, then TERMPROGRESS_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sigman78/termprogress/internal/progress"
)

// Styles accepted by Config.Style.
const (
	StyleRuler = "ruler"
	StyleBar   = "bar"
)

// Config captures every knob of a demo run.
type Config struct {
	Items        int     `mapstructure:"items"`
	Step         int64   `mapstructure:"step"`
	Total        int64   `mapstructure:"total"` // 0 means Items*Step
	Threads      int     `mapstructure:"threads"`
	Rate         float64 `mapstructure:"rate"` // items per second, 0 = unlimited
	MessageEvery int     `mapstructure:"message_every"`
	ItemCostMs   int     `mapstructure:"item_cost_ms"`
	Style        string  `mapstructure:"style"`
	Overflow     string  `mapstructure:"overflow"`
	Filler       string  `mapstructure:"filler"`
	Force        bool    `mapstructure:"force"`
	Debug        bool    `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("items", 400)
	v.SetDefault("step", 1)
	v.SetDefault("total", 0)
	v.SetDefault("threads", 3)
	v.SetDefault("rate", 200)
	v.SetDefault("message_every", 100)
	v.SetDefault("item_cost_ms", 5)
	v.SetDefault("style", StyleRuler)
	v.SetDefault("overflow", "clamp")
	v.SetDefault("filler", progress.DefaultFiller)
	v.SetDefault("force", false)
	v.SetDefault("debug", false)
}

// Load reads configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TERMPROGRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// EffectiveTotal is the tracker total: Total when set, otherwise the sum
// of all steps.
func (c *Config) EffectiveTotal() int64 {
	if c.Total > 0 {
		return c.Total
	}
	return int64(c.Items) * c.Step
}

// ItemCost returns the simulated duration of one work item.
func (c *Config) ItemCost() time.Duration {
	return time.Duration(c.ItemCostMs) * time.Millisecond
}

// OverflowPolicy parses Overflow.
func (c *Config) OverflowPolicy() (progress.OverflowPolicy, error) {
	return progress.ParseOverflow(c.Overflow)
}

// Validate reports every invalid setting at once. It also lower-cases
// Style and fills in an empty Filler.
func (c *Config) Validate() error {
	var errs []error
	if c.Items <= 0 {
		errs = append(errs, errors.New("items must be greater than 0"))
	}
	if c.Step < 0 {
		errs = append(errs, errors.New("step must not be negative"))
	}
	if c.Total < 0 {
		errs = append(errs, errors.New("total must not be negative"))
	}
	if c.Threads <= 0 {
		errs = append(errs, errors.New("threads must be greater than 0"))
	}
	if c.Rate < 0 {
		errs = append(errs, errors.New("rate must not be negative"))
	}
	if c.MessageEvery < 0 {
		errs = append(errs, errors.New("message-every must not be negative"))
	}
	if c.ItemCostMs < 0 {
		errs = append(errs, errors.New("item-cost must not be negative"))
	}
	if c.Filler == "" {
		c.Filler = progress.DefaultFiller
	}
	c.Style = strings.ToLower(c.Style)
	if c.Style != StyleRuler && c.Style != StyleBar {
		errs = append(errs, fmt.Errorf("style must be %q or %q", StyleRuler, StyleBar))
	}
	if _, err := c.OverflowPolicy(); err != nil {
		errs = append(errs, err)
	}
	if c.Style == StyleRuler && c.EffectiveTotal() == 0 {
		errs = append(errs, fmt.Errorf("ruler: %w", progress.ErrInvalidTotal))
	}
	return errors.Join(errs...)
}
