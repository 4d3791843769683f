// Package config exposes the viper configuration to plugins as
// plugin.Config, one section per plugin.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/HerbHall/startpage/pkg/plugin"
)

var _ plugin.Config = (*ViperConfig)(nil)

// ViperConfig reads keys under an optional section prefix of a shared
// viper instance. Reads go through the parent, so SP_ environment overrides
// apply inside sections too (SP_WEBHOOK_URL reaches webhook.url).
type ViperConfig struct {
	v      *viper.Viper
	prefix string
}

// New wraps v. A nil v yields an empty config.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{v: v}
}

// Sub scopes the config to a section such as "backgrounds".
func (c *ViperConfig) Sub(section string) plugin.Config {
	return &ViperConfig{v: c.v, prefix: c.prefix + strings.ToLower(section) + "."}
}

func (c *ViperConfig) key(k string) string { return c.prefix + k }

func (c *ViperConfig) Get(key string) any                   { return c.v.Get(c.key(key)) }
func (c *ViperConfig) GetString(key string) string          { return c.v.GetString(c.key(key)) }
func (c *ViperConfig) GetInt(key string) int                { return c.v.GetInt(c.key(key)) }
func (c *ViperConfig) GetBool(key string) bool              { return c.v.GetBool(c.key(key)) }
func (c *ViperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(c.key(key)) }
func (c *ViperConfig) IsSet(key string) bool                { return c.v.IsSet(c.key(key)) }

// Unmarshal decodes the section into target with viper's decode hooks, so
// "10s" becomes a time.Duration.
func (c *ViperConfig) Unmarshal(target any) error {
	if c.prefix == "" {
		return c.v.Unmarshal(target)
	}
	return c.section().Unmarshal(target)
}

// section copies the keys under prefix into a standalone viper. Each value
// is read through the parent so environment overrides win.
func (c *ViperConfig) section() *viper.Viper {
	s := viper.New()
	for _, k := range c.v.AllKeys() {
		if rest, ok := strings.CutPrefix(k, c.prefix); ok {
			s.Set(rest, c.v.Get(k))
		}
	}
	return s
}
