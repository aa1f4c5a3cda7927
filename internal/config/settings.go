package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings are the module's runtime settings, read from the Nakama runtime
// environment (runtime.env in the Nakama config).
type Settings struct {
	TickRate        int           `env:"tnttag_tick_rate" envDefault:"5"`
	DisplayInterval time.Duration `env:"tnttag_display_interval" envDefault:"1s"`
	Locale          string        `env:"tnttag_locale" envDefault:"en-US"`
	ArenasFile      string        `env:"tnttag_arenas_file" envDefault:"data/arenas.json"`
	WorldsDir       string        `env:"tnttag_worlds_dir" envDefault:"data/worlds"`
	StatsDB         string        `env:"tnttag_stats_db" envDefault:"data/tnttag.db"`
	RecorderQueue   int           `env:"tnttag_recorder_queue" envDefault:"64"`

	VivoxIssuer string `env:"vivox_issuer"`
	VivoxSecret string `env:"vivox_secret"`
	VivoxDomain string `env:"vivox_domain" envDefault:"mtu1xp.vivox.com"`
}

// ParseSettings reads settings from the given environment map. Keys missing
// from the map take their defaults; the process environment is not consulted.
func ParseSettings(environment map[string]string) (Settings, error) {
	if environment == nil {
		environment = map[string]string{}
	}
	var s Settings
	if err := env.ParseWithOptions(&s, env.Options{Environment: environment}); err != nil {
		return Settings{}, fmt.Errorf("parse runtime env: %w", err)
	}
	if s.TickRate < 1 || s.TickRate > 60 {
		return Settings{}, fmt.Errorf("tnttag_tick_rate must be between 1 and 60, got %d", s.TickRate)
	}
	if s.DisplayInterval <= 0 {
		return Settings{}, fmt.Errorf("tnttag_display_interval must be positive, got %s", s.DisplayInterval)
	}
	return s, nil
}

// RoundTickEvery is the number of match loop ticks per round tick. Round
// counters are in seconds, so the round advances once per second.
func (s Settings) RoundTickEvery() int64 {
	return int64(s.TickRate)
}

// DisplayTickEvery is the number of match loop ticks between scoreboard refreshes.
func (s Settings) DisplayTickEvery() int64 {
	n := int64(s.DisplayInterval * time.Duration(s.TickRate) / time.Second)
	if n < 1 {
		return 1
	}
	return n
}
