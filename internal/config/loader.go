package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/merch/internal/domain/model"
)

// Environment variable names.
const (
	EnvPrefix = "MERCH_"
	EnvFile   = "MERCH_CONFIG"
)

const touchpointsKey = "touchpoints"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MERCH_CONFIG is set
//  3. env (prefix MERCH_, "__" separates nested keys)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// MERCH_CATALOG__SOURCE -> catalog.source; single underscores are kept
	// so keys match the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	defaults := base.Touchpoints
	cfg.Touchpoints = nil
	conf := koanf.UnmarshalConf{Tag: "koanf"}
	if err := k.UnmarshalWithConf("", &cfg, conf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	touchpoints, err := mergeTouchpoints(k, defaults, conf)
	if err != nil {
		return nil, err
	}
	cfg.Touchpoints = touchpoints

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeTouchpoints decodes each configured touchpoint over the default of
// the same id so partial entries keep the remaining defaults.
func mergeTouchpoints(k *koanf.Koanf, defaults map[string]model.TouchpointConfig, conf koanf.UnmarshalConf) (map[string]model.TouchpointConfig, error) {
	out := make(map[string]model.TouchpointConfig, len(defaults))
	for id, tp := range defaults {
		out[id] = tp
	}
	for _, id := range k.MapKeys(touchpointsKey) {
		tp := out[id]
		if err := k.UnmarshalWithConf(touchpointsKey+"."+id, &tp, conf); err != nil {
			return nil, fmt.Errorf("%w: touchpoint %s: %w", ErrLoadConfig, id, err)
		}
		if tp.ID == "" {
			tp.ID = id
		}
		out[id] = tp
	}
	return out, nil
}
