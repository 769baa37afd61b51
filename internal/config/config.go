package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/r3"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	DBUrl    string `mapstructure:"DB_URL"`
	RedisUrl string `mapstructure:"REDIS_URL"`

	// Scene settings for THERM imports
	UnitSystem      string        `mapstructure:"UNIT_SYSTEM"`
	Tolerance       float64       `mapstructure:"MODEL_TOLERANCE"`
	ReferenceOrigin string        `mapstructure:"REFERENCE_ORIGIN"`
	FailurePolicy   string        `mapstructure:"FAILURE_POLICY"`
	CacheTTL        time.Duration `mapstructure:"CACHE_TTL"`
}

// flagKeys maps CLI flag names onto config keys
var flagKeys = map[string]string{
	"unit-system":      "UNIT_SYSTEM",
	"tolerance":        "MODEL_TOLERANCE",
	"reference-origin": "REFERENCE_ORIGIN",
	"failure-policy":   "FAILURE_POLICY",
}

// LoadConfig reads .env.<APP_ENV> from the working directory, then the
// environment, then any flags in flags that were set. flags may be nil.
func LoadConfig(flags *pflag.FlagSet) (c Config, err error) {
	// Get environment type from ENV variable or use development as default
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()

	// Set default values
	v.SetDefault("PORT", ":8080")
	v.SetDefault("DB_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("UNIT_SYSTEM", "meters")
	v.SetDefault("MODEL_TOLERANCE", 0.001)
	v.SetDefault("REFERENCE_ORIGIN", "")
	v.SetDefault("FAILURE_POLICY", "abort")
	v.SetDefault("CACHE_TTL", DefaultCacheTTL)

	// Load environment file
	v.SetConfigName(fmt.Sprintf(".env.%s", env))
	v.SetConfigType("env")
	v.AddConfigPath(".") // Look in the project root directory

	// Environment variables take precedence over config file
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, err
				}
			}
		}
	}

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		// Continue even if file is not found
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// Map the values to the Config struct
	err = v.Unmarshal(&c)
	return
}

// Origin parses ReferenceOrigin ("x,y,z"). ok is false when it is unset.
func (c Config) Origin() (origin r3.Vector, ok bool, err error) {
	s := strings.TrimSpace(c.ReferenceOrigin)
	if s == "" {
		return r3.Vector{}, false, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vector{}, false, fmt.Errorf("reference origin %q: want x,y,z", c.ReferenceOrigin)
	}
	var xyz [3]float64
	for i, p := range parts {
		if xyz[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
			return r3.Vector{}, false, fmt.Errorf("reference origin %q: %w", c.ReferenceOrigin, err)
		}
	}
	return r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}, true, nil
}
