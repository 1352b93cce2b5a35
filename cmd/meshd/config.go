package main

import (
	"errors"
	"fmt"

	"github.com/996BC/996.Mesh/serialize/cp"
	"github.com/996BC/996.Mesh/utils"
	"github.com/ardanlabs/conf/v3"
	"github.com/go-playground/validator/v10"
)

const envPrefix = "MESHD"

type config struct {
	conf.Version
	DataPath string `conf:"default:mesh-data" validate:"required"`
	LogLevel int    `conf:"default:2" validate:"min=0,max=3"`
	Key      keyConfig
	Relay    relayConfig
	Chain    chainConfig
}

type keyConfig struct {
	ID     string `validate:"required"`
	Sealed bool   `conf:"default:false"`
}

type relayConfig struct {
	Workers int `conf:"default:4" validate:"min=1,max=256"`
	Queue   int `conf:"default:64" validate:"min=0,max=65536"`
}

// chainConfig is the difficulty required from beam chains first seen by the relay
type chainConfig struct {
	TCost   uint32 `conf:"default:1" validate:"min=1"`
	MCost   uint32 `conf:"default:8" validate:"min=1"`
	PCost   uint32 `conf:"default:1" validate:"min=1,max=255"`
	NBits   uint8  `conf:"default:8"`
	HashLen uint8  `conf:"default:32" validate:"min=1"`
}

func (c chainConfig) difficulty() cp.Difficulty {
	return cp.NewDifficulty(c.TCost, c.MCost, c.PCost, c.NBits, c.HashLen)
}

// parseConfig reads defaults, MESHD_* environment variables then command line flags.
// The usage text is returned with conf.ErrHelpWanted.
func parseConfig() (*config, string, error) {
	cfg := &config{
		Version: conf.Version{
			Build: build,
			Desc:  "mesh relay reading envelope frames on stdin",
		},
	}

	help, err := conf.Parse(envPrefix, cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return nil, help, err
		}
		return nil, "", fmt.Errorf("parsing config: %w", err)
	}

	if err := verifyConfig(cfg); err != nil {
		return nil, "", err
	}
	return cfg, "", nil
}

func verifyConfig(c *config) error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config %s: %s %s", verrs[0].Namespace(), verrs[0].Tag(), verrs[0].Param())
		}
		return err
	}
	if c.LogLevel < utils.LogErrorLevel || c.LogLevel > utils.LogDebugLevel {
		return fmt.Errorf("invalid log level:%d", c.LogLevel)
	}
	return nil
}
