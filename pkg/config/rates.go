package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// RatesFile is the on-disk shape of the default exchange rate table.
//
//	base: TWD
//	rates:
//	  USD: "32.5"
//	  JPY: "0.22"
type RatesFile struct {
	Base  string            `yaml:"base"`
	Rates map[string]string `yaml:"rates"`
}

// RatesConfig is a validated default rate table.
type RatesConfig struct {
	Base  string
	Rates map[string]decimal.Decimal
}

// LoadRatesConfig loads the default rate table from a YAML file
func LoadRatesConfig(path string) (*RatesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rates file: %w", err)
	}
	return ParseRatesConfig(data)
}

// ParseRatesConfig parses and validates a YAML rate table
func ParseRatesConfig(data []byte) (*RatesConfig, error) {
	var file RatesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rates file: %w", err)
	}

	cfg := &RatesConfig{
		Base:  strings.ToUpper(strings.TrimSpace(file.Base)),
		Rates: make(map[string]decimal.Decimal, len(file.Rates)),
	}
	if len(cfg.Base) != 3 {
		return nil, fmt.Errorf("base must be a 3-letter code, got %q", file.Base)
	}

	for code, raw := range file.Rates {
		code = strings.ToUpper(strings.TrimSpace(code))
		if len(code) != 3 {
			return nil, fmt.Errorf("invalid currency code %q", code)
		}
		value, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", code, err)
		}
		if !value.IsPositive() {
			return nil, fmt.Errorf("rate for %s must be positive", code)
		}
		if code == cfg.Base {
			continue
		}
		cfg.Rates[code] = value
	}

	return cfg, nil
}
