// Package profile loads search profiles: YAML documents naming the keys a
// search bar accepts and which syntax it disallows.
package profile

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/zate/searchbar/internal/search"
)

type Profile struct {
	Name         string            `yaml:"name" validate:"required"`
	ValidateKeys bool              `yaml:"validate_keys"`
	Parse        bool              `yaml:"parse"`
	Flatten      bool              `yaml:"flatten"`
	MaxDepth     int               `yaml:"max_depth" validate:"gte=0"`
	Keys         map[string]string `yaml:"keys" validate:"dive,keys,required,endkeys,field_kind"`
	Disallow     Disallow          `yaml:"disallow"`
	// Warnings maps a key to a non-fatal warning shown on its filters.
	Warnings map[string]string `yaml:"warnings" validate:"dive,required"`
	// Messages overrides the built-in text per invalid reason.
	Messages map[string]string `yaml:"messages" validate:"dive,keys,invalid_reason,endkeys,required"`
}

type Disallow struct {
	FreeText         bool     `yaml:"free_text"`
	Negation         bool     `yaml:"negation"`
	Wildcard         bool     `yaml:"wildcard"`
	Parens           bool     `yaml:"parens"`
	LogicalOperators []string `yaml:"logical_operators" validate:"dive,oneof=AND OR"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("field_kind", func(fl validator.FieldLevel) bool {
		return lo.Contains(search.Kinds(), search.FieldKind(fl.Field().String()))
	})
	_ = v.RegisterValidation("invalid_reason", func(fl validator.FieldLevel) bool {
		return lo.Contains(search.InvalidReasons(), search.InvalidReason(fl.Field().String()))
	})
	return v
}

// Default is used when no profile file is given: the keys of an issue
// stream search bar, with parsing on and key validation off.
func Default() *Profile {
	return &Profile{
		Name:  "issues",
		Parse: true,
		Keys: map[string]string{
			"age":                  string(search.KindDate),
			"firstSeen":            string(search.KindDate),
			"lastSeen":             string(search.KindDate),
			"timesSeen":            string(search.KindNumber),
			"browser":              string(search.KindText),
			"release":              string(search.KindText),
			"level":                string(search.KindText),
			"error.handled":        string(search.KindBoolean),
			"transaction.duration": string(search.KindDuration),
			"event.size":           string(search.KindSize),
			"count":                string(search.KindNumber),
			"failure_rate":         string(search.KindPercentage),
		},
	}
}

// Load reads and validates the profile at path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML profile.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("invalid profile %q: %w", p.Name, err)
	}
	return &p, nil
}

// Config converts the profile into parser options.
func (p *Profile) Config() search.Config {
	cfg := search.Config{
		Keys:               lo.MapValues(p.Keys, func(kind string, _ string) search.FieldKind { return search.FieldKind(kind) }),
		ValidateKeys:       p.ValidateKeys,
		Parse:              p.Parse,
		FlattenParenGroups: p.Flatten,
		MaxDepth:           p.MaxDepth,
		DisallowFreeText:   p.Disallow.FreeText,
		DisallowNegation:   p.Disallow.Negation,
		DisallowWildcard:   p.Disallow.Wildcard,
		DisallowParens:     p.Disallow.Parens,
	}
	if len(p.Disallow.LogicalOperators) > 0 {
		cfg.DisallowedLogicalOperators = lo.SliceToMap(p.Disallow.LogicalOperators, func(op string) (search.BooleanOperator, bool) {
			return search.BooleanOperator(op), true
		})
	}
	if len(p.Messages) > 0 {
		cfg.InvalidMessages = lo.MapKeys(p.Messages, func(_ string, reason string) search.InvalidReason {
			return search.InvalidReason(reason)
		})
	}
	if len(p.Warnings) > 0 {
		warnings := p.Warnings
		cfg.FilterTokenWarning = func(key string) string { return warnings[key] }
	}
	return cfg
}
