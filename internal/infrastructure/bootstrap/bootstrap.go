// Package bootstrap builds the generation components shared by the HTTP
// service and the command line tool from configuration.
package bootstrap

import (
	"fmt"
	"log/slog"

	"3tcapital/ms_ecf_core/internal/adapters/validation/guarded"
	"3tcapital/ms_ecf_core/internal/adapters/validation/wellformed"
	"3tcapital/ms_ecf_core/internal/adapters/validation/xmllint"
	coreecf "3tcapital/ms_ecf_core/internal/core/ecf"
	"3tcapital/ms_ecf_core/internal/core/validation"
	"3tcapital/ms_ecf_core/internal/infrastructure/config"
)

// NewGenerator builds the document generator for the configured unknown-type
// policy and time zone.
func NewGenerator(cfg config.ECFSettings) (*coreecf.Generator, error) {
	policy, err := coreecf.ParseUnknownTypePolicy(cfg.UnknownTypePolicy)
	if err != nil {
		return nil, err
	}

	var opts []coreecf.AssemblerOption
	if cfg.TimeZone != "" {
		loc, err := cfg.Location()
		if err != nil {
			return nil, fmt.Errorf("load time zone %q: %w", cfg.TimeZone, err)
		}
		opts = append(opts, coreecf.WithLocation(loc))
	}

	return coreecf.NewGenerator(coreecf.NewDispatcher(policy), coreecf.NewAssembler(opts...)), nil
}

// NewValidator returns the validator selected by cfg.Mode and its name. Mode
// "none" returns a nil validator. xmllint runs behind a concurrency limit
// and a circuit breaker.
func NewValidator(cfg config.ValidationSettings, log *slog.Logger) (validation.Validator, string, error) {
	switch cfg.Mode {
	case config.ValidationNone:
		return nil, config.ValidationNone, nil
	case "", config.ValidationWellFormed:
		return wellformed.New(log), config.ValidationWellFormed, nil
	case config.ValidationXMLLint:
		if cfg.SchemaDir == "" {
			return nil, "", fmt.Errorf("xmllint validation requires a schema directory")
		}
		lint := xmllint.New(cfg.XMLLintPath, cfg.SchemaDir, log)
		return guarded.New(lint, guarded.Options{
			MaxConcurrent:   cfg.MaxConcurrent,
			BreakerFailures: cfg.BreakerFailures,
			BreakerCooldown: cfg.BreakerCooldown,
		}, log), config.ValidationXMLLint, nil
	default:
		return nil, "", fmt.Errorf("unknown validation mode %q", cfg.Mode)
	}
}
