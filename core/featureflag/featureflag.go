package featureflag

import (
	"strings"

	"github.com/manitascreativas/escuela/core"
)

const configKey = "featureFlags"

type Flag struct {
	Enabled       bool     `json:"enabled" mapstructure:"enabled"`
	RequiresAdmin bool     `json:"requiresAdmin" mapstructure:"requiresAdmin"`
	Description   string   `json:"description,omitempty" mapstructure:"description"`
	AllowedRoles  []string `json:"allowedRoles" mapstructure:"allowedRoles"`
}

type Flags struct {
	Features map[string]Flag `json:"features" mapstructure:"features"`
}

// Service answers feature flag questions from the flags loaded at startup.
type Service struct {
	flags  Flags
	logger core.Logger
}

// NewService loads the flags from the `featureFlags` configuration section.
// A missing or malformed section leaves every feature disabled.
func NewService(conf *core.Config, logger core.Logger) *Service {
	svc := &Service{flags: Flags{Features: make(map[string]Flag)}, logger: logger}
	if !conf.IsSet(configKey) {
		logger.Warn("featureFlags configuration section not found, every feature is disabled")
		return svc
	}

	var flags Flags
	if err := conf.UnmarshalKey(configKey, &flags); err != nil {
		logger.Error("could not load feature flags", err)
		return svc
	}
	// viper lower-cases keys
	for name, f := range flags.Features {
		if f.AllowedRoles == nil {
			f.AllowedRoles = []string{}
		}
		svc.flags.Features[strings.ToLower(name)] = f
	}
	logger.Info("feature flags loaded", map[string]interface{}{"count": len(svc.flags.Features)})
	return svc
}

func (svc *Service) Flags() Flags {
	return svc.flags
}

func (svc *Service) lookup(name string) (Flag, bool) {
	f, ok := svc.flags.Features[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// IsEnabled is false for unknown features.
func (svc *Service) IsEnabled(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	f, ok := svc.lookup(name)
	if !ok {
		svc.logger.Warn("feature flag not found in configuration", map[string]interface{}{"feature": name})
		return false
	}
	return f.Enabled
}

// IsAvailableFor checks the admin requirement and, when a role is given, the allowed roles.
func (svc *Service) IsAvailableFor(name string, isAdmin bool, role string) bool {
	if !svc.IsEnabled(name) {
		return false
	}
	f, _ := svc.lookup(name)
	if f.RequiresAdmin && !isAdmin {
		return false
	}
	if len(f.AllowedRoles) > 0 && role != "" {
		for _, r := range f.AllowedRoles {
			if strings.EqualFold(r, role) {
				return true
			}
		}
		return false
	}
	return true
}
