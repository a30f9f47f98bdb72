// Package profile loads a profile directory (manifest, policy, and one
// YAML file per domain) into an immutable types.LoadedProfile. The
// loader is the sole interpreter of the on-disk shape; no other
// component reads these files, and no I/O happens after Load returns.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trestlehq/coordinator/pkg/types"
)

type manifestYAML struct {
	ProfileID      string   `yaml:"profile_id"`
	ProfileVersion string   `yaml:"profile_version"`
	ProfileName    string   `yaml:"profile_name"`
	Domains        []string `yaml:"domains"`
}

type domainYAML struct {
	Domain  string         `yaml:"domain"`
	Scope   string         `yaml:"scope"`
	States  []string       `yaml:"states"`
	Events  []string       `yaml:"events"`
	Outputs map[string]any `yaml:"outputs"`
}

type classifyYAML struct {
	Importance       string `yaml:"importance"`
	Interrupt        bool   `yaml:"interrupt"`
	BypassQuietHours bool   `yaml:"bypass_quiet_hours"`
}

type effectsYAML struct {
	SuppressBelowImportance string `yaml:"suppress_below_importance"`
}

type whenYAML struct {
	Domain string `yaml:"domain"`
	State  string `yaml:"state"`
	Event  string `yaml:"event"`
}

type ruleYAML struct {
	RuleID     string            `yaml:"rule_id"`
	When       whenYAML          `yaml:"when"`
	Conditions map[string]string `yaml:"conditions"`
	SuppressIf map[string]string `yaml:"suppress_if"`
	Classify   *classifyYAML     `yaml:"classify"`
	Effects    *effectsYAML      `yaml:"effects"`
}

type policyYAML struct {
	QuietHours *quietHoursYAML `yaml:"quiet_hours"`
	Rules      []ruleYAML      `yaml:"rules"`
}

type quietHoursYAML struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Load reads dir/manifest.yaml, dir/policy.yaml, and one
// dir/domains/<name>.yaml per domain listed in the manifest, producing
// a fully-formed LoadedProfile. A missing required domain or policy
// file is a fatal load error.
func Load(dir string) (types.LoadedProfile, error) {
	manifest, err := loadManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return types.LoadedProfile{}, err
	}

	domains := make(map[string]types.DomainSchema, len(manifest.Domains))
	for _, name := range manifest.Domains {
		schema, err := loadDomain(filepath.Join(dir, "domains", name+".yaml"))
		if err != nil {
			return types.LoadedProfile{}, fmt.Errorf("%w: domain %q: %v", types.ErrDomainNotFound, name, err)
		}
		domains[name] = schema
	}

	policy, err := loadPolicy(filepath.Join(dir, "policy.yaml"))
	if err != nil {
		return types.LoadedProfile{}, err
	}

	return types.LoadedProfile{
		ProfileID:      manifest.ProfileID,
		ProfileVersion: manifest.ProfileVersion,
		ProfileName:    manifest.ProfileName,
		Domains:        domains,
		Policy:         policy,
	}, nil
}

func loadManifest(path string) (manifestYAML, error) {
	var m manifestYAML
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("%w: reading manifest: %v", types.ErrProfileLoad, err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: parsing manifest: %v", types.ErrProfileLoad, err)
	}
	if m.ProfileID == "" {
		return m, fmt.Errorf("%w: manifest missing profile_id", types.ErrProfileLoad)
	}
	return m, nil
}

func loadDomain(path string) (types.DomainSchema, error) {
	var d domainYAML
	data, err := os.ReadFile(path)
	if err != nil {
		return types.DomainSchema{}, err
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return types.DomainSchema{}, err
	}
	scope := types.ScopePerRoom
	if strings.EqualFold(d.Scope, "house") {
		scope = types.ScopeHouse
	}
	return types.DomainSchema{
		Name:    d.Domain,
		Scope:   scope,
		States:  d.States,
		Events:  d.Events,
		Outputs: d.Outputs,
	}, nil
}

func loadPolicy(path string) (types.PolicyDocument, error) {
	var p policyYAML
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PolicyDocument{}, fmt.Errorf("%w: reading policy: %v", types.ErrProfileLoad, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return types.PolicyDocument{}, fmt.Errorf("%w: parsing policy: %v", types.ErrProfileLoad, err)
	}

	doc := types.PolicyDocument{}
	if p.QuietHours != nil {
		start, err := parseTimeOfDay(p.QuietHours.Start)
		if err != nil {
			return doc, fmt.Errorf("%w: quiet_hours.start: %v", types.ErrProfileLoad, err)
		}
		end, err := parseTimeOfDay(p.QuietHours.End)
		if err != nil {
			return doc, fmt.Errorf("%w: quiet_hours.end: %v", types.ErrProfileLoad, err)
		}
		doc.QuietHours = &types.QuietHours{Start: start, End: end}
	}

	rules := make([]types.PolicyRule, 0, len(p.Rules))
	for _, r := range p.Rules {
		rule := types.PolicyRule{
			RuleID: r.RuleID,
			When: types.WhenPattern{
				Domain: r.When.Domain,
				State:  r.When.State,
				Event:  r.When.Event,
			},
			Conditions: r.Conditions,
			SuppressIf: r.SuppressIf,
		}
		if r.Classify != nil {
			imp, err := types.ParseImportance(r.Classify.Importance)
			if err != nil {
				return doc, fmt.Errorf("%w: rule %q: %v", types.ErrProfileLoad, r.RuleID, err)
			}
			rule.Classify = &types.Classify{
				Importance:       imp,
				Interrupt:        r.Classify.Interrupt,
				BypassQuietHours: r.Classify.BypassQuietHours,
			}
		}
		if r.Effects != nil {
			eff := &types.Effects{}
			if r.Effects.SuppressBelowImportance != "" {
				imp, err := types.ParseImportance(r.Effects.SuppressBelowImportance)
				if err != nil {
					return doc, fmt.Errorf("%w: rule %q: %v", types.ErrProfileLoad, r.RuleID, err)
				}
				eff.SuppressBelowImportance = imp
				eff.HasSuppressBelow = true
			}
			rule.Effects = eff
		}
		rules = append(rules, rule)
	}
	doc.Rules = rules
	return doc, nil
}

// parseTimeOfDay parses an "HH:MM" string into a duration since midnight.
func parseTimeOfDay(s string) (time.Duration, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day out of range: %q", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}
