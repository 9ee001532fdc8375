package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/concilium/core/model"
)

// RunProfile is a named, reusable preset for starting a run: which agent
// instances to fan out to, which council models and chairman to use for
// Stage 2/3, and the working directory the agents should run in. Profiles
// let a caller check a YAML file into a repo instead of repeating the
// same agent/council selection on every run.
type RunProfile struct {
	Name             string           `yaml:"name"`
	WorkingDirectory string           `yaml:"workingDirectory"`
	Agents           []yamlAgentEntry `yaml:"agents"`
	CouncilModels    []string         `yaml:"councilModels,omitempty"`
	ChairmanModel    string           `yaml:"chairmanModel,omitempty"`
}

// yamlAgentEntry mirrors model.AgentInstance with yaml tags — model
// itself only carries json tags (it's serialized to run records as
// JSON, never YAML), so profiles decode into this shape and convert.
type yamlAgentEntry struct {
	InstanceID string                  `yaml:"instanceId"`
	Provider   model.AgentProviderKind `yaml:"provider"`
	Model      string                  `yaml:"model,omitempty"`
	Enabled    bool                    `yaml:"enabled"`
}

func (e yamlAgentEntry) toInstance() model.AgentInstance {
	return model.AgentInstance{
		InstanceID: e.InstanceID,
		Provider:   e.Provider,
		Model:      e.Model,
		Enabled:    e.Enabled,
	}
}

// Instances converts the profile's YAML-decoded agent entries into
// model.AgentInstance values ready to pass to the orchestrator.
func (p *RunProfile) Instances() []model.AgentInstance {
	out := make([]model.AgentInstance, len(p.Agents))
	for i, e := range p.Agents {
		out[i] = e.toInstance()
	}
	return out
}

// LoadRunProfile reads and parses a YAML run profile from path.
func LoadRunProfile(path string) (*RunProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run profile %s: %w", path, err)
	}
	var profile RunProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse run profile %s: %w", path, err)
	}
	if profile.Name == "" {
		return nil, fmt.Errorf("run profile %s: name is required", path)
	}
	if len(profile.Agents) == 0 {
		return nil, fmt.Errorf("run profile %s: at least one agent is required", path)
	}
	return &profile, nil
}

// LoadRunProfiles reads every *.yaml/*.yml file in dir as a RunProfile,
// skipping files that fail to parse rather than aborting the whole load —
// a single malformed preset in a shared directory shouldn't take the rest
// down with it.
func LoadRunProfiles(dir string) ([]*RunProfile, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("read run profile directory %s: %w", dir, err)}
	}

	var profiles []*RunProfile
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !hasYAMLExt(name) {
			continue
		}
		profile, err := LoadRunProfile(dir + "/" + name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		profiles = append(profiles, profile)
	}
	return profiles, errs
}

func hasYAMLExt(name string) bool {
	for _, ext := range []string{".yaml", ".yml"} {
		if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
			return true
		}
	}
	return false
}
