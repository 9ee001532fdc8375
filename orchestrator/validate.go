package orchestrator

import (
	"fmt"

	"github.com/concilium/core/model"
)

// validateRunInputs checks Run's arguments before any state is
// allocated: required fields present, instance IDs unique.
func validateRunInputs(prompt string, instances []model.AgentInstance, workingDirectory string) error {
	if prompt == "" {
		return fmt.Errorf("orchestrator: prompt is required")
	}
	if workingDirectory == "" {
		return fmt.Errorf("orchestrator: workingDirectory is required")
	}
	if len(instances) == 0 {
		return fmt.Errorf("orchestrator: at least one agent instance is required")
	}
	seen := make(map[string]bool, len(instances))
	for _, inst := range instances {
		if inst.InstanceID == "" {
			continue
		}
		if seen[inst.InstanceID] {
			return fmt.Errorf("orchestrator: duplicate instanceId %q", inst.InstanceID)
		}
		seen[inst.InstanceID] = true
	}
	return nil
}
