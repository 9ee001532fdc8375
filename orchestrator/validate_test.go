package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/concilium/core/model"
)

func TestValidateRunInputs(t *testing.T) {
	validInstances := []model.AgentInstance{{InstanceID: "a", Enabled: true}}

	cases := []struct {
		name    string
		prompt  string
		wantErr string
		dir     string
		insts   []model.AgentInstance
	}{
		{"empty prompt", "", "prompt", "/tmp", validInstances},
		{"empty workingDirectory", "do it", "workingDirectory", "", validInstances},
		{"no instances", "do it", "agent instance", "/tmp", nil},
		{
			"duplicate instanceId", "do it", "duplicate instanceId", "/tmp",
			[]model.AgentInstance{{InstanceID: "a"}, {InstanceID: "a"}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateRunInputs(c.prompt, c.insts, c.dir)
			assert.ErrorContains(t, err, c.wantErr)
		})
	}

	assert.NoError(t, validateRunInputs("do it", validInstances, "/tmp"))
}

func TestValidateRunInputs_MultipleEmptyInstanceIDsAreNotDuplicates(t *testing.T) {
	instances := []model.AgentInstance{{InstanceID: ""}, {InstanceID: ""}}
	assert.NoError(t, validateRunInputs("do it", instances, "/tmp"))
}
