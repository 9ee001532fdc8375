package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validProfileYAML = `
name: backend-refactor
workingDirectory: /repo
agents:
  - instanceId: claude-1
    provider: claude
    enabled: true
  - instanceId: codex-1
    provider: codex
    model: gpt-5.2-codex
    enabled: true
councilModels:
  - openai/gpt-5.2
  - anthropic/claude-opus-4.6
chairmanModel: google/gemini-3-pro-preview
`

func TestLoadRunProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validProfileYAML), 0o644))

	profile, err := LoadRunProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "backend-refactor", profile.Name)
	assert.Equal(t, "/repo", profile.WorkingDirectory)
	require.Len(t, profile.Agents, 2)
	instances := profile.Instances()
	assert.Equal(t, "claude-1", instances[0].InstanceID)
	assert.Equal(t, "codex-1", instances[1].InstanceID)
	assert.Equal(t, "gpt-5.2-codex", instances[1].Model)
	assert.Equal(t, []string{"openai/gpt-5.2", "anthropic/claude-opus-4.6"}, profile.CouncilModels)
	assert.Equal(t, "google/gemini-3-pro-preview", profile.ChairmanModel)
}

func TestLoadRunProfile_MissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agents:\n  - instanceId: a\n    provider: claude\n    enabled: true\n"), 0o644))

	_, err := LoadRunProfile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadRunProfile_NoAgents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: empty\n"), 0o644))

	_, err := LoadRunProfile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one agent")
}

func TestLoadRunProfiles_SkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yaml"), []byte(validProfileYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: broken\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("not yaml"), 0o644))

	profiles, errs := LoadRunProfiles(dir)
	require.Len(t, profiles, 1)
	assert.Equal(t, "backend-refactor", profiles[0].Name)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "at least one agent")
}
