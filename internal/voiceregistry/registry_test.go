package voiceregistry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsEmptyRegistry(t *testing.T) {
	dir := t.TempDir()
	reg, err := Load(dir)
	require.NoError(t, err)

	_, ok := reg.VoiceID("narrator")
	assert.False(t, ok, "expected no narrator voice in empty registry")

	_, ok = reg.VoiceID("Borin")
	assert.False(t, ok, "expected no NPC voice in empty registry")
}

func TestLoad_ResolvesSpeakers(t *testing.T) {
	dir := t.TempDir()
	content := `{
		"narrator": {"voice_id": "narrator-voice"},
		"npcs": {"Borin": {"voice_id": "borin-voice"}},
		"ambience": {}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte(content), 0o644))

	reg, err := Load(dir)
	require.NoError(t, err)

	got, ok := reg.VoiceID("narrator")
	assert.True(t, ok)
	assert.Equal(t, "narrator-voice", got)

	got, ok = reg.VoiceID("Borin")
	assert.True(t, ok)
	assert.Equal(t, "borin-voice", got)

	_, ok = reg.VoiceID("Unknown")
	assert.False(t, ok, "VoiceID(Unknown) should not be found")
}
