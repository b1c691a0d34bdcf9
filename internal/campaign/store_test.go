package campaign

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	return s
}

func TestStore_CharacterRoundTrip(t *testing.T) {
	s := newTestStore(t)

	empty, err := s.Character()
	require.NoError(t, err)
	require.Equal(t, Character{}, empty)

	c := Character{Name: "Lirael", Race: "Elf", Class: "Ranger", Level: 3, HP: HP{Current: 20, Max: 20}}
	require.NoError(t, s.SaveCharacter(c))

	got, err := s.Character()
	require.NoError(t, err)
	require.Equal(t, c, got)
}

func TestStore_SaveJSONIsAtomic(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveCharacter(Character{Name: "Test"}))

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, filepath.Ext(e.Name()) == ".tmp", "temp file left behind: %s", e.Name())
	}
}

func TestStore_UpdateNPCCreatesWhenMissing(t *testing.T) {
	s := newTestStore(t)

	npc, err := s.UpdateNPC("Guard Captain", func(n NPC) NPC {
		n.Description = "Stoic guard captain"
		n.Attitude = "neutral"
		return n
	})
	require.NoError(t, err)
	require.Equal(t, "neutral", npc.Attitude)

	all, err := s.NPCs()
	require.NoError(t, err)
	require.Contains(t, all, "Guard Captain")
}

func TestStore_SessionLogMissingIsEmpty(t *testing.T) {
	s := newTestStore(t)

	log, err := s.SessionLog()
	require.NoError(t, err)
	require.Nil(t, log)

	prior, err := s.HasPriorSession()
	require.NoError(t, err)
	require.False(t, prior)
}

func TestStore_AppendSessionLog(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AppendSessionLog("The party arrives at the gate."))
	require.NoError(t, s.AppendSessionLog("They are turned away."))

	log, err := s.SessionLog()
	require.NoError(t, err)
	require.Contains(t, string(log), "The party arrives at the gate.")
	require.Contains(t, string(log), "They are turned away.")

	prior, err := s.HasPriorSession()
	require.NoError(t, err)
	require.False(t, prior, "no end-of-session marker written yet")
}

func TestStore_HasPriorSessionDetectsMarker(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AppendSessionLog("The party rests for the night."))
	require.NoError(t, s.AppendSessionLog(endOfSessionMarker))

	prior, err := s.HasPriorSession()
	require.NoError(t, err)
	require.True(t, prior)
}

func TestStore_UpdatePlotRequiresExisting(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpdatePlot("missing-plot", func(p Plot) Plot { return p })
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateCharacterHPClampsToBounds(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveCharacter(Character{HP: HP{Current: 5, Max: 10}}))

	hp, err := s.UpdateCharacterHP(-20)
	require.NoError(t, err)
	require.Equal(t, 0, hp.Current)

	hp, err = s.UpdateCharacterHP(100)
	require.NoError(t, err)
	require.Equal(t, 10, hp.Current)
}
