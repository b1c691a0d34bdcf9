package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid", "Borin Stonehand-O'Malley", false},
		{"empty", "   ", true},
		{"too long", strings.Repeat("a", 101), true},
		{"bad chars", "Borin!", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Name(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDiceNotation(t *testing.T) {
	valid := []string{"3d6", "1d20+5", "2d20kh1+3", "1d8-1", "100d4"}
	for _, s := range valid {
		assert.NoError(t, DiceNotation(s), "DiceNotation(%q)", s)
	}
	invalid := []string{"", "d20", "3d7", "0d6", "101d6", "3d6x"}
	for _, s := range invalid {
		assert.Error(t, DiceNotation(s), "DiceNotation(%q)", s)
	}
}

func TestAlignment_NormalizesNeutral(t *testing.T) {
	got, err := Alignment("Neutral")
	require.NoError(t, err)
	assert.Equal(t, "true neutral", got)
}

func TestAbility_AcceptsAbbreviation(t *testing.T) {
	got, err := Ability("DEX")
	require.NoError(t, err)
	assert.Equal(t, "dex", got)
}

func TestEnumValidators_RejectUnknown(t *testing.T) {
	_, err := Attitude("grumpy")
	assert.Error(t, err)

	_, err = Skill("juggling")
	assert.Error(t, err)

	_, err = PlotStatus("paused")
	assert.Error(t, err)
}

func TestSanitizePath(t *testing.T) {
	_, err := SanitizePath("campaigns/foo/character.json")
	assert.NoError(t, err)

	traversal := []string{"../etc/passwd", "/etc/passwd", "campaigns/../../etc", "bad*char.json"}
	for _, p := range traversal {
		_, err := SanitizePath(p)
		assert.Error(t, err, "SanitizePath(%q)", p)
	}
}
