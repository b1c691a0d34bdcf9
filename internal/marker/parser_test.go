package marker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSegments_NoMarkers(t *testing.T) {
	got := ParseSegments("The door creaks open.")
	want := []Segment{{Kind: Narrate, Content: "The door creaks open."}}
	assert.Equal(t, want, got)
}

func TestParseSegments_EmptyText(t *testing.T) {
	assert.Nil(t, ParseSegments("   "))
}

func TestParseSegments_MixedMarkers(t *testing.T) {
	text := "[AMBIENT:distant thunder][NARRATE]You step into the tavern.[NPC:Borin]Well met, traveler![SFX:door creak][ROLL:1d20+5:perception]"
	got := ParseSegments(text)
	want := []Segment{
		{Kind: Ambient, Meta: "distant thunder"},
		{Kind: Narrate, Content: "You step into the tavern."},
		{Kind: NPC, Content: "Well met, traveler!", Meta: "Borin"},
		{Kind: SFX, Meta: "door creak"},
		{Kind: Roll, Meta: "1d20+5:perception"},
	}
	assert.Equal(t, want, got)
}

func TestParseSegments_DropsEmptyVoiceSegments(t *testing.T) {
	text := "[NARRATE][NPC:Borin]   [AMBIENT:wind]"
	got := ParseSegments(text)
	want := []Segment{{Kind: Ambient, Meta: "wind"}}
	assert.Equal(t, want, got)
}

func TestParseSegments_CaseInsensitiveTags(t *testing.T) {
	text := "[Narrate]You step into the tavern.[npc:Borin]Well met![Ambient:wind][sfx:creak][Roll:1d20]"
	got := ParseSegments(text)
	want := []Segment{
		{Kind: Narrate, Content: "You step into the tavern."},
		{Kind: NPC, Content: "Well met!", Meta: "Borin"},
		{Kind: Ambient, Meta: "wind"},
		{Kind: SFX, Meta: "creak"},
		{Kind: Roll, Meta: "1d20"},
	}
	assert.Equal(t, want, got)
}

func TestStripMarkers(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "narrate and npc",
			in:   "[NARRATE]You enter.[NPC:Borin]Hello!",
			want: "You enter.Borin: Hello!",
		},
		{
			name: "cue markers removed",
			in:   "[AMBIENT:wind] [NARRATE]Quiet. [SFX:creak] [ROLL:1d20]The door opens.",
			want: "Quiet. The door opens.",
		},
		{
			name: "collapses triple newline",
			in:   "Line one.\n\n\n\nLine two.",
			want: "Line one.\n\nLine two.",
		},
		{
			name: "mixed-case markers",
			in:   "[narrate]You enter.[Npc:Borin]Hello!",
			want: "You enter.Borin: Hello!",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripMarkers(tc.in))
		})
	}
}
