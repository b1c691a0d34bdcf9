// Package validate holds the input validators shared by every orchestrator
// tool handler that writes game state: names, dice notation, and the closed
// vocabularies (attitudes, damage types, skills, alignments, conditions,
// abilities, quest priorities, time of day, plot type/status).
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalid is wrapped into every validation failure.
var ErrInvalid = fmt.Errorf("validate: invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-']+$`)

// Name validates an entity name or identifier: non-empty, at most 100
// characters, letters/digits/spaces/hyphens/apostrophes only.
func Name(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name cannot be empty")
	}
	if len(name) > 100 {
		return invalid("name too long (max 100 characters)")
	}
	if !namePattern.MatchString(name) {
		return invalid("name must use only letters, numbers, spaces, hyphens, and apostrophes")
	}
	return nil
}

var diceNotationPattern = regexp.MustCompile(`^(\d+)d(\d+)(?:k[hl]\d+)?([+-]\d+)?$`)
var validDieSizes = map[int]bool{4: true, 6: true, 8: true, 10: true, 12: true, 20: true, 100: true}

// DiceNotation validates dice notation shape (XdY, XdY+Z, XdYkh1+Z) without
// rolling it. The [internal/dice] package owns actually parsing and
// executing a roll; this is the cheaper up-front check a tool handler runs
// before accepting player/model input.
func DiceNotation(s string) error {
	m := diceNotationPattern.FindStringSubmatch(s)
	if m == nil {
		return invalid("dice notation must look like XdY, XdY+Z, or XdYkh1+Z (e.g. 3d6, 1d20+5, 2d20kh1+3)")
	}
	count, _ := strconv.Atoi(m[1])
	if count < 1 || count > 100 {
		return invalid("number of dice must be between 1 and 100")
	}
	sides, _ := strconv.Atoi(m[2])
	if !validDieSizes[sides] {
		return invalid("d%d is not a valid die size (4, 6, 8, 10, 12, 20, 100)", sides)
	}
	return nil
}

// enum validates s (case-insensitively, trimmed) against a closed
// vocabulary and returns the canonical lower-case member.
func enum(label, s string, values []string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, candidate := range values {
		if v == candidate {
			return v, nil
		}
	}
	return "", invalid("invalid %s %q, choose from: %s", label, s, strings.Join(values, ", "))
}

var attitudes = []string{
	"friendly", "neutral", "hostile", "suspicious", "helpful",
	"indifferent", "fearful", "respectful", "dismissive", "curious",
}

// Attitude validates an NPC disposition term.
func Attitude(s string) (string, error) { return enum("attitude", s, attitudes) }

var damageTypes = []string{
	"acid", "bludgeoning", "cold", "fire", "force", "lightning",
	"necrotic", "piercing", "poison", "psychic", "radiant", "slashing", "thunder",
}

// DamageType validates a D&D damage type.
func DamageType(s string) (string, error) { return enum("damage type", s, damageTypes) }

var skills = []string{
	"acrobatics", "animal handling", "arcana", "athletics",
	"deception", "history", "insight", "intimidation",
	"investigation", "medicine", "nature", "perception",
	"performance", "persuasion", "religion", "sleight of hand",
	"stealth", "survival",
}

// Skill validates a D&D skill name.
func Skill(s string) (string, error) { return enum("skill", s, skills) }

var alignments = []string{
	"lawful good", "neutral good", "chaotic good",
	"lawful neutral", "true neutral", "chaotic neutral",
	"lawful evil", "neutral evil", "chaotic evil",
	"unaligned",
}

// Alignment validates a D&D alignment, normalizing the bare "neutral" to
// "true neutral".
func Alignment(s string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "neutral" {
		v = "true neutral"
	}
	return enum("alignment", v, alignments)
}

var conditions = []string{
	"blinded", "charmed", "deafened", "exhaustion", "frightened",
	"grappled", "incapacitated", "invisible", "paralyzed",
	"petrified", "poisoned", "prone", "restrained", "stunned", "unconscious",
}

// Condition validates a D&D status condition.
func Condition(s string) (string, error) { return enum("condition", s, conditions) }

var abilities = []string{"strength", "dexterity", "constitution", "intelligence", "wisdom", "charisma"}
var abilityAbbreviations = []string{"str", "dex", "con", "int", "wis", "cha"}

// Ability validates a D&D ability score name, accepting either the full
// name or its three-letter abbreviation.
func Ability(s string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, a := range abilities {
		if v == a {
			return v, nil
		}
	}
	for _, a := range abilityAbbreviations {
		if v == a {
			return v, nil
		}
	}
	return "", invalid("invalid ability %q, choose from: %s", s, strings.Join(abilities, ", "))
}

var questPriorities = []string{"critical", "high", "medium", "low", "optional"}

// QuestPriority validates a quest priority level.
func QuestPriority(s string) (string, error) { return enum("priority", s, questPriorities) }

var timesOfDay = []string{"dawn", "morning", "midday", "afternoon", "dusk", "evening", "night", "midnight"}

// TimeOfDay validates a time-of-day label.
func TimeOfDay(s string) (string, error) { return enum("time", s, timesOfDay) }

var plotTypes = []string{"main", "side", "mystery", "threat"}

// PlotType validates a plot thread type.
func PlotType(s string) (string, error) { return enum("plot type", s, plotTypes) }

var plotStatuses = []string{"active", "completed", "failed", "dormant"}

// PlotStatus validates a plot thread status.
func PlotStatus(s string) (string, error) { return enum("plot status", s, plotStatuses) }

var pathPattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_/.]+$`)

// SanitizePath rejects directory traversal and absolute paths, returning the
// cleaned path or an error. Used before any campaign file path built from
// user- or model-supplied input touches the filesystem.
func SanitizePath(path string) (string, error) {
	if strings.Contains(path, "..") || strings.HasPrefix(path, "/") {
		return "", invalid("path %q must not traverse or be absolute", path)
	}
	if !pathPattern.MatchString(path) {
		return "", invalid("path %q contains disallowed characters", path)
	}
	return path, nil
}
