// Package dice implements the [ROLL:notation] dice grammar: standard,
// advantage (keep-highest) and disadvantage (keep-lowest) rolls over the
// polyhedral die set used by the orchestrator's roll_dice tool.
package dice

import "fmt"

// Mode distinguishes a plain roll from an advantage/disadvantage roll.
type Mode string

const (
	Standard     Mode = "standard"
	Advantage    Mode = "advantage"
	Disadvantage Mode = "disadvantage"
)

// allowedSides is the polyhedral die set the notation grammar accepts.
var allowedSides = map[int]bool{4: true, 6: true, 8: true, 10: true, 12: true, 20: true, 100: true}

const (
	minCount = 1
	maxCount = 100
)

// Result is the outcome of a single [Roll].
type Result struct {
	Notation  string
	Mode      Mode
	Rolls     []int // every individual die result, in roll order
	Kept      []int // for Advantage/Disadvantage: the dice that counted
	Discarded []int // for Advantage/Disadvantage: the dice that didn't
	Modifier  int   // the parsed +K/-K term, 0 if absent
	Total     int
	Natural20 bool // true only for a single d20 standard roll that came up 20
	Natural1  bool // true only for a single d20 standard roll that came up 1
}

// ErrInvalidNotation is wrapped into every parse failure, so callers can
// test for it with errors.Is regardless of the specific malformed detail.
var ErrInvalidNotation = fmt.Errorf("dice: invalid notation")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidNotation, fmt.Sprintf(format, args...))
}
