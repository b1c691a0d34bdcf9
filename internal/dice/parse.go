package dice

import (
	"strconv"
	"strings"
)

// notation is the parsed form of a dice expression: NdS, NdS±K, NdSkh<K> or
// NdSkl<K>.
type notation struct {
	count    int
	sides    int
	keepMode string // "", "kh" or "kl"
	keep     int
	modifier int
}

// parseNotation hand-parses a dice expression rather than using a regular
// expression, mirroring the diceroller tool's expression parser: split on
// the 'd' separator, then peel the sides digits, an optional kh/kl keep
// suffix, and a trailing +/- modifier off the remainder in turn.
func parseNotation(expr string) (notation, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return notation{}, invalid("empty expression")
	}

	dIdx := strings.IndexByte(expr, 'd')
	if dIdx == -1 {
		return notation{}, invalid("missing 'd' separator in %q", expr)
	}

	countStr := expr[:dIdx]
	if countStr == "" {
		return notation{}, invalid("missing die count in %q", expr)
	}
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return notation{}, invalid("bad die count %q", countStr)
	}
	if count < minCount || count > maxCount {
		return notation{}, invalid("die count %d out of range [%d,%d]", count, minCount, maxCount)
	}

	rest := expr[dIdx+1:]
	sidesStr, rest := takeDigits(rest)
	if sidesStr == "" {
		return notation{}, invalid("missing side count in %q", expr)
	}
	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return notation{}, invalid("bad side count %q", sidesStr)
	}
	if !allowedSides[sides] {
		return notation{}, invalid("d%d is not a supported die", sides)
	}

	n := notation{count: count, sides: sides}

	switch {
	case strings.HasPrefix(rest, "kh"):
		rest = rest[2:]
		keepStr, remainder := takeDigits(rest)
		if keepStr == "" {
			return notation{}, invalid("kh requires a keep count in %q", expr)
		}
		keep, err := strconv.Atoi(keepStr)
		if err != nil || keep < 1 || keep > count {
			return notation{}, invalid("invalid keep-highest count in %q", expr)
		}
		n.keepMode, n.keep = "kh", keep
		rest = remainder
	case strings.HasPrefix(rest, "kl"):
		rest = rest[2:]
		keepStr, remainder := takeDigits(rest)
		if keepStr == "" {
			return notation{}, invalid("kl requires a keep count in %q", expr)
		}
		keep, err := strconv.Atoi(keepStr)
		if err != nil || keep < 1 || keep > count {
			return notation{}, invalid("invalid keep-lowest count in %q", expr)
		}
		n.keepMode, n.keep = "kl", keep
		rest = remainder
	}

	if rest != "" {
		sign := rest[0]
		if sign != '+' && sign != '-' {
			return notation{}, invalid("unexpected trailing characters %q in %q", rest, expr)
		}
		modStr, remainder := takeDigits(rest[1:])
		if modStr == "" || remainder != "" {
			return notation{}, invalid("bad modifier in %q", expr)
		}
		mod, err := strconv.Atoi(modStr)
		if err != nil {
			return notation{}, invalid("bad modifier in %q", expr)
		}
		if sign == '-' {
			mod = -mod
		}
		n.modifier = mod
	}

	return n, nil
}

// takeDigits splits s into its leading run of ASCII digits and the remainder.
func takeDigits(s string) (digits, remainder string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}
