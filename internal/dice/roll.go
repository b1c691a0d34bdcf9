package dice

import (
	"math/rand/v2"
	"sort"
)

// Roll parses notation and executes it against a fresh die roll.
//
// Supported forms: "NdS", "NdS+K", "NdS-K", "NdSkh<K>" (advantage, keep the
// K highest of N) and "NdSkl<K>" (disadvantage, keep the K lowest of N).
// Sides must be one of {4,6,8,10,12,20,100}; count must be in [1,100].
func Roll(expr string) (Result, error) {
	n, err := parseNotation(expr)
	if err != nil {
		return Result{}, err
	}

	rolls := make([]int, n.count)
	for i := range rolls {
		rolls[i] = rand.IntN(n.sides) + 1
	}

	res := Result{Notation: expr, Rolls: rolls, Modifier: n.modifier}

	switch n.keepMode {
	case "kh":
		res.Mode = Advantage
		res.Kept, res.Discarded = keepHighest(rolls, n.keep)
	case "kl":
		res.Mode = Disadvantage
		res.Kept, res.Discarded = keepLowest(rolls, n.keep)
	default:
		res.Mode = Standard
		res.Kept = rolls
		if n.sides == 20 && n.count == 1 {
			res.Natural20 = rolls[0] == 20
			res.Natural1 = rolls[0] == 1
		}
	}

	sum := 0
	for _, v := range res.Kept {
		sum += v
	}
	res.Total = sum + n.modifier
	return res, nil
}

// keepHighest returns the k highest values from rolls (kept) and the rest
// (discarded), both in original roll order.
func keepHighest(rolls []int, k int) (kept, discarded []int) {
	return partitionByRank(rolls, k, true)
}

// keepLowest returns the k lowest values from rolls (kept) and the rest
// (discarded), both in original roll order.
func keepLowest(rolls []int, k int) (kept, discarded []int) {
	return partitionByRank(rolls, k, false)
}

// partitionByRank splits rolls into the k best (highest if wantHigh, else
// lowest) and the remainder, preserving original roll order in both slices.
// Ties are broken by position, matching a stable sort of die indices.
func partitionByRank(rolls []int, k int, wantHigh bool) (kept, discarded []int) {
	idx := make([]int, len(rolls))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if wantHigh {
			return rolls[idx[a]] > rolls[idx[b]]
		}
		return rolls[idx[a]] < rolls[idx[b]]
	})

	keepSet := make(map[int]bool, k)
	for _, i := range idx[:k] {
		keepSet[i] = true
	}

	for i, v := range rolls {
		if keepSet[i] {
			kept = append(kept, v)
		} else {
			discarded = append(discarded, v)
		}
	}
	return kept, discarded
}
