package food

import (
	"math"
	"strings"
)

// penaltyWords mark processed variants or byproducts in remote descriptions.
var penaltyWords = map[string]struct{}{
	"oil":     {}, "salad": {}, "soup": {}, "sauce": {}, "juice": {},
	"noodle":  {}, "noodles": {}, "nugget": {}, "nuggets": {},
	"stick":   {}, "sticks": {}, "pie": {}, "cake": {}, "candy": {},
	"cereal":  {}, "bar": {}, "spread": {}, "dip": {}, "mix": {},
	"baby":    {}, "infant": {}, "powder": {}, "supplement": {},
	"extract": {}, "dried": {}, "dehydrated": {}, "lomi": {},
	"jerky":   {}, "pickled": {}, "cured": {}, "chip": {}, "chips": {},
}

const (
	dataTypeSurvey = "Survey (FNDDS)"
	dataTypeLegacy = "SR Legacy"

	longDescriptionLimit = 80
)

// rankCandidate scores a remote search hit against the query it was found
// for. Higher is better.
func rankCandidate(c Candidate, query string) float64 {
	desc := strings.ToLower(c.Description)
	q := strings.ToLower(strings.TrimSpace(query))

	score := math.Min(c.Score/1000, 1)

	first := strings.TrimSpace(strings.SplitN(desc, ",", 2)[0])
	if first == q {
		score += 5
	} else {
		for _, w := range strings.Fields(q) {
			if first == w {
				score += 5
				break
			}
		}
	}

	if strings.Contains(desc, "cooked") && !strings.Contains(q, "cooked") {
		score += 3
	}
	if strings.Contains(desc, "raw") {
		score += 2
	}
	if strings.Contains(desc, "nfs") {
		score += 2.5
	}

	switch c.DataType {
	case dataTypeSurvey:
		score += 1.5
	case dataTypeLegacy:
		score += 1
	}

	if strings.HasPrefix(desc, q) {
		score += 2
	}

	seen := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ReplaceAll(desc, ",", " ")) {
		if _, bad := penaltyWords[w]; !bad {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		score -= 3
	}

	if len(desc) > longDescriptionLimit {
		score--
	}
	return score
}

// pickBest returns the highest ranked candidate. Ties keep the provider's
// order.
func pickBest(candidates []Candidate, query string) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best, bestScore := 0, rankCandidate(candidates[0], query)
	for i := 1; i < len(candidates); i++ {
		if s := rankCandidate(candidates[i], query); s > bestScore {
			best, bestScore = i, s
		}
	}
	return candidates[best], true
}
