package extraction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const currencySymbols = `$₱€£¥₩₹`

var (
	// keyword followed by an optional colon, currency symbol and amount, e.g. "TOTAL: $1,234.50".
	// The keyword must start a word so "Subtotal" is not read as a total.
	totalKeywordPattern = regexp.MustCompile(`(?i)\b(?:grand\s+total|net\s+total|total|amount|balance|sum)[:\s]*[` + currencySymbols + `]?\s*(\d[\d,]*(?:\.\d{1,2})?)`)
	// currency symbol immediately followed by an amount, e.g. "$12.00"
	currencyAmountPattern = regexp.MustCompile(`[` + currencySymbols + `](\d[\d,]*(?:\.\d{1,2})?)`)
	// classic money formatting, matched against whole numeric runs
	moneyTokenPattern   = regexp.MustCompile(`^\d{1,6}\.\d{2}$`)
	numericRunPattern   = regexp.MustCompile(`[\d.,]+`)
	paymentLineKeywords = []string{"total", "amount", "balance", "pay"}
)

// amountPass is one scan strategy of the amount cascade. Passes run in table
// order and never see each other's scores, only which lines an earlier pass
// claimed.
type amountPass struct {
	name string
	// weight is the score of a match on line 0; each line further down scores one less.
	weight int
	// claims marks lines this pass matched so later passes with skipClaimed ignore them.
	claims      bool
	skipClaimed bool
	tokens      func(text string) []string
}

// amountPasses is ordered by decreasing priority
var amountPasses = []amountPass{
	{
		name:   "keyword",
		weight: 1000,
		claims: true,
		tokens: func(text string) []string {
			m := totalKeywordPattern.FindStringSubmatch(text)
			if m == nil {
				return nil
			}
			return []string{m[1]}
		},
	},
	{
		name:        "currency",
		weight:      500,
		skipClaimed: true,
		tokens: func(text string) []string {
			return submatches(currencyAmountPattern, text)
		},
	},
	{
		name:   "decimal",
		weight: 300,
		tokens: func(text string) []string {
			if !containsAny(strings.ToLower(text), paymentLineKeywords) {
				return nil
			}
			var tokens []string
			for _, run := range numericRunPattern.FindAllString(text, -1) {
				if moneyTokenPattern.MatchString(run) {
					tokens = append(tokens, run)
				}
			}
			return tokens
		},
	},
}

// amountObservation is a single scored sighting of a value on a line
type amountObservation struct {
	value decimal.Decimal
	score int
}

// amountCandidate is the accumulated score of one distinct value. first is
// the order in which the value was first observed.
type amountCandidate struct {
	value decimal.Decimal
	score int
	first int
}

// ExtractAmount returns the most likely receipt total. ok is false when no
// pass produced a positive amount.
func ExtractAmount(lines []Line) (amount decimal.Decimal, ok bool) {
	best, found := bestAmount(accumulate(observeAmounts(lines)))
	if !found {
		return decimal.Decimal{}, false
	}
	return best.value, true
}

// observeAmounts runs every pass and returns the observations in pass, line
// and in-line order.
func observeAmounts(lines []Line) []amountObservation {
	var observations []amountObservation
	claimed := make(map[int]bool)
	for _, pass := range amountPasses {
		for _, line := range lines {
			if pass.skipClaimed && claimed[line.Index] {
				continue
			}
			tokens := pass.tokens(line.Text)
			if len(tokens) > 0 && pass.claims {
				claimed[line.Index] = true
			}
			for _, token := range tokens {
				value, ok := parseAmountToken(token)
				if !ok {
					continue
				}
				observations = append(observations, amountObservation{
					value: value,
					score: pass.weight - line.Index,
				})
			}
		}
	}
	return observations
}

// accumulate folds observations into one candidate per distinct value,
// summing scores, in first-seen order
func accumulate(observations []amountObservation) []amountCandidate {
	candidates := make([]amountCandidate, 0, len(observations))
	for _, obs := range observations {
		merged := false
		for i := range candidates {
			if candidates[i].value.Equal(obs.value) {
				candidates[i].score += obs.score
				merged = true
				break
			}
		}
		if !merged {
			candidates = append(candidates, amountCandidate{
				value: obs.value,
				score: obs.score,
				first: len(candidates),
			})
		}
	}
	return candidates
}

// bestAmount picks the highest score; on a tie the earliest observed value wins
func bestAmount(candidates []amountCandidate) (amountCandidate, bool) {
	if len(candidates) == 0 {
		return amountCandidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score || (c.score == best.score && c.first < best.first) {
			best = c
		}
	}
	return best, true
}

// parseAmountToken strips grouping separators and parses a strictly positive amount
func parseAmountToken(token string) (decimal.Decimal, bool) {
	value, err := decimal.NewFromString(strings.ReplaceAll(token, ",", ""))
	if err != nil || !value.IsPositive() {
		return decimal.Decimal{}, false
	}
	return value, true
}

func submatches(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}
