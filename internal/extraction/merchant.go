package extraction

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const merchantScanLines = 5

// merchantExclusions mark header lines that are receipt furniture rather than a name
var merchantExclusions = []string{
	"receipt", "tax", "total", "subtotal", "amount", "date", "time",
	"cashier", "invoice", "transaction", "payment", "change", "cash",
}

// ExtractMerchant returns the first mostly-alphabetic header line that is not
// receipt boilerplate
func ExtractMerchant(lines []Line) (string, bool) {
	for _, line := range head(lines, merchantScanLines) {
		if containsAny(strings.ToLower(line.Text), merchantExclusions) {
			continue
		}
		if looksLikeName(line.Text) {
			return line.Text, true
		}
	}
	return "", false
}

// looksLikeName requires more than 3 characters, over 60% of them letters
func looksLikeName(text string) bool {
	length := utf8.RuneCountInString(text)
	if length <= 3 {
		return false
	}
	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return float64(letters)/float64(length) > 0.6
}
