package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxItems caps the number of line items in a Result
const MaxItems = 10

// name, whitespace, then a trailing non-negative number such as "1,299.5"
var itemLinePattern = regexp.MustCompile(`^(.+?)\s+(\d[\d,]*(?:\.\d+)?)$`)

var itemExclusions = []string{"total", "tax", "subtotal"}

// ExtractItems collects "name - price" entries in line order, up to MaxItems
func ExtractItems(lines []Line) []string {
	items := make([]string, 0)
	for _, line := range lines {
		if len(items) == MaxItems {
			break
		}
		m := itemLinePattern.FindStringSubmatch(line.Text)
		if m == nil {
			continue
		}
		name, price := strings.TrimSpace(m[1]), m[2]
		if utf8.RuneCountInString(name) <= 2 || containsAny(strings.ToLower(name), itemExclusions) {
			continue
		}
		items = append(items, name+" - "+price)
	}
	return items
}
