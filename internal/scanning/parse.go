package scanning

import (
	"strings"

	"github.com/spendsee/receipt-drafts/internal/extraction"
)

const unknownTitle = "Unknown Expense"

// newReceiptData converts an extraction result into ReceiptData, titling it
// after the merchant when one was found
func newReceiptData(result extraction.Result) *ReceiptData {
	title := strings.TrimSpace(result.Merchant)
	if title == "" {
		title = unknownTitle
	}
	items := result.Items
	if items == nil {
		items = []string{}
	}
	return &ReceiptData{
		Title:      title,
		Merchant:   result.Merchant,
		Date:       result.Date,
		DateSource: result.DateSource,
		Amount:     result.Amount,
		Items:      items,
		RawText:    result.RawText,
	}
}

// cleanTranscript strips the markdown fences LLMs like to wrap text in
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line, which may carry a language tag
	if idx := strings.Index(text, "\n"); idx != -1 {
		text = text[idx+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
