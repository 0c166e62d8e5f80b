package receipt

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendsee/receipt-drafts/internal/extraction"
	"github.com/spendsee/receipt-drafts/internal/scanning"
)

// Receipt is an expense read from a receipt. Scanned receipts start as
// unsaved drafts whose fields the user may correct before committing them.
type Receipt struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Merchant    string                `json:"merchant,omitempty"`
	Date        time.Time             `json:"date"`
	DateSource  extraction.DateSource `json:"date_source,omitempty"` // how the date was obtained when drafted
	Amount      int                   `json:"amount"`                // Amount in cents
	Items       []string              `json:"items"`
	RawText     string                `json:"raw_text,omitempty"`
	Filename    string                `json:"filename,omitempty"`
	ContentType string                `json:"content_type,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// ReceiptUpdate is a partial correction to a committed receipt. Omitted
// fields keep their stored values.
type ReceiptUpdate struct {
	Title    *string    `json:"title,omitempty"`
	Merchant *string    `json:"merchant,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
	Amount   *int       `json:"amount,omitempty"`
	Items    *[]string  `json:"items,omitempty"`
}

// newDraft builds an unsaved receipt from scanned data
func newDraft(id string, data *scanning.ReceiptData) *Receipt {
	items := data.Items
	if items == nil {
		items = []string{}
	}
	return &Receipt{
		ID:         id,
		Title:      data.Title,
		Merchant:   data.Merchant,
		Date:       data.Date,
		DateSource: data.DateSource,
		Amount:     toCents(data.Amount),
		Items:      items,
		RawText:    data.RawText,
	}
}

// toCents converts a dollar amount to whole cents, rounding half away from
// zero. A missing amount is 0.
func toCents(amount *decimal.Decimal) int {
	if amount == nil {
		return 0
	}
	return int(amount.Shift(2).Round(0).IntPart())
}
