// Package extraction turns the OCR text of a paper receipt into a draft
// expense record: total, date and time, merchant and line items.
//
// Every extractor is a deterministic function of the normalized lines. The
// result is a best-effort draft meant to be reviewed and edited by a person.
package extraction

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Result is the draft record inferred from one receipt
type Result struct {
	// Amount is nil when no total could be found
	Amount *decimal.Decimal
	// Date is always set; DateSource tells whether it was read or guessed
	Date       time.Time
	DateSource DateSource
	// Merchant is empty when no header line looked like a name
	Merchant string
	Items    []string
	// RawText is the unmodified input
	RawText string
}

type resultWire struct {
	Amount     *string    `json:"amount" yaml:"amount"`
	Date       int64      `json:"date" yaml:"date"`
	DateSource DateSource `json:"date_source" yaml:"date_source"`
	Merchant   string     `json:"merchant,omitempty" yaml:"merchant,omitempty"`
	Items      []string   `json:"items" yaml:"items"`
	RawText    string     `json:"raw_text" yaml:"raw_text"`
}

// MarshalJSON encodes the amount as a two-decimal string and the date as
// epoch milliseconds
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wire())
}

// MarshalYAML uses the same field names and encodings as MarshalJSON
func (r Result) MarshalYAML() (any, error) {
	return r.wire(), nil
}

func (r Result) wire() resultWire {
	out := resultWire{
		Date:       r.Date.UnixMilli(),
		DateSource: r.DateSource,
		Merchant:   r.Merchant,
		Items:      r.Items,
		RawText:    r.RawText,
	}
	if r.Amount != nil {
		amount := r.Amount.StringFixed(2)
		out.Amount = &amount
	}
	if out.Items == nil {
		out.Items = []string{}
	}
	return out
}

// Extractor runs the extraction pipeline. It holds no per-call state and is
// safe for concurrent use.
type Extractor struct {
	location *time.Location
	now      func() time.Time
}

// New creates an Extractor that reads dates in loc (time.Local when nil)
func New(loc *time.Location) *Extractor {
	return NewWithClock(loc, time.Now)
}

// NewWithClock creates an Extractor with a custom clock for the date fallbacks
func NewWithClock(loc *time.Location, now func() time.Time) *Extractor {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Extractor{location: loc, now: now}
}

// Extract infers a Result from raw receipt text. Missing fields are left
// empty; it never fails.
func (e *Extractor) Extract(rawText string) Result {
	lines := Lines(rawText)

	result := Result{
		Items:   ExtractItems(lines),
		RawText: rawText,
	}
	if amount, ok := ExtractAmount(lines); ok {
		result.Amount = &amount
	}
	result.Date, result.DateSource = ExtractDateTime(lines, e.now(), e.location)
	if merchant, ok := ExtractMerchant(lines); ok {
		result.Merchant = merchant
	}
	return result
}

var defaultExtractor = New(nil)

// Extract runs the default Extractor (local time zone, wall clock)
func Extract(rawText string) Result {
	return defaultExtractor.Extract(rawText)
}
