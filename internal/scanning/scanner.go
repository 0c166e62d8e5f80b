package scanning

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendsee/receipt-drafts/internal/extraction"
)

// ReceiptData contains the draft information read from a receipt
type ReceiptData struct {
	Title      string                `json:"title"`
	Merchant   string                `json:"merchant,omitempty"`
	Date       time.Time             `json:"date"`
	DateSource extraction.DateSource `json:"date_source"`
	Amount     *decimal.Decimal      `json:"amount"` // nil when no total was found
	Items      []string              `json:"items"`
	RawText    string                `json:"raw_text"`
}

// Scanner defines the interface for receipt scanning operations
type Scanner interface {
	// ScanReceipt reads a receipt image/PDF and drafts its metadata
	ScanReceipt(imageData []byte, contentType string) (*ReceiptData, error)
	// ScanText drafts metadata from text that was already recognized
	ScanText(text string) *ReceiptData
	// Close closes the scanner and releases resources
	Close() error
}

// TextRecognizer turns a receipt image into plain text, one printed line per line
type TextRecognizer interface {
	RecognizeText(imageData []byte, contentType string) (string, error)
	Close() error
}
