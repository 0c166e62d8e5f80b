package scanning

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spendsee/receipt-drafts/internal/extraction"
)

// TextScanner implements the Scanner interface by running OCR and then the
// heuristic extraction pipeline over the recognized text
type TextScanner struct {
	recognizer TextRecognizer
	extractor  *extraction.Extractor
}

// NewTextScanner creates a new TextScanner instance
func NewTextScanner(recognizer TextRecognizer, extractor *extraction.Extractor) (*TextScanner, error) {
	if recognizer == nil {
		return nil, fmt.Errorf("text recognizer is required")
	}
	if extractor == nil {
		extractor = extraction.New(nil)
	}
	return &TextScanner{
		recognizer: recognizer,
		extractor:  extractor,
	}, nil
}

// ScanReceipt recognizes the text of a receipt image and drafts its metadata.
// Extraction is not attempted when OCR fails or finds no text.
func (s *TextScanner) ScanReceipt(imageData []byte, contentType string) (*ReceiptData, error) {
	text, err := s.recognizer.RecognizeText(imageData, contentType)
	if err != nil {
		return nil, fmt.Errorf("recognizing text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text recognized in receipt")
	}
	return s.ScanText(text), nil
}

// ScanText drafts metadata from already recognized receipt text
func (s *TextScanner) ScanText(text string) *ReceiptData {
	result := s.extractor.Extract(text)
	slog.Debug("Extracted receipt fields",
		"has_amount", result.Amount != nil,
		"date_source", result.DateSource,
		"has_merchant", result.Merchant != "",
		"items", len(result.Items),
	)
	return newReceiptData(result)
}

// Close closes the underlying recognizer
func (s *TextScanner) Close() error {
	return s.recognizer.Close()
}
