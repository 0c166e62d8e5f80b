package receipt

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spendsee/receipt-drafts/internal/scanning"
)

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// defaultTitle is used when a receipt is committed without a title
const defaultTitle = "Unknown Expense"

// ErrDraftFileUnavailable is returned when a committed draft names a file
// that was not scanned for it or whose upload has expired
var ErrDraftFileUnavailable = errors.New("draft file is not available")

// Service drafts receipts from images or text and stores committed ones
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	drafts      *draftUploads
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner scanning.Scanner, storage Storage) *Service {
	return NewServiceWithDeps(db, scanner, storage, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		drafts:      newDraftUploads(),
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	filenameSpecialChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	filenameSpaces       = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up phone-generated filenames: special characters
// are removed and the base name is truncated to 50 characters
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filenameSpecialChars.ReplaceAllString(filepath.Ext(filename), ""))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = filenameSpecialChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(filenameSpaces.ReplaceAllString(base, " "))

	const maxLen = 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "receipt"
	}
	if ext != "" {
		ext = "." + ext
	}
	return base + ext
}

// ScanReceipt drafts metadata from an uploaded receipt file. The draft is
// not saved and its file is held in memory; commit it with CreateReceipt
// before the upload expires.
func (s *Service) ScanReceipt(filename string, data []byte, contentType string) (*Receipt, error) {
	id := s.idGenerator.Generate()

	receiptData, err := s.scanner.ScanReceipt(data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	draft := newDraft(id, receiptData)
	draft.Filename = fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	draft.ContentType = contentType

	s.drafts.put(id, &pendingUpload{
		filename:    draft.Filename,
		contentType: contentType,
		data:        data,
		scannedAt:   s.timeSource.Now(),
	})

	slog.Info("Drafted receipt", "id", id, "title", draft.Title, "amount", draft.Amount, "date_source", draft.DateSource)
	return draft, nil
}

// DraftFromText drafts receipt metadata from text that was already
// recognized, for callers that run their own OCR. Nothing is stored.
func (s *Service) DraftFromText(text string) *Receipt {
	draft := newDraft(s.idGenerator.Generate(), s.scanner.ScanText(text))
	slog.Info("Drafted receipt from text", "id", draft.ID, "title", draft.Title, "amount", draft.Amount)
	return draft
}

// CreateReceipt commits a new receipt, usually a draft the user has
// reviewed. A scanned draft's file is written to storage here. Committing an
// ID that is already stored fails with ErrReceiptExists.
func (s *Service) CreateReceipt(receipt *Receipt) error {
	if receipt.ID == "" {
		receipt.ID = s.idGenerator.Generate()
	}
	if strings.TrimSpace(receipt.Title) == "" {
		receipt.Title = defaultTitle
	}
	if receipt.Items == nil {
		receipt.Items = []string{}
	}

	now := s.timeSource.Now()
	receipt.CreatedAt = now
	receipt.UpdatedAt = now

	if _, err := s.db.GetReceipt(receipt.ID); err == nil {
		return fmt.Errorf("%w: %s", ErrReceiptExists, receipt.ID)
	} else if !errors.Is(err, ErrReceiptNotFound) {
		return fmt.Errorf("checking for receipt: %w", err)
	}

	var upload *pendingUpload
	receipt.ContentType = ""
	if receipt.Filename != "" {
		var ok bool
		if strings.HasPrefix(receipt.Filename, receipt.ID+"_") {
			upload, ok = s.drafts.peek(receipt.ID, receipt.Filename, now)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrDraftFileUnavailable, receipt.Filename)
		}
		receipt.ContentType = upload.contentType
	}

	if err := s.db.InsertReceipt(receipt); err != nil {
		return fmt.Errorf("saving receipt to database: %w", err)
	}

	if upload != nil {
		if _, err := s.storage.Save(upload.filename, upload.data); err != nil {
			if delErr := s.db.DeleteReceipt(receipt.ID); delErr != nil {
				slog.Warn("Failed to roll back receipt", "id", receipt.ID, "error", delErr)
			}
			return fmt.Errorf("saving file: %w", err)
		}
		s.drafts.remove(receipt.ID)
	}
	return nil
}

// UpdateReceipt applies user corrections to a committed receipt. Fields the
// update omits are kept; the file, raw text and creation time never change.
func (s *Service) UpdateReceipt(id string, update *ReceiptUpdate) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt for update: %w", err)
	}

	if update.Title != nil {
		receipt.Title = *update.Title
		if strings.TrimSpace(receipt.Title) == "" {
			receipt.Title = defaultTitle
		}
	}
	if update.Merchant != nil {
		receipt.Merchant = *update.Merchant
	}
	if update.Date != nil {
		receipt.Date = *update.Date
	}
	if update.Amount != nil {
		receipt.Amount = *update.Amount
	}
	if update.Items != nil {
		receipt.Items = *update.Items
		if receipt.Items == nil {
			receipt.Items = []string{}
		}
	}
	receipt.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveReceipt(receipt); err != nil {
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}
	return receipt, nil
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all committed receipts
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt and its file
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if receipt.Filename != "" {
		if err := s.storage.Delete(receipt.Filename); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
		}
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the file data for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}
	if receipt.Filename == "" {
		return nil, "", fmt.Errorf("receipt %s has no file", id)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}
