package scanning

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spendsee/receipt-drafts/internal/extraction"
)

// mockRecognizer is a mock implementation of TextRecognizer
type mockRecognizer struct {
	text        string
	err         error
	calls       int
	contentType string
	closed      bool
}

func (m *mockRecognizer) RecognizeText(imageData []byte, contentType string) (string, error) {
	m.calls++
	m.contentType = contentType
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func (m *mockRecognizer) Close() error {
	m.closed = true
	return nil
}

var _ = Describe("TextScanner", func() {
	var (
		recognizer *mockRecognizer
		scanner    *TextScanner
		now        time.Time
	)

	BeforeEach(func() {
		now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		recognizer = &mockRecognizer{
			text: "Corner Market\n03/02/2024 09:15\nApples 2.50\nTOTAL $2.50\n",
		}
		var err error
		scanner, err = NewTextScanner(recognizer, extraction.NewWithClock(time.UTC, func() time.Time { return now }))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewTextScanner", func() {
		It("requires a recognizer", func() {
			_, err := NewTextScanner(nil, nil)
			Expect(err).To(HaveOccurred())
		})

		It("defaults the extractor", func() {
			s, err := NewTextScanner(recognizer, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.extractor).NotTo(BeNil())
		})
	})

	Describe("ScanReceipt", func() {
		var (
			data *ReceiptData
			err  error
		)

		JustBeforeEach(func() {
			data, err = scanner.ScanReceipt([]byte("fake image data"), "image/jpeg")
		})

		When("recognition succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should pass the content type to the recognizer", func() {
				Expect(recognizer.contentType).To(Equal("image/jpeg"))
			})

			It("should draft the receipt from the recognized text", func() {
				Expect(data.Title).To(Equal("Corner Market"))
				Expect(data.Amount.StringFixed(2)).To(Equal("2.50"))
				Expect(data.Date).To(Equal(time.Date(2024, 3, 2, 9, 15, 0, 0, time.UTC)))
				Expect(data.Items).To(Equal([]string{"Apples - 2.50"}))
				Expect(data.RawText).To(Equal(recognizer.text))
			})
		})

		When("recognition fails", func() {
			var setupErr error

			BeforeEach(func() {
				setupErr = errors.New("ocr error")
				recognizer.err = setupErr
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(setupErr))
				Expect(data).To(BeNil())
			})
		})

		When("no text is recognized", func() {
			BeforeEach(func() {
				recognizer.text = " \n "
			})

			It("returns an error", func() {
				Expect(err).To(MatchError(ContainSubstring("no text recognized")))
			})
		})
	})

	Describe("ScanText", func() {
		It("should not call the recognizer", func() {
			data := scanner.ScanText("Total $3.00")
			Expect(recognizer.calls).To(BeZero())
			Expect(data.Amount.StringFixed(2)).To(Equal("3.00"))
			Expect(data.Title).To(Equal("Unknown Expense"))
		})
	})

	Describe("Close", func() {
		It("closes the recognizer", func() {
			Expect(scanner.Close()).To(Succeed())
			Expect(recognizer.closed).To(BeTrue())
		})
	})
})
