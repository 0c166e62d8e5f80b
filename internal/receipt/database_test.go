package receipt

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spendsee/receipt-drafts/internal/extraction"
)

var _ = Describe("BoltDB", func() {
	var (
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveReceipt", func() {
		var (
			receipt *Receipt
			err     error
		)

		BeforeEach(func() {
			receipt = &Receipt{
				ID:          "test-id",
				Title:       "Corner Pharmacy",
				Merchant:    "Corner Pharmacy",
				Date:        time.Date(2024, 1, 15, 14, 5, 0, 0, time.UTC),
				DateSource:  extraction.DateFound,
				Amount:      2599,
				Items:       []string{"Bandages - 5.99"},
				RawText:     "CORNER PHARMACY",
				Filename:    "test.jpg",
				ContentType: "image/jpeg",
			}
		})

		JustBeforeEach(func() {
			err = db.SaveReceipt(receipt)
		})

		When("saving succeeds", func() {
			It("does not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("stores every field", func() {
				saved, getErr := db.GetReceipt("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Merchant).To(Equal("Corner Pharmacy"))
				Expect(saved.Date.Equal(receipt.Date)).To(BeTrue())
				Expect(saved.DateSource).To(Equal(extraction.DateFound))
				Expect(saved.Amount).To(Equal(2599))
				Expect(saved.Items).To(Equal([]string{"Bandages - 5.99"}))
				Expect(saved.RawText).To(Equal("CORNER PHARMACY"))
			})
		})

		When("the receipt is saved again", func() {
			BeforeEach(func() {
				Expect(db.SaveReceipt(&Receipt{ID: "test-id", Title: "Old"})).To(Succeed())
			})

			It("replaces the stored receipt", func() {
				saved, getErr := db.GetReceipt("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Title).To(Equal("Corner Pharmacy"))
			})
		})

		When("the receipt has no ID", func() {
			BeforeEach(func() {
				receipt.ID = ""
			})

			It("returns an error", func() {
				Expect(err).To(MatchError(ContainSubstring("ID is required")))
			})
		})
	})

	Describe("InsertReceipt", func() {
		var (
			receipt *Receipt
			err     error
		)

		BeforeEach(func() {
			receipt = &Receipt{ID: "draft-id", Title: "Corner Pharmacy", Amount: 4200, Filename: "draft-id_a.jpg"}
		})

		JustBeforeEach(func() {
			err = db.InsertReceipt(receipt)
		})

		When("the ID is new", func() {
			It("stores the receipt", func() {
				Expect(err).NotTo(HaveOccurred())
				saved, getErr := db.GetReceipt("draft-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Amount).To(Equal(4200))
			})
		})

		When("the ID is already stored", func() {
			BeforeEach(func() {
				Expect(db.InsertReceipt(&Receipt{ID: "draft-id", Title: "First", Amount: 100, Filename: "draft-id_first.jpg"})).To(Succeed())
			})

			It("returns ErrReceiptExists", func() {
				Expect(err).To(MatchError(ErrReceiptExists))
			})

			It("keeps the stored receipt", func() {
				saved, getErr := db.GetReceipt("draft-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Title).To(Equal("First"))
				Expect(saved.Amount).To(Equal(100))
				Expect(saved.Filename).To(Equal("draft-id_first.jpg"))
			})
		})

		When("the receipt has no ID", func() {
			BeforeEach(func() {
				receipt.ID = ""
			})

			It("returns an error", func() {
				Expect(err).To(MatchError(ContainSubstring("ID is required")))
			})
		})
	})

	Describe("GetReceipt", func() {
		var (
			receiptID string
			receipt   *Receipt
			err       error
		)

		JustBeforeEach(func() {
			receipt, err = db.GetReceipt(receiptID)
		})

		When("receipt exists", func() {
			BeforeEach(func() {
				receiptID = "test-id"
				Expect(db.SaveReceipt(&Receipt{
					ID:     "test-id",
					Title:  "Test Receipt",
					Amount: 2599,
				})).To(Succeed())
			})

			It("returns the receipt", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipt.ID).To(Equal("test-id"))
				Expect(receipt.Title).To(Equal("Test Receipt"))
				Expect(receipt.Amount).To(Equal(2599))
			})
		})

		When("receipt does not exist", func() {
			BeforeEach(func() {
				receiptID = "nonexistent"
			})

			It("returns ErrReceiptNotFound", func() {
				Expect(err).To(MatchError(ErrReceiptNotFound))
				Expect(err).To(MatchError(ContainSubstring("nonexistent")))
			})
		})
	})

	Describe("ListReceipts", func() {
		var (
			receipts []*Receipt
			err      error
		)

		JustBeforeEach(func() {
			receipts, err = db.ListReceipts()
		})

		When("receipts exist", func() {
			BeforeEach(func() {
				for _, r := range []*Receipt{
					{ID: "a", Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
					{ID: "b", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
					{ID: "c", Date: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)},
				} {
					Expect(db.SaveReceipt(r)).To(Succeed())
				}
			})

			It("returns the newest receipt date first", func() {
				Expect(err).NotTo(HaveOccurred())
				ids := make([]string, 0, len(receipts))
				for _, r := range receipts {
					ids = append(ids, r.ID)
				}
				Expect(ids).To(Equal([]string{"b", "c", "a"}))
			})
		})

		When("no receipts exist", func() {
			It("returns an empty, non-nil list", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).NotTo(BeNil())
				Expect(receipts).To(BeEmpty())
			})
		})
	})

	Describe("DeleteReceipt", func() {
		var (
			receiptID string
			err       error
		)

		JustBeforeEach(func() {
			err = db.DeleteReceipt(receiptID)
		})

		When("receipt exists", func() {
			BeforeEach(func() {
				receiptID = "test-id"
				Expect(db.SaveReceipt(&Receipt{ID: "test-id"})).To(Succeed())
			})

			It("removes the receipt from the database", func() {
				Expect(err).NotTo(HaveOccurred())
				_, getErr := db.GetReceipt("test-id")
				Expect(getErr).To(MatchError(ErrReceiptNotFound))
			})
		})

		When("receipt does not exist", func() {
			BeforeEach(func() {
				receiptID = "nonexistent"
			})

			It("returns ErrReceiptNotFound", func() {
				Expect(err).To(MatchError(ErrReceiptNotFound))
			})
		})
	})

	Describe("reopening", func() {
		It("keeps committed receipts", func() {
			Expect(db.SaveReceipt(&Receipt{ID: "kept", Title: "Kept"})).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())

			saved, err := db.GetReceipt("kept")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Title).To(Equal("Kept"))
		})
	})
})
