package receipt

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		baseDir    string
		receiptDir string
		storage    *LocalStorage
	)

	BeforeEach(func() {
		baseDir = GinkgoT().TempDir()
		receiptDir = filepath.Join(baseDir, "receipts")
		var err error
		storage, err = NewLocalStorage(receiptDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates the receipt directory", func() {
		Expect(receiptDir).To(BeADirectory())
	})

	It("opens an existing receipt directory", func() {
		_, err := NewLocalStorage(receiptDir)
		Expect(err).NotTo(HaveOccurred())
	})

	When("a committed draft's file is saved", func() {
		var (
			name string
			err  error
		)

		BeforeEach(func() {
			name, err = storage.Save("draft-1_pharmacy.jpg", []byte("jpeg bytes"))
		})

		It("returns the name it is stored under", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("draft-1_pharmacy.jpg"))
			Expect(filepath.Join(receiptDir, name)).To(BeAnExistingFile())
		})

		It("reads it back", func() {
			data, getErr := storage.Get(name)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("jpeg bytes")))
		})

		It("deletes it", func() {
			Expect(storage.Delete(name)).To(Succeed())
			Expect(filepath.Join(receiptDir, name)).NotTo(BeAnExistingFile())

			_, getErr := storage.Get(name)
			Expect(getErr).To(MatchError(ContainSubstring("reading file")))
		})
	})

	When("the file was never saved", func() {
		It("fails to read it", func() {
			_, err := storage.Get("draft-2_missing.jpg")
			Expect(err).To(MatchError(ContainSubstring("reading file")))
		})

		It("fails to delete it", func() {
			Expect(storage.Delete("draft-2_missing.jpg")).To(MatchError(ContainSubstring("deleting file")))
		})
	})

	Describe("names outside the receipt directory", func() {
		var outside string

		BeforeEach(func() {
			outside = filepath.Join(baseDir, "outside.jpg")
			Expect(os.WriteFile(outside, []byte("not a receipt"), 0644)).To(Succeed())
		})

		DescribeTable("are rejected by Save",
			func(name string) {
				_, err := storage.Save(name, []byte("jpeg bytes"))
				Expect(err).To(MatchError(ContainSubstring("invalid file name")))
				Expect(outside).To(BeAnExistingFile())
			},
			Entry("parent directory", "../outside.jpg"),
			Entry("nested path", "draft-1/pharmacy.jpg"),
			Entry("empty", ""),
			Entry("dot", "."),
			Entry("dot dot", ".."),
		)

		DescribeTable("are rejected by Get",
			func(name string) {
				data, err := storage.Get(name)
				Expect(err).To(MatchError(ContainSubstring("invalid file name")))
				Expect(data).To(BeNil())
			},
			Entry("parent directory", "../outside.jpg"),
			Entry("absolute path", "/tmp/outside.jpg"),
			Entry("empty", ""),
		)

		DescribeTable("are rejected by Delete",
			func(name string) {
				err := storage.Delete(name)
				Expect(err).To(MatchError(ContainSubstring("invalid file name")))
				Expect(outside).To(BeAnExistingFile())
			},
			Entry("parent directory", "../outside.jpg"),
			Entry("nested path", "receipts/../../outside.jpg"),
			Entry(".. alone", ".."),
		)
	})
})
