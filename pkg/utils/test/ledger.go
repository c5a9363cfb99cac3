package testutils

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/toolbox/pkg/storage"
)

// NewCallRecord builds a populated record for ledger tests.
func NewCallRecord(id string, startedAt time.Time) *storage.CallRecord {
	return &storage.CallRecord{
		ID:         id,
		Tool:       "code_analyze",
		Provider:   "anthropic",
		Model:      "claude-3-5-sonnet-20241022",
		Success:    true,
		Attempts:   1,
		StartedAt:  startedAt.UTC(),
		DurationMs: 42,
	}
}

// DescribeLedger registers the behavior every storage.Driver must satisfy.
// newDriver is called before each test and must return an empty ledger.
func DescribeLedger(newDriver func() storage.Driver) bool {
	return Describe("ledger behavior", func() {
		var (
			ctx    context.Context
			driver storage.Driver
			base   time.Time
		)

		BeforeEach(func() {
			ctx = context.Background()
			driver = newDriver()
			base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("round-trips a record", func() {
			rec := NewCallRecord("call-1", base)
			rec.Success = false
			rec.Error = "model not found: x"
			rec.Attempts = 3
			rec.Target = "https://example.com"

			Expect(driver.Put(ctx, rec)).To(Succeed())

			got, err := driver.Get(ctx, "call-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(rec))
		})

		It("returns NotFoundError for unknown ids", func() {
			_, err := driver.Get(ctx, "missing")
			Expect(err).To(HaveOccurred())

			var nf storage.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
			Expect(nf.ID).To(Equal("missing"))
		})

		It("rejects nil records", func() {
			Expect(driver.Put(ctx, nil)).To(MatchError(storage.ErrNilRecord))
		})

		It("overwrites a record stored twice", func() {
			rec := NewCallRecord("call-1", base)
			Expect(driver.Put(ctx, rec)).To(Succeed())

			rec.Model = "claude-3-opus-20240229"
			Expect(driver.Put(ctx, rec)).To(Succeed())

			got, err := driver.Get(ctx, "call-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Model).To(Equal("claude-3-opus-20240229"))

			all, err := driver.List(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})

		It("lists newest first up to the limit", func() {
			for i := range 5 {
				rec := NewCallRecord(fmt.Sprintf("call-%d", i), base.Add(time.Duration(i)*time.Minute))
				Expect(driver.Put(ctx, rec)).To(Succeed())
			}

			got, err := driver.List(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(3))
			Expect(got[0].ID).To(Equal("call-4"))
			Expect(got[1].ID).To(Equal("call-3"))
			Expect(got[2].ID).To(Equal("call-2"))
		})

		It("applies the default limit when none is given", func() {
			Expect(driver.Put(ctx, NewCallRecord("call-1", base))).To(Succeed())

			got, err := driver.List(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
		})

		It("lists nothing from an empty ledger", func() {
			got, err := driver.List(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})
	})
}
