package client

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RetryPolicy", func() {
	Describe("backoff", func() {
		policy := RetryPolicy{
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     time.Second,
		}

		It("doubles per attempt within jitter bounds", func() {
			for attempt, base := range []time.Duration{
				100 * time.Millisecond,
				200 * time.Millisecond,
				400 * time.Millisecond,
				800 * time.Millisecond,
			} {
				d := policy.backoff(uint(attempt))
				Expect(d).To(BeNumerically(">=", base/2), "attempt %d", attempt)
				Expect(d).To(BeNumerically("<=", base), "attempt %d", attempt)
			}
		})

		It("caps at MaxBackoff", func() {
			for _, attempt := range []uint{4, 10, 16, 64} {
				d := policy.backoff(attempt)
				Expect(d).To(BeNumerically(">=", policy.MaxBackoff/2))
				Expect(d).To(BeNumerically("<=", policy.MaxBackoff))
			}
		})

		It("returns zero for a zero policy", func() {
			Expect(RetryPolicy{}.backoff(0)).To(BeZero())
		})
	})

	Describe("retryableStatus", func() {
		It("retries rate limits and server failures only", func() {
			for _, code := range []int{429, 500, 502, 503, 504} {
				Expect(retryableStatus(code)).To(BeTrue(), "status %d", code)
			}
			for _, code := range []int{200, 201, 400, 401, 403, 404, 422} {
				Expect(retryableStatus(code)).To(BeFalse(), "status %d", code)
			}
		})
	})
})

var _ = Describe("parseRetryAfter", func() {
	It("parses delay seconds", func() {
		d, ok := parseRetryAfter("3")
		Expect(ok).To(BeTrue())
		Expect(d).To(Equal(3 * time.Second))
	})

	It("parses an HTTP date", func() {
		h := time.Now().Add(5 * time.Second).UTC().Format(http.TimeFormat)

		d, ok := parseRetryAfter(h)
		Expect(ok).To(BeTrue())
		Expect(d).To(BeNumerically(">", 0))
		Expect(d).To(BeNumerically("<=", 5*time.Second))
	})

	It("treats a past date as an immediate retry", func() {
		h := time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)

		d, ok := parseRetryAfter(h)
		Expect(ok).To(BeTrue())
		Expect(d).To(BeZero())
	})

	It("rejects unparseable values", func() {
		for _, h := range []string{"", "soon", "-5"} {
			_, ok := parseRetryAfter(h)
			Expect(ok).To(BeFalse(), "header %q", h)
		}
	})
})

var _ = Describe("decodeAPIError", func() {
	It("prefers the error envelope", func() {
		apiErr := decodeAPIError(429, []byte(`{"error":{"message":"slow down","type":"rate_limit_error","code":"rate_limited"}}`))
		Expect(apiErr.StatusCode).To(Equal(429))
		Expect(apiErr.Message).To(Equal("slow down"))
		Expect(apiErr.Type).To(Equal("rate_limit_error"))
		Expect(apiErr.Code).To(Equal("rate_limited"))
	})

	It("falls back to the trimmed body", func() {
		apiErr := decodeAPIError(502, []byte("  bad gateway\n"))
		Expect(apiErr.Message).To(Equal("bad gateway"))
	})

	It("falls back to the status text", func() {
		apiErr := decodeAPIError(503, nil)
		Expect(apiErr.Message).To(Equal("Service Unavailable"))
	})
})
