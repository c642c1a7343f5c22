package controllers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"hmisync/internal/config"
	"hmisync/internal/engine"
	"hmisync/internal/ledger"
	"hmisync/internal/models"
	"hmisync/internal/routes"
	"hmisync/internal/testhelpers"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HmisController", func() {
	var (
		l       *ledger.Ledger
		gateway *testhelpers.FakeGateway
		router  *gin.Engine
		ctx     context.Context
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		ctx = context.Background()

		cfg, err := config.LoadConfig()
		Expect(err).NotTo(HaveOccurred())

		_, l = testhelpers.OpenTestLedger(GinkgoT().TempDir())
		gateway = testhelpers.NewFakeGateway()

		router = routes.SetupRouter(l, engine.New(l, gateway, gateway), cfg)
	})

	perform := func(method, target, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, target, nil)
		} else {
			req = httptest.NewRequest(method, target, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("reports health", func() {
		w := perform(http.MethodGet, "/health", "")
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("rejects an unknown vendor", func() {
		w := perform(http.MethodGet, "/api/v1/hmis/nope/barcodes", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	Describe("GET /api/v1/hmis/:vendor/barcodes", func() {
		BeforeEach(func() {
			_, err := l.Append(ctx, "hxzy", "BC1", "AX1", time.Now().Add(-2*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			_, err = l.Append(ctx, "hxzy", "BC2", "AX2", time.Now().Add(-time.Hour))
			Expect(err).NotTo(HaveOccurred())
			_, err = l.Append(ctx, "jtv", "BC3", "AX3", time.Now())
			Expect(err).NotTo(HaveOccurred())
		})

		It("lists the vendor's rows newest first", func() {
			w := perform(http.MethodGet, "/api/v1/hmis/hxzy/barcodes", "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var body struct {
				Rows  []models.Barcode `json:"rows"`
				Total int64            `json:"total"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())

			Expect(body.Total).To(Equal(int64(2)))
			Expect(body.Rows).To(HaveLen(2))
			Expect(body.Rows[0].Barcode).To(Equal("BC2"))
			Expect(body.Rows[1].Barcode).To(Equal("BC1"))
		})

		It("honors the date range", func() {
			start := time.Now().Add(-90 * time.Minute).Format(time.RFC3339)
			w := perform(http.MethodGet, "/api/v1/hmis/hxzy/barcodes?start="+start, "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var body struct {
				Rows []models.Barcode `json:"rows"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())

			Expect(body.Rows).To(HaveLen(1))
			Expect(body.Rows[0].Barcode).To(Equal("BC2"))
		})

		It("honors limit and offset", func() {
			w := perform(http.MethodGet, "/api/v1/hmis/hxzy/barcodes?limit=1&offset=1", "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var body struct {
				Rows  []models.Barcode `json:"rows"`
				Total int64            `json:"total"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())

			Expect(body.Total).To(Equal(int64(2)))
			Expect(body.Rows).To(HaveLen(1))
			Expect(body.Rows[0].Barcode).To(Equal("BC1"))
		})
	})

	Describe("POST /api/v1/hmis/:vendor/scan", func() {
		It("rejects a body without a barcode", func() {
			w := perform(http.MethodPost, "/api/v1/hmis/hxzy/scan", `{}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("POST /api/v1/hmis/:vendor/barcodes/:id/upload", func() {
		It("rejects a non-numeric id", func() {
			w := perform(http.MethodPost, "/api/v1/hmis/hxzy/barcodes/abc/upload", "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("reports a missing row", func() {
			w := perform(http.MethodPost, "/api/v1/hmis/hxzy/barcodes/42/upload", "")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("POST /api/v1/hmis/:vendor/upload", func() {
		It("returns an empty accepted list for an empty queue", func() {
			w := perform(http.MethodPost, "/api/v1/hmis/hxzy/upload", "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var body struct {
				DHS []string `json:"dhs"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body.DHS).To(BeEmpty())
		})

		It("reports an unresolvable queue", func() {
			// a pending record with no matching test record
			_, err := l.Append(ctx, "hxzy", "BC1", "AX1", time.Now())
			Expect(err).NotTo(HaveOccurred())

			w := perform(http.MethodPost, "/api/v1/hmis/hxzy/upload", "")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("DELETE /api/v1/hmis/:vendor/barcodes/:id", func() {
		It("removes a row", func() {
			entry, err := l.Append(ctx, "hxzy", "BC1", "AX1", time.Now())
			Expect(err).NotTo(HaveOccurred())

			w := perform(http.MethodDelete, fmt.Sprintf("/api/v1/hmis/hxzy/barcodes/%d", entry.ID), "")
			Expect(w.Code).To(Equal(http.StatusOK))

			w = perform(http.MethodGet, "/api/v1/hmis/hxzy/barcodes", "")
			var body struct {
				Total int64 `json:"total"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Total).To(BeZero())
		})

		It("reports a missing row", func() {
			w := perform(http.MethodDelete, "/api/v1/hmis/hxzy/barcodes/42", "")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
