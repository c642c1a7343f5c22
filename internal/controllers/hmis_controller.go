package controllers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hmisync/internal/config"
	"hmisync/internal/engine"
	"hmisync/internal/ledger"
	"hmisync/internal/pkg/hmis"
	"hmisync/internal/vendors"
)

type HmisController struct {
	Ledger *ledger.Ledger
	Engine *engine.Engine
	Config *config.Config
}

type scanRequest struct {
	BarCode string `json:"barCode" binding:"required"`
}

// Scan resolves a scanned barcode against the vendor and appends it to the
// ledger. Auto-input fires in the background when the vendor has it on.
func (hc *HmisController) Scan(c *gin.Context) {
	adapter, settings, ok := hc.adapterFor(c)
	if !ok {
		return
	}

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, entry, err := hc.Engine.Scan(c.Request.Context(), adapter, req.BarCode, settings.AutoInput)
	if err != nil {
		log.Printf("%s: scan failed: %v", adapter.Name(), err)
		// Upstream message text goes through verbatim; the operator needs
		// the vendor's own words.
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"axle":   info,
		"record": entry,
	})
}

// Barcodes is the ledger read path for the UI tables.
func (hc *HmisController) Barcodes(c *gin.Context) {
	adapter, _, ok := hc.adapterFor(c)
	if !ok {
		return
	}

	now := time.Now()
	from := parseTimeWithDefault(c.Query("start"), now.Add(-24*time.Hour))
	to := parseTimeWithDefault(c.Query("end"), now)
	limit := getIntWithDefault(c, "limit", 100)
	offset := getIntWithDefault(c, "offset", 0)

	rows, total, err := hc.Ledger.Query(c.Request.Context(), adapter.Name(), from, to, limit, offset)
	if err != nil {
		log.Printf("failed to query ledger: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rows":  rows,
		"total": total,
	})
}

// UploadOne uploads a single ledger entry by id.
func (hc *HmisController) UploadOne(c *gin.Context) {
	adapter, _, ok := hc.adapterFor(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := hc.Engine.UploadOne(c.Request.Context(), adapter, uint(id)); err != nil {
		log.Printf("%s: upload failed: %v", adapter.Name(), err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploaded": true})
}

// UploadPending uploads the whole pending queue in one batch.
func (hc *HmisController) UploadPending(c *gin.Context) {
	adapter, _, ok := hc.adapterFor(c)
	if !ok {
		return
	}

	accepted, err := hc.Engine.UploadBatch(c.Request.Context(), adapter, nil)
	if err != nil {
		log.Printf("%s: batch upload failed: %v", adapter.Name(), err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"dhs": accepted})
}

// Remove deletes one ledger row, an explicit user action.
func (hc *HmisController) Remove(c *gin.Context) {
	adapter, _, ok := hc.adapterFor(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := hc.Ledger.Remove(c.Request.Context(), adapter.Name(), uint(id)); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		log.Printf("failed to remove ledger row: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// Events streams ledger-change notifications as SSE so the UI can refresh
// its tables without polling.
func (hc *HmisController) Events(c *gin.Context) {
	adapter, _, ok := hc.adapterFor(c)
	if !ok {
		return
	}

	changes := make(chan string, 8)
	unsubscribe := hc.Ledger.Subscribe(func(vendor string) {
		if vendor != adapter.Name() {
			return
		}
		select {
		case changes <- vendor:
		default: // client is slow, it will catch up on the next event
		}
	})
	defer unsubscribe()

	c.Stream(func(w io.Writer) bool {
		select {
		case vendor := <-changes:
			c.SSEvent("change", vendor)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (hc *HmisController) adapterFor(c *gin.Context) (adapter hmis.Adapter, settings config.VendorSettings, ok bool) {
	adapter, settings, err := vendors.Adapter(hc.Config, c.Param("vendor"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, settings, false
	}
	return adapter, settings, true
}

// statusFor maps the pipeline's error taxonomy to HTTP statuses.
func statusFor(err error) int {
	var rejected *hmis.UploadRejectedError
	var format *hmis.FormatError
	var transport *hmis.TransportError

	switch {
	case errors.As(err, &rejected), errors.As(err, &format):
		return http.StatusBadGateway
	case errors.As(err, &transport):
		return http.StatusGatewayTimeout
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, hmis.ErrNoResolvableRecords):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func parseTimeWithDefault(value string, defaultValue time.Time) time.Time {
	if value == "" {
		return defaultValue
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Printf("failed to parse time %q: %v, using default", value, err)
		return defaultValue
	}
	return t
}

func getIntWithDefault(c *gin.Context, key string, defaultValue int) int {
	if c.Query(key) == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(c.Query(key))
	if err != nil {
		log.Printf("failed to parse %s: %v, using default value: %d", key, err, defaultValue)
		return defaultValue
	}
	return parsed
}
