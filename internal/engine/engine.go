package engine

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"hmisync/internal/ledger"
	"hmisync/internal/models"
	"hmisync/internal/pkg/hmis"
	"hmisync/internal/pkg/legacy"
)

// Engine drives the scan-to-upload pipeline: resolve a ledger entry against
// the legacy store, classify, build the vendor payload, post, and flip the
// ledger flag. It does not retry; recurrence belongs to the scheduler or
// the operator.
type Engine struct {
	Ledger    *ledger.Ledger
	Gateway   legacy.Gateway
	AutoInput legacy.AutoInputer
}

func New(l *ledger.Ledger, gw legacy.Gateway, ai legacy.AutoInputer) *Engine {
	return &Engine{
		Ledger:    l,
		Gateway:   gw,
		AutoInput: ai,
	}
}

// Scan resolves a barcode against the vendor and appends it to the ledger.
// When autoInput is on, the resolved axle data is pushed to the third-party
// client in the background; that push can fail without affecting the scan.
func (e *Engine) Scan(ctx context.Context, adapter hmis.Adapter, barcode string, autoInput bool) (*hmis.AxleInfo, *models.Barcode, error) {
	info, err := adapter.Get(ctx, barcode)
	if err != nil {
		return nil, nil, err
	}

	entry, err := e.Ledger.Append(ctx, adapter.Name(), info.Barcode, info.AxleID, time.Now())
	if err != nil {
		return nil, nil, err
	}

	if autoInput && e.AutoInput != nil {
		go func(info hmis.AxleInfo) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := e.AutoInput.AutoInputToVC(ctx, legacy.AutoInputParams{
				ZX:     info.Model,
				ZH:     info.AxleID,
				CZZZDW: info.MakeUnit,
				SCZZDW: info.FirstUnit,
				MCZZDW: info.LastUnit,
				CZZZRQ: info.MakeDate,
				SCZZRQ: info.FirstDate,
				MCZZRQ: info.LastDate,
			}); err != nil {
				log.Printf("autoInputToVC failed: %v", err)
			}
		}(*info)
	}

	return info, entry, nil
}

// resolve loads the legacy side of one ledger entry. The lookup window is
// the entry's scan day. Detail rows are queried only for defect results.
func (e *Engine) resolve(ctx context.Context, entry models.Barcode) (*hmis.UploadInput, error) {
	day := entry.ScannedAt.Local()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)
	end := start.Add(24*time.Hour - time.Second)

	detection, err := e.Gateway.GetDetectionByAxle(ctx, entry.AxleID, start, end)
	if err != nil {
		return nil, err
	}

	var rows []legacy.DetectionRow
	if hmis.IsDefect(detection.Result) {
		rows, err = e.Gateway.GetDetectionRows(ctx, detection.ID)
		if err != nil {
			return nil, err
		}
	}

	return &hmis.UploadInput{
		Entry:     entry,
		Detection: detection,
		Rows:      rows,
		Defect:    hmis.Classify(detection.Result, rows),
		User:      detection.User,
	}, nil
}

// UploadOne runs the full pipeline for a single ledger entry. Any stage
// failure fails the call.
func (e *Engine) UploadOne(ctx context.Context, adapter hmis.Adapter, id uint) error {
	entry, err := e.Ledger.Get(ctx, adapter.Name(), id)
	if err != nil {
		return err
	}

	site, err := e.Gateway.GetCorporation(ctx)
	if err != nil {
		return err
	}

	input, err := e.resolve(ctx, *entry)
	if err != nil {
		return err
	}
	input.Site = *site
	input.StationIP = stationIP()

	result, err := adapter.Upload(ctx, []hmis.UploadInput{*input})
	if err != nil {
		return err
	}

	if len(result.Accepted) == 0 {
		return nil
	}

	return e.Ledger.MarkUploaded(ctx, adapter.Name(), []uint{entry.ID})
}

// UploadBatch uploads the given entries, or the whole pending queue when
// ids is empty. Records are resolved independently and concurrently; a
// record that fails resolution is dropped from the batch and logged, and
// only a batch where nothing resolves is an error. The payload list keeps
// the input order. Returns the barcodes the vendor accepted.
func (e *Engine) UploadBatch(ctx context.Context, adapter hmis.Adapter, ids []uint) ([]string, error) {
	vendor := adapter.Name()

	var entries []models.Barcode
	if len(ids) == 0 {
		var err error
		entries, err = e.Ledger.Pending(ctx, vendor)
		if err != nil {
			return nil, err
		}
	} else {
		for _, id := range ids {
			entry, err := e.Ledger.Get(ctx, vendor, id)
			if err != nil {
				return nil, err
			}
			entries = append(entries, *entry)
		}
	}

	if len(entries) == 0 {
		return nil, nil
	}

	// Site config is reference data but changes out from under us; fetch it
	// once per batch, never cache across batches.
	site, err := e.Gateway.GetCorporation(ctx)
	if err != nil {
		return nil, err
	}
	ip := stationIP()

	resolved := make([]*hmis.UploadInput, len(entries))
	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry models.Barcode) {
			defer wg.Done()
			input, err := e.resolve(ctx, entry)
			if err != nil {
				log.Printf("%s: 条码[%s]解析失败: %v", vendor, entry.Barcode, err)
				return
			}
			input.Site = *site
			input.StationIP = ip
			resolved[i] = input
		}(i, entry)
	}
	wg.Wait()

	inputs := make([]hmis.UploadInput, 0, len(resolved))
	for _, input := range resolved {
		if input != nil {
			inputs = append(inputs, *input)
		}
	}

	if len(inputs) == 0 {
		return nil, hmis.ErrNoResolvableRecords
	}

	result, err := adapter.Upload(ctx, inputs)
	if err != nil {
		return nil, err
	}

	accepted := make(map[string]bool, len(result.Accepted))
	for _, dh := range result.Accepted {
		accepted[dh] = true
	}

	var uploadedIDs []uint
	for _, input := range inputs {
		if accepted[input.Entry.Barcode] {
			uploadedIDs = append(uploadedIDs, input.Entry.ID)
		}
	}

	if err := e.Ledger.MarkUploaded(ctx, vendor, uploadedIDs); err != nil {
		return nil, err
	}

	return result.Accepted, nil
}

// stationIP is the first non-loopback IPv4 of the station, stamped into
// payloads as the device identity.
func stationIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if v4 := ipNet.IP.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}
