package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hmisync/internal/pkg/legacy"
)

// FakeGateway is an in-memory legacy.Gateway for specs: detections keyed by
// axle id, detail rows keyed by detection id. It counts row lookups so
// specs can assert the non-defect short circuit.
type FakeGateway struct {
	mu sync.Mutex

	Detections  map[string]*legacy.Detection
	Rows        map[string][]legacy.DetectionRow
	Site        legacy.Corporation
	SiteErr     error
	RowLookups  int
	AutoInputed []legacy.AutoInputParams
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		Detections: make(map[string]*legacy.Detection),
		Rows:       make(map[string][]legacy.DetectionRow),
		Site:       legacy.Corporation{DeviceNO: "DEV-01"},
	}
}

func (f *FakeGateway) GetDetectionByAxle(ctx context.Context, axleID string, start, end time.Time) (*legacy.Detection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	detection, ok := f.Detections[axleID]
	if !ok {
		return nil, fmt.Errorf("轴号[%s]: %w", axleID, legacy.ErrDetectionNotFound)
	}
	return detection, nil
}

func (f *FakeGateway) GetDetectionRows(ctx context.Context, opid string) ([]legacy.DetectionRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RowLookups++
	return f.Rows[opid], nil
}

func (f *FakeGateway) GetCorporation(ctx context.Context) (*legacy.Corporation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SiteErr != nil {
		return nil, f.SiteErr
	}
	site := f.Site
	return &site, nil
}

func (f *FakeGateway) AutoInputToVC(ctx context.Context, params legacy.AutoInputParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AutoInputed = append(f.AutoInputed, params)
	return "ok", nil
}

// SetDetection installs a test record, safe while a loop is reading.
func (f *FakeGateway) SetDetection(detection *legacy.Detection, rows ...legacy.DetectionRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Detections[detection.AxleID] = detection
	f.Rows[detection.ID] = rows
}

// RemoveDetection drops a test record, safe while a loop is reading.
func (f *FakeGateway) RemoveDetection(axleID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Detections, axleID)
}

// RowLookupCount reports how many times detail rows were queried.
func (f *FakeGateway) RowLookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.RowLookups
}

// AutoInputedParams returns a copy of the auto-input calls seen so far,
// safe to poll from Eventually while the background push runs.
func (f *FakeGateway) AutoInputedParams() []legacy.AutoInputParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]legacy.AutoInputParams, len(f.AutoInputed))
	copy(out, f.AutoInputed)
	return out
}
