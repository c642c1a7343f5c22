package legacy

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDetectionNotFound   = errors.New("detection record not found")
	ErrCorporationNotFound = errors.New("corporation record not found")
)

// Gateway is the read path into the legacy inspection store. Lookups are
// parameterized; no SQL text crosses this boundary.
type Gateway interface {
	// GetDetectionByAxle resolves the newest test event for an axle within
	// the given time window. Returns ErrDetectionNotFound when absent.
	GetDetectionByAxle(ctx context.Context, axleID string, start, end time.Time) (*Detection, error)

	// GetDetectionRows returns the channel readings of a test event.
	GetDetectionRows(ctx context.Context, opid string) ([]DetectionRow, error)

	// GetCorporation returns the station's site identity record.
	GetCorporation(ctx context.Context) (*Corporation, error)
}

// AutoInputer pushes resolved axle data into the third-party inspection
// client, a fire-and-forget side channel.
type AutoInputer interface {
	AutoInputToVC(ctx context.Context, params AutoInputParams) (string, error)
}
