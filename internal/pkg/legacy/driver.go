package legacy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"time"
)

// DateFormatDatabase is the timestamp layout the legacy store works in.
const DateFormatDatabase = "2006/01/02 15:04:05"

// Driver runs the station's driver executable and parses its stdout. The
// executable owns the ODBC connection to the legacy database; one process
// is spawned per query. Any output on stderr fails that query.
type Driver struct {
	DriverPath   string
	DatabasePath string
}

func NewDriver(driverPath, databasePath string) *Driver {
	return &Driver{
		DriverPath:   driverPath,
		DatabasePath: databasePath,
	}
}

func (d *Driver) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, d.DriverPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if stderr.Len() > 0 {
		return nil, fmt.Errorf("driver %s: %s", args[0], stderr.String())
	}
	if err != nil {
		return nil, fmt.Errorf("driver %s: %w", args[0], err)
	}

	return stdout.Bytes(), nil
}

func (d *Driver) GetDetectionByAxle(ctx context.Context, axleID string, start, end time.Time) (*Detection, error) {
	out, err := d.run(ctx,
		"GetDetectionByZH",
		d.DatabasePath,
		axleID,
		start.Format(DateFormatDatabase),
		end.Format(DateFormatDatabase),
	)
	if err != nil {
		return nil, err
	}

	var detections []Detection
	if err := json.Unmarshal(out, &detections); err != nil {
		return nil, fmt.Errorf("driver GetDetectionByZH: %w", err)
	}

	if len(detections) == 0 {
		return nil, fmt.Errorf("轴号[%s]: %w", axleID, ErrDetectionNotFound)
	}

	return &detections[0], nil
}

func (d *Driver) GetDetectionRows(ctx context.Context, opid string) ([]DetectionRow, error) {
	out, err := d.run(ctx, "GetDetectionData", d.DatabasePath, opid)
	if err != nil {
		return nil, err
	}

	var rows []DetectionRow
	if err := json.Unmarshal(out, &rows); err != nil {
		return nil, fmt.Errorf("driver GetDetectionData: %w", err)
	}

	return rows, nil
}

func (d *Driver) GetCorporation(ctx context.Context) (*Corporation, error) {
	out, err := d.run(ctx, "GetCorporation", d.DatabasePath)
	if err != nil {
		return nil, err
	}

	var corporations []Corporation
	if err := json.Unmarshal(out, &corporations); err != nil {
		return nil, fmt.Errorf("driver GetCorporation: %w", err)
	}

	if len(corporations) == 0 {
		return nil, ErrCorporationNotFound
	}

	return &corporations[0], nil
}

// AutoInputToVC hands the resolved axle fields to the third-party client.
// The downstream client wants the manufacture date as YYYYMM and the
// assembly dates as YYYYMMDD.
func (d *Driver) AutoInputToVC(ctx context.Context, params AutoInputParams) (string, error) {
	out, err := d.run(ctx,
		"autoInputToVC",
		params.ZX,
		params.ZH,
		params.CZZZDW,
		params.SCZZDW,
		params.MCZZDW,
		reformatDate(params.CZZZRQ, "200601"),
		reformatDate(params.SCZZRQ, "20060102"),
		reformatDate(params.MCZZRQ, "20060102"),
		params.ZTX,
		params.YTX,
	)
	if err != nil {
		return "", err
	}

	log.Printf("autoInputToVC: %s", out)
	return string(out), nil
}

// reformatDate best-effort converts the legacy store's date strings to the
// target layout; unparseable values pass through untouched so the operator
// sees what the store held.
func reformatDate(value, layout string) string {
	for _, in := range []string{
		"2006-01-02 15:04:05",
		"2006/01/02 15:04:05",
		"2006-01-02",
		"2006-01",
	} {
		if t, err := time.Parse(in, value); err == nil {
			return t.Format(layout)
		}
	}
	return value
}
