package hmis

import (
	"context"

	"hmisync/internal/models"
	"hmisync/internal/pkg/legacy"
)

// AxleInfo is the vendor-neutral result of resolving a scanned barcode
// against an HMIS.
type AxleInfo struct {
	Barcode string // DH, 扫码单号
	AxleID  string // ZH, 轴号
	Model   string // ZX, 轴型

	MakeDate  string // CZZZRQ 制造日期
	MakeUnit  string // CZZZDW 制造单位
	FirstDate string // SCZZRQ 首次组装日期
	FirstUnit string // SCZZDW 首次组装单位
	LastDate  string // MCZZRQ 末次组装日期
	LastUnit  string // MCZZDW 末次组装单位
}

// UploadInput bundles everything an adapter needs to build one vendor
// upload record. Site config and station IP are fetched fresh per batch and
// shared across the batch's inputs.
type UploadInput struct {
	Entry     models.Barcode
	Detection *legacy.Detection
	Rows      []legacy.DetectionRow
	Defect    Defect
	Site      legacy.Corporation
	StationIP string
	User      string // responsible operator, stamped into every signature field
}

// SaveResult reports which of the submitted barcodes the vendor accepted.
// Vendors without a per-item result report every submitted barcode.
type SaveResult struct {
	Accepted []string
}

// Adapter is one HMIS integration: resolving scans and uploading results
// under that vendor's HTTP contract. Adapters decide batching themselves;
// Upload always receives the full batch in caller order.
type Adapter interface {
	Name() string
	Get(ctx context.Context, barcode string) (*AxleInfo, error)
	Upload(ctx context.Context, inputs []UploadInput) (*SaveResult, error)
}
