package testhelpers

import (
	"context"
	"fmt"
	"sync"

	"hmisync/internal/pkg/hmis"
)

// FakeAdapter is an in-memory hmis.Adapter for engine and scheduler specs.
// Get serves from Infos; Upload records every call and accepts either all
// submitted barcodes or only those listed in AcceptOnly.
type FakeAdapter struct {
	mu sync.Mutex

	VendorName string
	Infos      map[string]*hmis.AxleInfo
	GetErr     error

	AcceptOnly []string
	UploadErr  error

	uploads [][]hmis.UploadInput
}

func NewFakeAdapter(vendor string) *FakeAdapter {
	return &FakeAdapter{
		VendorName: vendor,
		Infos:      make(map[string]*hmis.AxleInfo),
	}
}

func (f *FakeAdapter) Name() string { return f.VendorName }

func (f *FakeAdapter) Get(ctx context.Context, barcode string) (*hmis.AxleInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	info, ok := f.Infos[barcode]
	if !ok {
		return nil, &hmis.FormatError{Vendor: f.VendorName, Message: fmt.Sprintf("条码[%s]不存在", barcode)}
	}
	return info, nil
}

func (f *FakeAdapter) Upload(ctx context.Context, inputs []hmis.UploadInput) (*hmis.SaveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.UploadErr != nil {
		return nil, f.UploadErr
	}

	batch := make([]hmis.UploadInput, len(inputs))
	copy(batch, inputs)
	f.uploads = append(f.uploads, batch)

	if f.AcceptOnly != nil {
		return &hmis.SaveResult{Accepted: f.AcceptOnly}, nil
	}

	accepted := make([]string, 0, len(inputs))
	for _, input := range inputs {
		accepted = append(accepted, input.Entry.Barcode)
	}
	return &hmis.SaveResult{Accepted: accepted}, nil
}

// Uploads returns a copy of the recorded upload calls, safe to poll while
// a loop is running.
func (f *FakeAdapter) Uploads() [][]hmis.UploadInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]hmis.UploadInput, len(f.uploads))
	copy(out, f.uploads)
	return out
}
