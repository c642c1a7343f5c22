package hmis

import (
	"errors"
	"fmt"
)

// ErrNoResolvableRecords is returned by a batch upload when not a single
// record could be resolved against the legacy store.
var ErrNoResolvableRecords = errors.New("no resolvable records in batch")

// TransportError covers network failures and non-2xx HTTP statuses, the
// failures a later re-attempt may clear.
type TransportError struct {
	Vendor string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: 接口异常: %v", e.Vendor, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FormatError means the vendor answered but the body was not its documented
// success shape: undecodable JSON, a failure code on a get, or missing
// essential fields.
type FormatError struct {
	Vendor  string
	Code    string
	Message string
}

func (e *FormatError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: 接口异常[%s]: %s", e.Vendor, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Vendor, e.Message)
}

// UploadRejectedError is the vendor explicitly refusing an upload. The
// vendor's own message is preserved for the operator.
type UploadRejectedError struct {
	Vendor  string
	Code    string
	Message string
}

func (e *UploadRejectedError) Error() string {
	return fmt.Sprintf("%s: 接口异常[%s]: %s", e.Vendor, e.Code, e.Message)
}
