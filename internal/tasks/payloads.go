package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// This file defines the "types" and "payloads" for our async tasks.

// Task type names
const (
	TypeTaskUploadPending = "hmis:upload_pending"
)

// UploadPendingPayload names the vendor whose pending queue the sweep
// should drain.
type UploadPendingPayload struct {
	Vendor string `json:"vendor"`
}

// NewUploadPendingTask creates a new task for asynq
func NewUploadPendingTask(vendor string) (*asynq.Task, error) {
	payload := UploadPendingPayload{
		Vendor: vendor,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TypeTaskUploadPending, payloadBytes), nil
}
