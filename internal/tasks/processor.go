package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"hmisync/internal/config"
	"hmisync/internal/engine"
	"hmisync/internal/pkg/hmis"
	"hmisync/internal/vendors"
)

// TaskProcessor holds dependencies for our task handlers
type TaskProcessor struct {
	Engine   *engine.Engine
	config   *config.Config
	adapters map[string]hmis.Adapter
}

// NewTaskProcessor creates a new TaskProcessor
func NewTaskProcessor(e *engine.Engine, config *config.Config) *TaskProcessor {
	adapters := make(map[string]hmis.Adapter)
	for _, name := range vendors.Names() {
		adapter, _, err := vendors.Adapter(config, name)
		if err != nil {
			continue
		}
		adapters[name] = adapter
	}

	return &TaskProcessor{
		Engine:   e,
		config:   config,
		adapters: adapters,
	}
}

// GetAdapter exposes a vendor adapter, mainly so tests can swap its HTTP
// client.
func (p *TaskProcessor) GetAdapter(vendor string) hmis.Adapter {
	return p.adapters[vendor]
}

// HandleUploadPendingTask drains a vendor's whole pending queue in one
// batch. Vendor-side failures are logged and dropped so the periodic
// schedule keeps running; only a bad payload kills the task.
func (p *TaskProcessor) HandleUploadPendingTask(ctx context.Context, t *asynq.Task) error {
	var payload UploadPendingPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	log.Printf("Uploading pending records for %s", payload.Vendor)

	adapter, ok := p.adapters[payload.Vendor]
	if !ok {
		return fmt.Errorf("unknown vendor %s: %w", payload.Vendor, asynq.SkipRetry)
	}

	accepted, err := p.Engine.UploadBatch(ctx, adapter, nil)
	if err != nil {
		if errors.Is(err, hmis.ErrNoResolvableRecords) {
			log.Printf("%s: no pending record resolved this sweep", payload.Vendor)
			return nil
		}
		log.Printf("%s: pending upload sweep failed: %v", payload.Vendor, err)
		return nil
	}

	if len(accepted) > 0 {
		log.Printf("%s: uploaded %d records", payload.Vendor, len(accepted))
	}

	return nil
}
