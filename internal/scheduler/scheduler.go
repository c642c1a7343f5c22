package scheduler

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"hmisync/internal/engine"
	"hmisync/internal/pkg/hmis"
)

// Settings is the auto-upload knob pair of one vendor.
type Settings struct {
	Enabled  bool
	Interval time.Duration
}

// Loop is the per-vendor auto-upload loop: one tick per interval, one
// upload attempt per tick, taken from the head of the pending queue. A
// failed attempt stays pending and is naturally re-attempted on a later
// tick. Reconfiguring replaces the loop; an upload already in flight is
// allowed to finish but no further tick fires.
type Loop struct {
	engine *engine.Engine

	cancel context.CancelFunc
	done   chan struct{}
}

func NewLoop(e *engine.Engine) *Loop {
	return &Loop{engine: e}
}

// Update tears down the running loop, then starts a fresh one when enabled.
// Safe to call from the configuration path at any time.
func (l *Loop) Update(adapter hmis.Adapter, settings Settings) {
	l.Stop()

	if !settings.Enabled || settings.Interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})

	go l.run(ctx, adapter, settings.Interval)
}

// Stop cancels the loop and waits for its goroutine to return. The wait
// covers an in-flight upload, which runs to completion.
func (l *Loop) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.cancel = nil
	l.done = nil
}

func (l *Loop) run(ctx context.Context, adapter hmis.Adapter, interval time.Duration) {
	defer close(l.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx, adapter)
		}
	}
}

// tick uploads at most the first pending entry. Engine errors are logged
// and swallowed so one bad record cannot stop future ticks.
func (l *Loop) tick(ctx context.Context, adapter hmis.Adapter) {
	entry, err := l.engine.Ledger.FirstPending(ctx, adapter.Name())
	if err == gorm.ErrRecordNotFound {
		return
	}
	if err != nil {
		log.Printf("%s: 自动上传查询失败: %v", adapter.Name(), err)
		return
	}

	// The upload must not be torn down mid-flight by Stop; cancellation
	// only prevents further ticks.
	if err := l.engine.UploadOne(context.WithoutCancel(ctx), adapter, entry.ID); err != nil {
		log.Printf("%s: 自动上传条码[%s]失败: %v", adapter.Name(), entry.Barcode, err)
	}
}
