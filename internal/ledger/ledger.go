package ledger

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"hmisync/internal/models"
)

// Ledger is the local scan-to-upload record, one namespace per vendor. All
// mutations for a vendor run under that vendor's lock so a manual upload
// and an auto-upload tick cannot race on the same row.
type Ledger struct {
	db *gorm.DB

	mu      sync.Mutex
	vendors map[string]*sync.Mutex

	subMu       sync.Mutex
	nextSubID   int
	subscribers map[int]func(vendor string)
}

func New(db *gorm.DB) (*Ledger, error) {
	if err := db.AutoMigrate(&models.Barcode{}); err != nil {
		return nil, err
	}

	return &Ledger{
		db:          db,
		vendors:     make(map[string]*sync.Mutex),
		subscribers: make(map[int]func(vendor string)),
	}, nil
}

func (l *Ledger) vendorLock(vendor string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.vendors[vendor]; !ok {
		l.vendors[vendor] = &sync.Mutex{}
	}
	return l.vendors[vendor]
}

// Subscribe registers a change listener and returns its unsubscribe func.
// Listeners fire after every successful mutation.
func (l *Ledger) Subscribe(fn func(vendor string)) func() {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = fn
	return func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		delete(l.subscribers, id)
	}
}

func (l *Ledger) notify(vendor string) {
	l.subMu.Lock()
	fns := make([]func(string), 0, len(l.subscribers))
	for _, fn := range l.subscribers {
		fns = append(fns, fn)
	}
	l.subMu.Unlock()

	for _, fn := range fns {
		fn(vendor)
	}
}

// startOfDay truncates to local midnight, the lower bound of the active
// working window.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// Append records a scan. A re-scan of a barcode already in today's window
// refreshes that row in place and resets its uploaded flag instead of
// creating a second row.
func (l *Ledger) Append(ctx context.Context, vendor, barcode, axleID string, scannedAt time.Time) (*models.Barcode, error) {
	lock := l.vendorLock(vendor)
	lock.Lock()
	defer lock.Unlock()

	existing, err := gorm.G[models.Barcode](l.db).
		Where("vendor = ? AND barcode = ? AND scanned_at >= ?", vendor, barcode, startOfDay(scannedAt)).
		First(ctx)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if err == nil {
		existing.AxleID = axleID
		existing.ScannedAt = scannedAt
		existing.Uploaded = false
		if err := l.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		l.notify(vendor)
		return &existing, nil
	}

	entry := models.Barcode{
		Vendor:    vendor,
		Barcode:   barcode,
		AxleID:    axleID,
		ScannedAt: scannedAt,
	}
	if err := gorm.G[models.Barcode](l.db).Create(ctx, &entry); err != nil {
		return nil, err
	}

	l.notify(vendor)
	return &entry, nil
}

// MarkUploaded flips rows to uploaded. Already-uploaded ids are a no-op.
func (l *Ledger) MarkUploaded(ctx context.Context, vendor string, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	lock := l.vendorLock(vendor)
	lock.Lock()
	defer lock.Unlock()

	_, err := gorm.G[models.Barcode](l.db).
		Where("vendor = ? AND id IN ?", vendor, ids).
		Update(ctx, "uploaded", true)
	if err != nil {
		return err
	}

	l.notify(vendor)
	return nil
}

// Get returns one row by id within the vendor namespace.
func (l *Ledger) Get(ctx context.Context, vendor string, id uint) (*models.Barcode, error) {
	entry, err := gorm.G[models.Barcode](l.db).
		Where("vendor = ? AND id = ?", vendor, id).
		First(ctx)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Query is the UI read path: rows in a date range, newest first, plus the
// unpaginated total.
func (l *Ledger) Query(ctx context.Context, vendor string, from, to time.Time, limit, offset int) ([]models.Barcode, int64, error) {
	base := l.db.WithContext(ctx).Model(&models.Barcode{}).
		Where("vendor = ? AND scanned_at BETWEEN ? AND ?", vendor, from, to)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Barcode
	if err := base.Order("scanned_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// Pending returns today's not-yet-uploaded rows in insertion order.
func (l *Ledger) Pending(ctx context.Context, vendor string) ([]models.Barcode, error) {
	return gorm.G[models.Barcode](l.db).
		Where("vendor = ? AND uploaded = ? AND scanned_at >= ?", vendor, false, startOfDay(time.Now())).
		Order("id ASC").
		Find(ctx)
}

// FirstPending returns the oldest still-pending row of today's window, or
// gorm.ErrRecordNotFound when the queue is empty.
func (l *Ledger) FirstPending(ctx context.Context, vendor string) (*models.Barcode, error) {
	entry, err := gorm.G[models.Barcode](l.db).
		Where("vendor = ? AND uploaded = ? AND scanned_at >= ?", vendor, false, startOfDay(time.Now())).
		Order("id ASC").
		First(ctx)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Remove deletes one row, an explicit user action. Returns
// gorm.ErrRecordNotFound when the id is absent.
func (l *Ledger) Remove(ctx context.Context, vendor string, id uint) error {
	lock := l.vendorLock(vendor)
	lock.Lock()
	defer lock.Unlock()

	rows, err := gorm.G[models.Barcode](l.db).
		Where("vendor = ? AND id = ?", vendor, id).
		Delete(ctx)
	if err != nil {
		return err
	}
	if rows == 0 {
		return gorm.ErrRecordNotFound
	}

	l.notify(vendor)
	return nil
}
