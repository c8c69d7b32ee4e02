package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// base carries what every core service needs: the store, the company lock
// and the event publisher.
type base struct {
	db     *gorm.DB
	locker Locker
	events Publisher
	logger *zap.SugaredLogger
}

func newBase(db *gorm.DB, locker Locker, events Publisher, logger *zap.SugaredLogger) base {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if events == nil {
		events = NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return base{db: db, locker: locker, events: events, logger: logger}
}

// inCompanyTx runs fn in one transaction while holding the company lock, so
// no reader or writer of the same company observes a partial update.
func (b *base) inCompanyTx(ctx context.Context, companyID uuid.UUID, fn func(tx *gorm.DB) error) error {
	unlock, err := b.locker.Lock(ctx, companyLockKey(companyID))
	if err != nil {
		return err
	}
	defer unlock()

	return b.db.WithContext(ctx).Transaction(fn)
}

func (b *base) publish(ctx context.Context, events ...Event) {
	if len(events) == 0 {
		return
	}
	if err := b.events.Publish(ctx, events...); err != nil {
		b.logger.Errorw("failed to publish events", "count", len(events), "type", events[0].Type, "error", err)
	}
}

func notFound(err error, what string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
	}
	return err
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
