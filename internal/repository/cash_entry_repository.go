package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"satshop/internal/model"
)

// EntryFilter narrows a ledger listing. It never changes the ordering,
// which is always ascending by sequence number.
type EntryFilter struct {
	From    *time.Time
	To      *time.Time
	OrderID *uint
}

// CashEntryRepository defines ledger persistence operations. The ledger is
// append-only: there are deliberately no update or delete methods.
type CashEntryRepository interface {
	Append(ctx context.Context, entry *model.CashEntry) error
	List(ctx context.Context, filter EntryFilter) ([]model.CashEntry, error)
	ListUpTo(ctx context.Context, sequence uint64) ([]model.CashEntry, error)
	LatestSequence(ctx context.Context) (uint64, error)
}

type cashEntryRepository struct {
	db *gorm.DB
}

// NewCashEntryRepository creates a new cash entry repository.
func NewCashEntryRepository(db *gorm.DB) CashEntryRepository {
	return &cashEntryRepository{db: db}
}

// Append inserts a new entry. The sequence number is assigned by the
// database inside the insert transaction, so it is strictly increasing
// and never reused.
func (r *cashEntryRepository) Append(ctx context.Context, entry *model.CashEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(entry).Error
	})
}

func (r *cashEntryRepository) List(ctx context.Context, filter EntryFilter) ([]model.CashEntry, error) {
	q := r.db.WithContext(ctx).Model(&model.CashEntry{})
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}
	if filter.OrderID != nil {
		q = q.Where("order_id = ?", *filter.OrderID)
	}

	var entries []model.CashEntry
	if err := q.Order("sequence asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *cashEntryRepository) ListUpTo(ctx context.Context, sequence uint64) ([]model.CashEntry, error) {
	var entries []model.CashEntry
	if err := r.db.WithContext(ctx).
		Where("sequence <= ?", sequence).
		Order("sequence asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *cashEntryRepository) LatestSequence(ctx context.Context) (uint64, error) {
	var latest uint64
	err := r.db.WithContext(ctx).Model(&model.CashEntry{}).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&latest).Error
	return latest, err
}
