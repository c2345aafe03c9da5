package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"satshop/internal/cache"
	"satshop/internal/errors"
	"satshop/internal/model"
	"satshop/internal/rbac"
	"satshop/internal/repository"
)

const (
	balanceCacheKey = "cash:balance"
	balanceCacheTTL = 5 * time.Minute
)

// LedgerService is the append-only cash ledger. Entries are never edited or
// removed; corrections are new offsetting entries. The running balance is
// always recomputable from the entry sequence alone.
type LedgerService interface {
	RecordEntry(ctx context.Context, actor *model.User, kind model.EntryKind, amount decimal.Decimal, description string, orderID *uint) (*model.CashEntry, error)
	CurrentBalance(ctx context.Context, actor *model.User) (decimal.Decimal, error)
	BalanceAsOf(ctx context.Context, actor *model.User, sequence uint64) (decimal.Decimal, error)
	ListEntries(ctx context.Context, actor *model.User, filter repository.EntryFilter) ([]model.CashEntry, error)
	LatestSequence(ctx context.Context) (uint64, error)
	ReconcileBalance(ctx context.Context) (decimal.Decimal, error)
}

type ledgerService struct {
	repo  repository.CashEntryRepository
	cache *cache.Client
	// appendMu serializes appends so the insert and the balance-cache
	// invalidation are one unit with respect to other appends.
	appendMu sync.Mutex
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(repo repository.CashEntryRepository, cache *cache.Client) LedgerService {
	return &ledgerService{repo: repo, cache: cache}
}

// RecordEntry appends a cash movement. The actor needs the record-cash-entry
// permission and the amount must be strictly positive.
func (s *ledgerService) RecordEntry(ctx context.Context, actor *model.User, kind model.EntryKind, amount decimal.Decimal, description string, orderID *uint) (*model.CashEntry, error) {
	if !rbac.IsAllowed(actor.Role, rbac.ActionRecordCashEntry) {
		return nil, errors.ErrUnauthorized
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.ErrInvalidAmount
	}

	entry := &model.CashEntry{
		Kind:         kind,
		Amount:       amount,
		Description:  description,
		OrderID:      orderID,
		RecordedByID: actor.ID,
	}

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, balanceCacheKey)

	zap.S().Infow("cash entry recorded",
		"sequence", entry.Sequence,
		"kind", kind,
		"amount", amount.StringFixed(2),
		"by", actor.Username,
	)
	return entry, nil
}

// CurrentBalance returns the balance as of the latest entry. The cached
// value is only a shortcut: it is dropped on every append, so it can never
// diverge from a full recompute.
func (s *ledgerService) CurrentBalance(ctx context.Context, actor *model.User) (decimal.Decimal, error) {
	if !rbac.IsAllowed(actor.Role, rbac.ActionViewCashLedger) {
		return decimal.Zero, errors.ErrUnauthorized
	}

	if data, _ := s.cache.Get(ctx, balanceCacheKey); data != nil {
		if cached, err := decimal.NewFromString(string(data)); err == nil {
			return cached, nil
		}
	}

	balance, err := s.computeFullBalance(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	_ = s.cache.Set(ctx, balanceCacheKey, []byte(balance.String()), balanceCacheTTL)
	return balance, nil
}

// BalanceAsOf returns the signed sum over all entries with sequence <= the
// given point. Sequences start at 1, so 0 names the empty prefix and always
// balances to zero.
func (s *ledgerService) BalanceAsOf(ctx context.Context, actor *model.User, sequence uint64) (decimal.Decimal, error) {
	if !rbac.IsAllowed(actor.Role, rbac.ActionViewCashLedger) {
		return decimal.Zero, errors.ErrUnauthorized
	}

	if sequence == 0 {
		return decimal.Zero, nil
	}
	entries, err := s.repo.ListUpTo(ctx, sequence)
	if err != nil {
		return decimal.Zero, err
	}
	return foldBalance(entries), nil
}

// ListEntries returns ledger entries in insertion order, optionally narrowed
// by date range or order reference.
func (s *ledgerService) ListEntries(ctx context.Context, actor *model.User, filter repository.EntryFilter) ([]model.CashEntry, error) {
	if !rbac.IsAllowed(actor.Role, rbac.ActionViewCashLedger) {
		return nil, errors.ErrUnauthorized
	}
	return s.repo.List(ctx, filter)
}

// LatestSequence returns the sequence number of the newest entry, zero when
// the ledger is empty.
func (s *ledgerService) LatestSequence(ctx context.Context) (uint64, error) {
	return s.repo.LatestSequence(ctx)
}

// ReconcileBalance recomputes the balance from scratch and refreshes the
// cache, reporting any divergence. Run periodically as a consistency check.
func (s *ledgerService) ReconcileBalance(ctx context.Context) (decimal.Decimal, error) {
	balance, err := s.computeFullBalance(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	if data, _ := s.cache.Get(ctx, balanceCacheKey); data != nil {
		if cached, err := decimal.NewFromString(string(data)); err == nil && !cached.Equal(balance) {
			zap.S().Warnw("cached balance diverged from ledger recompute",
				"cached", cached.StringFixed(2),
				"recomputed", balance.StringFixed(2),
			)
		}
	}

	_ = s.cache.Set(ctx, balanceCacheKey, []byte(balance.String()), balanceCacheTTL)
	return balance, nil
}

// computeFullBalance folds the signed amounts of the whole ledger.
func (s *ledgerService) computeFullBalance(ctx context.Context) (decimal.Decimal, error) {
	entries, err := s.repo.List(ctx, repository.EntryFilter{})
	if err != nil {
		return decimal.Zero, err
	}
	return foldBalance(entries), nil
}

func foldBalance(entries []model.CashEntry) decimal.Decimal {
	balance := decimal.Zero
	for i := range entries {
		balance = balance.Add(entries[i].Signed())
	}
	return balance
}
