package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"satshop/internal/service"
)

// BalanceReconciler periodically recomputes the ledger balance from scratch
// and refreshes the cache, so a diverging cached value can never persist.
type BalanceReconciler struct {
	ledger service.LedgerService
}

// NewBalanceReconciler creates a reconciler over the ledger service.
func NewBalanceReconciler(ledger service.LedgerService) *BalanceReconciler {
	return &BalanceReconciler{ledger: ledger}
}

// Start schedules the reconciliation and returns the running cron instance.
func (r *BalanceReconciler) Start() (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc("@every 15m", r.run); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

func (r *BalanceReconciler) run() {
	balance, err := r.ledger.ReconcileBalance(context.Background())
	if err != nil {
		zap.S().Errorw("balance reconciliation failed", "error", err)
		return
	}
	zap.S().Debugw("balance reconciled", "balance", balance.StringFixed(2))
}
