// Package jobs holds the asynq task definitions and the worker that runs
// them: denormalized-name reconciliation, ledger drift audits and
// housekeeping.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCategorySync refreshes denormalized category names on products
	// after a rename.
	TaskCategorySync = "category:sync"
	// TaskLedgerAudit compares customer balances against their unpaid bills
	// and logs drift.
	TaskLedgerAudit = "ledger:audit"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// CategorySyncPayload identifies the renamed category.
type CategorySyncPayload struct {
	ShopID     int64 `json:"shop_id"`
	CategoryID int64 `json:"category_id"`
}

// NewCategorySyncTask constructs an Asynq task.
func NewCategorySyncTask(payload CategorySyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCategorySync, data), nil
}

// NewLedgerAuditTask constructs the periodic ledger audit task.
func NewLedgerAuditTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerAudit, nil)
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}
