package wallet

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/bitewise-app/bitewise-backend/pkg/db/models"
)

// CreditInput captures one coin credit request. RequestID is the caller's
// idempotency key; when present a repeat request collapses onto the original
// entry instead of double-crediting.
type CreditInput struct {
	UserID    uuid.UUID
	Amount    int64
	Reason    string
	Metadata  json.RawMessage
	RequestID string
}

// CreditResult reports the applied credit.
type CreditResult struct {
	NewTotal      int64  `json:"new_total"`
	TransactionID string `json:"transaction_id"`
	Duplicate     bool   `json:"duplicate,omitempty"`
}

// Summary is the wallet read model: current balance plus the rolling
// daily/monthly aggregates and what remains under each cap.
type Summary struct {
	TotalCoins          int64 `json:"total_coins"`
	DailyEarned         int64 `json:"daily_earned"`
	MonthlyEarned       int64 `json:"monthly_earned"`
	DailyRemaining      int64 `json:"daily_remaining"`
	MonthlyRemaining    int64 `json:"monthly_remaining"`
	RedeemableCap       int64 `json:"redeemable_cap"`
	RedeemableRemaining int64 `json:"redeemable_remaining"`
}

// HistoryPage is one page of coin history, newest first.
type HistoryPage struct {
	Entries    []models.CoinEntry `json:"entries"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// aggregates carries the point-in-time window sums used for cap checks.
type aggregates struct {
	dailyEarned     int64
	monthlyEarned   int64
	monthlyRedeemed int64
}
