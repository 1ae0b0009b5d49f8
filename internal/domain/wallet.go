package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Wallet
// ──────────────────────────────────────────────────────────────────────────────

// Wallet holds a user's coin balance. UserID is an opaque reference owned
// by the app shell (device id, account id, or the anonymous bucket) — the
// engine does not manage user lifecycle.
type Wallet struct {
	ID               uuid.UUID       `json:"id"                  db:"id"`
	UserID           string          `json:"user_id"             db:"user_id"`
	Balance          decimal.Decimal `json:"balance"             db:"balance"`
	LastDailyClaimAt *time.Time      `json:"last_daily_claim_at" db:"last_daily_claim_at"`
	CreatedAt        time.Time       `json:"created_at"          db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"          db:"updated_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Transaction audit log
// ──────────────────────────────────────────────────────────────────────────────

// TransactionType labels an entry in the coin audit log.
type TransactionType string

const (
	TxStake       TransactionType = "stake"        // deducted at wager placement
	TxPayout      TransactionType = "payout"       // credited on a won wager
	TxRefund      TransactionType = "refund"       // credited on cancellation
	TxDailyReward TransactionType = "daily_reward" // daily login bonus
)

// Transaction is one coin movement against a wallet. Every credit and debit
// the engine performs writes exactly one of these.
type Transaction struct {
	ID            uuid.UUID       `json:"id"             db:"id"`
	WalletID      uuid.UUID       `json:"wallet_id"      db:"wallet_id"`
	Type          TransactionType `json:"type"           db:"type"`
	Amount        decimal.Decimal `json:"amount"         db:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"  db:"balance_after"`
	RefID         *uuid.UUID      `json:"ref_id"         db:"ref_id"` // wager id where applicable
	Description   string          `json:"description"    db:"description"`
	CreatedAt     time.Time       `json:"created_at"     db:"created_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Plant rewards
// ──────────────────────────────────────────────────────────────────────────────

// PlantReward records one water credit earned by a won wager. The plant's
// growth rules live in the app shell; this table is the exactly-once
// evidence that a win was reported to it.
type PlantReward struct {
	ID         uuid.UUID   `json:"id"          db:"id"`
	UserID     string      `json:"user_id"     db:"user_id"`
	WagerID    uuid.UUID   `json:"wager_id"    db:"wager_id"`
	Category   BetCategory `json:"category"    db:"category"`
	WaterUnits int         `json:"water_units" db:"water_units"`
	CreatedAt  time.Time   `json:"created_at"  db:"created_at"`
}
