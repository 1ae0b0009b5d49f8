// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs pushed to connected clients.
package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/malagaclima/lluviabet/internal/domain"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypeWagerResolved     MsgType = "wager_resolved"
	MsgTypeSettlementSummary MsgType = "settlement_summary"
	MsgTypeError             MsgType = "error"
)

// ──────────────────────────────────────────────────────────────────────────────
// WagerResolvedMessage — pushed once per settled wager.
// ──────────────────────────────────────────────────────────────────────────────

// WagerResolvedMessage tells clients how a single wager settled.
type WagerResolvedMessage struct {
	Type           MsgType            `json:"type"`
	WagerID        uuid.UUID          `json:"wager_id"`
	UserID         string             `json:"user_id"`
	Category       domain.BetCategory `json:"category"`
	Status         domain.WagerStatus `json:"status"`
	PredictedValue float64            `json:"predicted_value"`
	ActualValue    *float64           `json:"actual_value"`
	Payout         *decimal.Decimal   `json:"payout,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// SettlementSummaryMessage — pushed once per settlement pass.
// ──────────────────────────────────────────────────────────────────────────────

// SettlementSummaryMessage aggregates one settlement pass.
type SettlementSummaryMessage struct {
	Type          MsgType         `json:"type"`
	Resolved      int             `json:"resolved"`
	Won           int             `json:"won"`
	TotalCoinsWon decimal.Decimal `json:"total_coins_won"`
	Timestamp     time.Time       `json:"timestamp"`
}

// ErrorMessage is sent to a single client on a protocol error.
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
