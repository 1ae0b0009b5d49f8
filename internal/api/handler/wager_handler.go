package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/malagaclima/lluviabet/internal/api/middleware"
	"github.com/malagaclima/lluviabet/internal/domain"
	"github.com/malagaclima/lluviabet/internal/service"
)

// WagerHandler serves wager placement, cancellation, and verification.
type WagerHandler struct {
	bettingSvc *service.BettingService
	engine     *service.SettlementEngine
}

// NewWagerHandler creates a WagerHandler.
func NewWagerHandler(bettingSvc *service.BettingService, engine *service.SettlementEngine) *WagerHandler {
	return &WagerHandler{bettingSvc: bettingSvc, engine: engine}
}

// QuoteOdds godoc
// GET /api/odds/quote?category=rain_amount&predicted=12.5
func (h *WagerHandler) QuoteOdds(c *gin.Context) {
	userID := middleware.GetUserID(c)

	category := domain.BetCategory(c.Query("category"))
	predicted, err := strconv.ParseFloat(c.Query("predicted"), 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "predicted must be a number")
		return
	}

	quote, err := h.bettingSvc.QuoteOdds(c.Request.Context(), userID, category, predicted)
	if err != nil {
		h.respondWagerError(c, err, "could not quote odds")
		return
	}
	respondSuccess(c, http.StatusOK, quote)
}

// PlaceWager godoc
// POST /api/wagers
// Body: {"category":"rain_amount","predicted_value":12.5,"stake":"50.00"}
func (h *WagerHandler) PlaceWager(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var body struct {
		Category       string  `json:"category"        binding:"required"`
		PredictedValue float64 `json:"predicted_value"`
		Stake          string  `json:"stake"           binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	stake, err := decimal.NewFromString(body.Stake)
	if err != nil || stake.IsNegative() || stake.IsZero() {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_STAKE", "stake must be a positive decimal string")
		return
	}

	w, err := h.bettingSvc.PlaceWager(c.Request.Context(), domain.PlaceWagerRequest{
		UserID:         userID,
		Category:       domain.BetCategory(body.Category),
		PredictedValue: body.PredictedValue,
		Stake:          stake,
	})
	if err != nil {
		h.respondWagerError(c, err, "could not place wager")
		return
	}
	respondSuccess(c, http.StatusCreated, w.ToResponse())
}

// GetMyWagers godoc
// GET /api/wagers/my?page=1&limit=20
func (h *WagerHandler) GetMyWagers(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	wagers, err := h.bettingSvc.ListWagers(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch wagers")
		return
	}

	out := make([]domain.WagerResponse, 0, len(wagers))
	for _, w := range wagers {
		out = append(out, w.ToResponse())
	}
	respondList(c, out, page, limit)
}

// GetWagerByID godoc
// GET /api/wagers/:id
func (h *WagerHandler) GetWagerByID(c *gin.Context) {
	userID := middleware.GetUserID(c)

	wagerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_WAGER_ID", "invalid wager id")
		return
	}

	w, err := h.bettingSvc.GetWager(c.Request.Context(), wagerID, userID)
	if err != nil {
		h.respondWagerError(c, err, "could not fetch wager")
		return
	}
	respondSuccess(c, http.StatusOK, w.ToResponse())
}

// CancelWager godoc
// POST /api/wagers/:id/cancel
func (h *WagerHandler) CancelWager(c *gin.Context) {
	userID := middleware.GetUserID(c)

	wagerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_WAGER_ID", "invalid wager id")
		return
	}

	w, err := h.bettingSvc.CancelWager(c.Request.Context(), wagerID, userID)
	if err != nil {
		h.respondWagerError(c, err, "could not cancel wager")
		return
	}
	respondSuccess(c, http.StatusOK, w.ToResponse())
}

// VerifyWager godoc
// POST /api/wagers/:id/verify
// Settles the wager immediately if it is due, instead of waiting for the
// settlement timer.
func (h *WagerHandler) VerifyWager(c *gin.Context) {
	userID := middleware.GetUserID(c)

	wagerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_WAGER_ID", "invalid wager id")
		return
	}

	w, err := h.engine.VerifyWager(c.Request.Context(), wagerID, userID, time.Now())
	if err != nil {
		h.respondWagerError(c, err, "could not verify wager")
		return
	}
	respondSuccess(c, http.StatusOK, w.ToResponse())
}

// respondWagerError maps domain sentinels onto HTTP statuses.
func (h *WagerHandler) respondWagerError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCategory):
		respondError(c, http.StatusBadRequest, "ERR_INVALID_CATEGORY", err.Error())
	case errors.Is(err, domain.ErrStakeTooSmall):
		respondError(c, http.StatusBadRequest, "ERR_STAKE_TOO_SMALL", err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		respondError(c, http.StatusPaymentRequired, "ERR_INSUFFICIENT_BALANCE", err.Error())
	case errors.Is(err, domain.ErrBettingWindowClosed):
		respondError(c, http.StatusConflict, "ERR_WINDOW_CLOSED", err.Error())
	case errors.Is(err, domain.ErrBetLimitReached):
		respondError(c, http.StatusConflict, "ERR_BET_LIMIT", err.Error())
	case errors.Is(err, domain.ErrWagerNotFound):
		respondError(c, http.StatusNotFound, "ERR_WAGER_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrWagerNotPending):
		respondError(c, http.StatusConflict, "ERR_WAGER_NOT_PENDING", err.Error())
	case errors.Is(err, domain.ErrWagerNotDue):
		respondError(c, http.StatusConflict, "ERR_WAGER_NOT_DUE", err.Error())
	case errors.Is(err, domain.ErrCancelAfterDue):
		respondError(c, http.StatusConflict, "ERR_CANCEL_AFTER_DUE", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		respondError(c, http.StatusForbidden, "ERR_FORBIDDEN", "this wager does not belong to you")
	default:
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", fallback)
	}
}
