package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/malagaclima/lluviabet/internal/api/middleware"
	"github.com/malagaclima/lluviabet/internal/domain"
	"github.com/malagaclima/lluviabet/internal/service"
)

// WalletHandler serves balance, transaction history, and the daily reward.
type WalletHandler struct {
	walletSvc *service.WalletService
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(walletSvc *service.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// GetBalance godoc
// GET /api/wallet/balance
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)

	wallet, err := h.walletSvc.GetWallet(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch wallet")
		return
	}
	respondSuccess(c, http.StatusOK, wallet)
}

// GetTransactions godoc
// GET /api/wallet/transactions?page=1&limit=20
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	txns, err := h.walletSvc.GetTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not fetch transactions")
		return
	}
	respondList(c, txns, page, limit)
}

// ClaimDailyReward godoc
// POST /api/wallet/daily-reward
func (h *WalletHandler) ClaimDailyReward(c *gin.Context) {
	userID := middleware.GetUserID(c)

	wallet, err := h.walletSvc.ClaimDailyReward(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDailyRewardClaimed):
			respondError(c, http.StatusConflict, "ERR_ALREADY_CLAIMED", err.Error())
		case errors.Is(err, domain.ErrWalletNotFound):
			respondError(c, http.StatusNotFound, "ERR_WALLET_NOT_FOUND", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not claim daily reward")
		}
		return
	}
	respondSuccess(c, http.StatusOK, wallet)
}
