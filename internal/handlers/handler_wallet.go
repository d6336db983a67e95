package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quartzmarket/ledger/internal/core/domain"
	portssvc "github.com/quartzmarket/ledger/internal/core/ports/services"
	"github.com/quartzmarket/ledger/internal/dto"
	"github.com/quartzmarket/ledger/internal/middleware"
)

// walletHandler handles HTTP requests for the logged-in user's own wallet.
type walletHandler struct {
	transferService portssvc.TransferSvcFacade
	ledgerService   portssvc.LedgerSvcFacade
}

func newWalletHandler(ts portssvc.TransferSvcFacade, ls portssvc.LedgerSvcFacade) *walletHandler {
	return &walletHandler{transferService: ts, ledgerService: ls}
}

// registerWalletRoutes registers routes related to the user's wallet.
func registerWalletRoutes(rg *gin.RouterGroup, transferService portssvc.TransferSvcFacade, ledgerService portssvc.LedgerSvcFacade) {
	h := newWalletHandler(transferService, ledgerService)

	wallet := rg.Group("/wallet")
	{
		wallet.GET("/balance", h.getBalance)
		wallet.POST("/topup", h.topup)
		wallet.POST("/transfer", h.transfer)
		wallet.GET("/history", h.listHistory)
	}
}

// getBalance returns the logged-in user's derived balance.
func (h *walletHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), userID, domain.DefaultCurrency)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve balance")
		return
	}

	c.JSON(http.StatusOK, dto.ToBalanceResponse(userID, domain.DefaultCurrency, balance))
}

// topup credits the logged-in user's wallet from the platform account.
func (h *walletHandler) topup(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Topup", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, err := h.transferService.Topup(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to top up wallet")
		return
	}

	logger.Info("Wallet topup completed", slog.String("transaction_id", txn.TransactionID))
	c.JSON(http.StatusCreated, txn)
}

// transfer moves funds from the logged-in user to another user.
func (h *walletHandler) transfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Transfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, err := h.transferService.Transfer(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to transfer funds")
		return
	}

	logger.Info("Transfer completed",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("to_user_id", req.ToUserID),
	)
	c.JSON(http.StatusCreated, txn)
}

// listHistory returns a page of the logged-in user's transaction history.
func (h *walletHandler) listHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := h.ledgerService.ListTransactionHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve history")
		return
	}

	c.JSON(http.StatusOK, page)
}
