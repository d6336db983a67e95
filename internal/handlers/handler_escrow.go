package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quartzmarket/ledger/internal/core/domain"
	portssvc "github.com/quartzmarket/ledger/internal/core/ports/services"
	"github.com/quartzmarket/ledger/internal/dto"
	"github.com/quartzmarket/ledger/internal/middleware"
)

// escrowHandler handles HTTP requests for the escrow lifecycle.
type escrowHandler struct {
	escrowService portssvc.EscrowSvcFacade
}

func newEscrowHandler(es portssvc.EscrowSvcFacade) *escrowHandler {
	return &escrowHandler{escrowService: es}
}

// registerEscrowRoutes registers routes related to escrow holdings.
func registerEscrowRoutes(rg *gin.RouterGroup, escrowService portssvc.EscrowSvcFacade) {
	h := newEscrowHandler(escrowService)

	escrows := rg.Group("/escrows")
	{
		escrows.POST("", h.createEscrow)
		escrows.GET("/:id", h.getEscrow)
		escrows.POST("/:id/fund", h.fundEscrow)
		escrows.POST("/:id/release", h.releaseEscrow)
		escrows.POST("/:id/refund", h.refundEscrow)
		escrows.POST("/:id/cancel", h.cancelEscrow)
		escrows.POST("/:id/dispute", h.openDispute)
	}
}

func (h *escrowHandler) createEscrow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorUserID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.CreateEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateEscrow", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	holding, err := h.escrowService.CreateEscrow(c.Request.Context(), req, actorUserID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create escrow")
		return
	}

	logger.Info("Escrow created",
		slog.String("escrow_id", holding.EscrowID),
		slog.String("contract_id", holding.ContractID),
	)
	c.JSON(http.StatusCreated, dto.ToEscrowResponse(holding))
}

func (h *escrowHandler) getEscrow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	holding, err := h.escrowService.GetEscrow(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve escrow")
		return
	}

	c.JSON(http.StatusOK, dto.ToEscrowResponse(holding))
}

// transition runs one actor-driven lifecycle step and renders the result.
func (h *escrowHandler) transition(c *gin.Context, verb string, op func(ctx *gin.Context, escrowID, actorUserID string) (*domain.EscrowHolding, error)) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorUserID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	escrowID := c.Param("id")
	holding, err := op(c, escrowID, actorUserID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to "+verb+" escrow")
		return
	}

	logger.Info("Escrow transition applied",
		slog.String("escrow_id", escrowID),
		slog.String("status", string(holding.Status)),
	)
	c.JSON(http.StatusOK, dto.ToEscrowResponse(holding))
}

func (h *escrowHandler) fundEscrow(c *gin.Context) {
	h.transition(c, "fund", func(c *gin.Context, escrowID, actorUserID string) (*domain.EscrowHolding, error) {
		return h.escrowService.FundEscrow(c.Request.Context(), escrowID, actorUserID)
	})
}

func (h *escrowHandler) releaseEscrow(c *gin.Context) {
	h.transition(c, "release", func(c *gin.Context, escrowID, actorUserID string) (*domain.EscrowHolding, error) {
		return h.escrowService.ReleaseEscrow(c.Request.Context(), escrowID, actorUserID)
	})
}

func (h *escrowHandler) refundEscrow(c *gin.Context) {
	h.transition(c, "refund", func(c *gin.Context, escrowID, actorUserID string) (*domain.EscrowHolding, error) {
		return h.escrowService.RefundEscrow(c.Request.Context(), escrowID, actorUserID)
	})
}

func (h *escrowHandler) cancelEscrow(c *gin.Context) {
	h.transition(c, "cancel", func(c *gin.Context, escrowID, actorUserID string) (*domain.EscrowHolding, error) {
		return h.escrowService.CancelEscrow(c.Request.Context(), escrowID, actorUserID)
	})
}

func (h *escrowHandler) openDispute(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorUserID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		logger.Warn("Failed to bind JSON for OpenDispute", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	req := dto.OpenDisputeRequest{EscrowID: c.Param("id"), Reason: body.Reason}
	dispute, err := h.escrowService.OpenDispute(c.Request.Context(), req, actorUserID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to open dispute")
		return
	}

	logger.Info("Dispute opened",
		slog.String("dispute_id", dispute.DisputeID),
		slog.String("escrow_id", dispute.EscrowID),
	)
	c.JSON(http.StatusCreated, dto.ToDisputeResponse(dispute))
}
