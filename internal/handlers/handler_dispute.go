package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/quartzmarket/ledger/internal/core/ports/services"
	"github.com/quartzmarket/ledger/internal/dto"
	"github.com/quartzmarket/ledger/internal/middleware"
)

// disputeHandler handles HTTP requests for dispute inspection and resolution.
type disputeHandler struct {
	disputeService portssvc.DisputeSvcFacade
}

func newDisputeHandler(ds portssvc.DisputeSvcFacade) *disputeHandler {
	return &disputeHandler{disputeService: ds}
}

// registerDisputeRoutes registers routes related to disputes. Resolution is
// restricted to admins.
func registerDisputeRoutes(rg *gin.RouterGroup, disputeService portssvc.DisputeSvcFacade) {
	h := newDisputeHandler(disputeService)

	disputes := rg.Group("/disputes")
	{
		disputes.GET("/:id", h.getDispute)
		disputes.POST("/:id/resolve", middleware.RequireAdmin(), h.resolveDispute)
	}
}

func (h *disputeHandler) getDispute(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	dispute, err := h.disputeService.GetDispute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve dispute")
		return
	}

	c.JSON(http.StatusOK, dto.ToDisputeResponse(dispute))
}

func (h *disputeHandler) resolveDispute(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	adminUserID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ResolveDispute", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	disputeID := c.Param("id")
	dispute, err := h.disputeService.ResolveDispute(c.Request.Context(), disputeID, req, adminUserID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to resolve dispute")
		return
	}

	logger.Info("Dispute resolved",
		slog.String("dispute_id", disputeID),
		slog.String("action", string(req.Action)),
	)
	c.JSON(http.StatusOK, dto.ToDisputeResponse(dispute))
}
