package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
	"github.com/xolanidube/mzansi-market-sub000/internal/middleware"
	"github.com/xolanidube/mzansi-market-sub000/internal/models"
	"github.com/xolanidube/mzansi-market-sub000/internal/service"
)

type AdminHandler struct {
	processor   *service.AdminActionProcessor
	withdrawals *service.WithdrawalService
	wallets     *service.WalletService
}

func NewAdminHandler(processor *service.AdminActionProcessor, withdrawals *service.WithdrawalService, wallets *service.WalletService) *AdminHandler {
	return &AdminHandler{processor: processor, withdrawals: withdrawals, wallets: wallets}
}

// ListWithdrawals handles GET /admin/withdrawals?status=&page=&limit=:
// paginated list plus per-status aggregate counts and sums.
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	status := domain.WithdrawalStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status filter"})
		return
	}
	page, limit := parsePagination(c)
	list, total, err := h.withdrawals.ListByStatus(c.Request.Context(), status, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	summary, err := h.withdrawals.StatusSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []models.WithdrawalRequest{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":    list,
		"total":   total,
		"page":    page,
		"limit":   limit,
		"summary": summary,
	})
}

// ProcessWithdrawal handles POST /admin/withdrawals: approve, reject or
// complete a request through the admin action processor.
func (h *AdminHandler) ProcessWithdrawal(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	var req struct {
		WithdrawalID    uint   `json:"withdrawal_id" binding:"required"`
		Action          string `json:"action" binding:"required"`
		RejectionReason string `json:"rejection_reason"`
		Reference       string `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	action := service.AdminAction(req.Action)
	if !action.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be approve, reject or complete"})
		return
	}
	if action == service.ActionReject && req.RejectionReason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rejection_reason is required for reject"})
		return
	}
	if action == service.ActionComplete && req.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required for complete"})
		return
	}
	result, err := h.processor.Process(c.Request.Context(), adminID, req.WithdrawalID, action, service.ActionPayload{
		RejectionReason: req.RejectionReason,
		Reference:       req.Reference,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"data": result.Request}
	if result.Warning != "" {
		resp["warning"] = result.Warning
	}
	c.JSON(http.StatusOK, resp)
}

// AdjustWallet handles POST /admin/wallets/:userID/adjust. Appends a ledger
// entry on behalf of an external collaborator (booking completion) or as a
// manual correction.
func (h *AdminHandler) AdjustWallet(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req struct {
		Amount      decimal.Decimal `json:"amount" binding:"required"`
		Kind        string          `json:"kind" binding:"required"`
		Description string          `json:"description" binding:"required"`
		Reference   string          `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := h.wallets.Adjust(c.Request.Context(), uint(userID), req.Amount,
		domain.TransactionKind(req.Kind), req.Description, req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// AuditWallet handles GET /admin/wallets/:userID/audit: cached balance vs
// signed ledger sum.
func (h *AdminHandler) AuditWallet(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	audit, err := h.wallets.Audit(c.Request.Context(), uint(userID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, audit)
}
