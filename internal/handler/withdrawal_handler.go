package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/xolanidube/mzansi-market-sub000/internal/middleware"
	"github.com/xolanidube/mzansi-market-sub000/internal/models"
	"github.com/xolanidube/mzansi-market-sub000/internal/service"
)

type WithdrawalHandler struct {
	withdrawals *service.WithdrawalService
	notifier    *service.NotificationService
}

func NewWithdrawalHandler(withdrawals *service.WithdrawalService, notifier *service.NotificationService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals, notifier: notifier}
}

// Create handles POST /wallet/withdrawals.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Amount        decimal.Decimal `json:"amount" binding:"required"`
		BankName      string          `json:"bank_name" binding:"required"`
		AccountNumber string          `json:"account_number" binding:"required"`
		AccountHolder string          `json:"account_holder" binding:"required"`
		BranchCode    string          `json:"branch_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.withdrawals.Request(c.Request.Context(), userID, req.Amount, service.BankDetails{
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountHolder: req.AccountHolder,
		BranchCode:    req.BranchCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	// Best effort; the request is already committed.
	_ = h.notifier.NotifyWithdrawalRequested(c.Request.Context(), w)
	c.JSON(http.StatusCreated, w)
}

// Cancel handles DELETE /wallet/withdrawals/:id. Owner-only, PENDING-only.
func (h *WithdrawalHandler) Cancel(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	w, err := h.withdrawals.Cancel(c.Request.Context(), uint(id), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ListMine handles GET /wallet/withdrawals.
func (h *WithdrawalHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	list, total, err := h.withdrawals.ListByUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []models.WithdrawalRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}
