package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xolanidube/mzansi-market-sub000/internal/middleware"
	"github.com/xolanidube/mzansi-market-sub000/internal/service"
)

type WalletHandler struct {
	wallets *service.WalletService
}

func NewWalletHandler(wallets *service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// GetWallet handles GET /wallet: balance, available balance, currency and
// paginated transaction history.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	overview, err := h.wallets.Overview(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
