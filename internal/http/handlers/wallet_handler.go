package handlers

import (
	"github.com/dynamic-capital/backend/internal/http/dto"
	"github.com/dynamic-capital/backend/internal/middleware"
	"github.com/dynamic-capital/backend/internal/repositories"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WalletHandler struct {
	walletRepo *repositories.WalletRepo
	log        *zap.Logger
}

func NewWalletHandler(walletRepo *repositories.WalletRepo, log *zap.Logger) *WalletHandler {
	return &WalletHandler{walletRepo: walletRepo, log: log}
}

// GetWallet возвращает привязанный кошелёк текущего пользователя.
// GET /me/wallet
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	wallet, err := h.walletRepo.GetByUser(c.Context(), userID)
	if err != nil {
		h.log.Error("failed to load wallet", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: wallet})
}
