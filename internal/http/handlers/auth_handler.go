package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/dynamic-capital/backend/internal/auth"
	"github.com/dynamic-capital/backend/internal/config"
	"github.com/dynamic-capital/backend/internal/http/dto"
	"github.com/dynamic-capital/backend/internal/repositories"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	userRepo *repositories.UserRepo
	cfg      *config.Config
	log      *zap.Logger
}

func NewAuthHandler(userRepo *repositories.UserRepo, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, cfg: cfg, log: log}
}

// TelegramAuth валидирует initData mini-app и выдаёт JWT.
// POST /auth/telegram
func (h *AuthHandler) TelegramAuth(c *fiber.Ctx) error {
	var req dto.AuthTelegramRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.InitData == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "init_data is required"})
	}

	vals, err := auth.ValidateTelegramWebAppData(req.InitData, h.cfg.WebAppSecret, h.cfg.InitDataMaxAge)
	if err != nil {
		h.log.Debug("telegram auth validation failed", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	userJSON := vals.Get("user")
	if userJSON == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "user data missing from init_data"})
	}

	var tgUser struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(userJSON), &tgUser); err != nil || tgUser.ID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user data"})
	}

	user, err := h.userRepo.UpsertByTelegramID(c.Context(), strconv.FormatInt(tgUser.ID, 10))
	if err != nil {
		h.log.Error("failed to upsert user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, user.ID, user.TelegramID, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to generate jwt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	return c.JSON(dto.AuthResponse{Token: token, User: user})
}
