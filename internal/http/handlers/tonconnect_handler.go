package handlers

import (
	"errors"
	"strings"

	"github.com/dynamic-capital/backend/internal/http/dto"
	"github.com/dynamic-capital/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type TonConnectHandler struct {
	service *services.TonConnectService
	log     *zap.Logger
}

func NewTonConnectHandler(service *services.TonConnectService, log *zap.Logger) *TonConnectHandler {
	return &TonConnectHandler{service: service, log: log}
}

// HandleSession — единственная точка входа TON Connect handshake.
// POST /ton-connect/session, операция выбирается полем action.
func (h *TonConnectHandler) HandleSession(c *fiber.Ctx) error {
	var req dto.SessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	switch req.Action {
	case "challenge":
		return h.challenge(c, req)
	case "", "verify":
		return h.verify(c, req)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Unsupported action"})
	}
}

func (h *TonConnectHandler) challenge(c *fiber.Ctx, req dto.SessionRequest) error {
	res, err := h.service.Challenge(c.Context(), req.TelegramID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

func (h *TonConnectHandler) verify(c *fiber.Ctx, req dto.SessionRequest) error {
	if strings.TrimSpace(req.TelegramID) == "" || strings.TrimSpace(req.Address) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "telegram_id and address are required"})
	}

	proof, err := dto.ParseProof(req.Proof)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	res, err := h.service.Verify(c.Context(), services.VerifyInput{
		TelegramID:      req.TelegramID,
		Address:         req.Address,
		PublicKey:       req.PublicKey,
		WalletStateInit: req.WalletStateInit,
		WalletAppName:   req.WalletAppName,
		Proof:           proof,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

func (h *TonConnectHandler) fail(c *fiber.Ctx, err error) error {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		h.log.Error("unexpected error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	status := fiber.StatusInternalServerError
	switch svcErr.Kind {
	case services.KindBadRequest:
		status = fiber.StatusBadRequest
	case services.KindUnauthorized:
		status = fiber.StatusUnauthorized
	case services.KindForbidden:
		status = fiber.StatusForbidden
	case services.KindInternal:
		h.log.Error("ton connect internal error", zap.Error(svcErr))
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: svcErr.Msg})
}
