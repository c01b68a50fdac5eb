package handlers

import (
	"context"
	"errors"

	"bitcash/internal/services/credential"
	"bitcash/internal/utils"
	"bitcash/internal/utils/response"
	"bitcash/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PinSetter rotates the caller's PIN.
type PinSetter interface {
	SetPin(ctx context.Context, ownerID uuid.UUID, oldPin, newPin string) error
}

type WalletHandler struct {
	wallets WalletReader
	pins    PinSetter
	logger  *zap.Logger
}

func NewWalletHandler(wallets WalletReader, pins PinSetter, logger *zap.Logger) *WalletHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalletHandler{wallets: wallets, pins: pins, logger: logger.Named("wallets")}
}

// GetWallet handles GET /api/wallets/me.
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := utils.GetOwnerClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	w, err := h.wallets.GetWalletByOwner(c.UserContext(), claims.OwnerID)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return response.Success(c, "wallet retrieved", w)
}

// GetTransactions handles GET /api/wallets/me/transactions?limit=&offset=.
func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	claims, err := utils.GetOwnerClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}
	page := utils.GetPagination(c, validation.DefaultHistoryLimit)

	w, err := h.wallets.GetWalletByOwner(c.UserContext(), claims.OwnerID)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	txns, err := h.wallets.ListTransactions(c.UserContext(), w.ID, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return response.Success(c, "transactions retrieved", fiber.Map{
		"transactions": txns,
		"pagination":   page,
	})
}

type setPinRequest struct {
	OldPin string `json:"old_pin"`
	NewPin string `json:"new_pin" validate:"required,pin"`
}

// SetPin handles PUT /api/wallets/me/pin.
func (h *WalletHandler) SetPin(c *fiber.Ctx) error {
	claims, err := utils.GetOwnerClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var body setPinRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if v := validation.Struct(body); !v.Valid() {
		return response.BadRequest(c, v.Error())
	}

	if err := h.pins.SetPin(c.UserContext(), claims.OwnerID, body.OldPin, body.NewPin); err != nil {
		if errors.Is(err, credential.ErrInvalidPinFormat) {
			return response.BadRequest(c, err.Error())
		}
		return writeError(c, h.logger, err)
	}
	return response.Success(c, "pin updated", nil)
}
