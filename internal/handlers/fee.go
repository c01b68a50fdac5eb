package handlers

import (
	"context"
	"errors"

	"bitcash/internal/models"
	"bitcash/internal/services/fee"
	"bitcash/internal/utils/response"
	"bitcash/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FeeManager reads and changes per-type fee percentages.
type FeeManager interface {
	GetFeePercentage(ctx context.Context, txType models.TransactionType) (decimal.Decimal, error)
	SetFeePercentage(ctx context.Context, txType models.TransactionType, pct decimal.Decimal) error
}

type FeeHandler struct {
	fees   FeeManager
	logger *zap.Logger
}

func NewFeeHandler(fees FeeManager, logger *zap.Logger) *FeeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeHandler{fees: fees, logger: logger.Named("fees")}
}

type feeParams struct {
	Type string `json:"type" validate:"required,txtype"`
}

// GetFee handles GET /api/admin/fees/:type.
func (h *FeeHandler) GetFee(c *fiber.Ctx) error {
	p := feeParams{Type: c.Params("type")}
	if v := validation.Struct(p); !v.Valid() {
		return response.BadRequest(c, v.Error())
	}

	pct, err := h.fees.GetFeePercentage(c.UserContext(), models.TransactionType(p.Type))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return response.Success(c, "fee retrieved", fiber.Map{"type": p.Type, "percentage": pct})
}

// SetFee handles PUT /api/admin/fees/:type with body {"percentage": "1.5"}.
func (h *FeeHandler) SetFee(c *fiber.Ctx) error {
	p := feeParams{Type: c.Params("type")}
	if v := validation.Struct(p); !v.Valid() {
		return response.BadRequest(c, v.Error())
	}

	var body struct {
		Percentage decimal.Decimal `json:"percentage"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if err := h.fees.SetFeePercentage(c.UserContext(), models.TransactionType(p.Type), body.Percentage); err != nil {
		if errors.Is(err, fee.ErrInvalidPercentage) {
			return response.BadRequest(c, err.Error())
		}
		return writeError(c, h.logger, err)
	}
	return response.Success(c, "fee updated", fiber.Map{"type": p.Type, "percentage": body.Percentage})
}
