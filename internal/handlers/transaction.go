package handlers

import (
	"context"

	apperrors "bitcash/internal/errors"
	"bitcash/internal/models"
	"bitcash/internal/services/ledger"
	"bitcash/internal/utils"
	"bitcash/internal/utils/response"
	"bitcash/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransferExecutor is the ledger engine as seen by HTTP.
type TransferExecutor interface {
	ExecuteTransfer(ctx context.Context, req ledger.TransferRequest) (*models.Transaction, error)
}

// WalletReader is the read side used to resolve "my wallet" and history.
type WalletReader interface {
	GetWalletByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.Transaction, error)
	GetTransactionForWallet(ctx context.Context, walletID uuid.UUID, reference string) (*models.Transaction, error)
}

// TransactionHandler exposes the money-moving endpoints.
type TransactionHandler struct {
	ledger  TransferExecutor
	wallets WalletReader
	logger  *zap.Logger
}

func NewTransactionHandler(ledger TransferExecutor, wallets WalletReader, logger *zap.Logger) *TransactionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionHandler{ledger: ledger, wallets: wallets, logger: logger.Named("transactions")}
}

type createTransactionRequest struct {
	Type             string          `json:"type" validate:"required,txtype"`
	SenderWalletID   string          `json:"sender_wallet_id" validate:"omitempty,uuid"`
	ReceiverWalletID string          `json:"receiver_wallet_id" validate:"omitempty,uuid"`
	Amount           decimal.Decimal `json:"amount"`
	PIN              string          `json:"pin"`
	Description      string          `json:"description" validate:"max=255"`
	Metadata         models.JSON     `json:"metadata"`
}

// Create handles POST /api/transactions.
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	claims, err := utils.GetOwnerClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	var body createTransactionRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if v := validation.Struct(body); !v.Valid() {
		return response.BadRequest(c, v.Error())
	}

	req := ledger.TransferRequest{
		Type:        models.TransactionType(body.Type),
		Amount:      body.Amount,
		PIN:         body.PIN,
		Description: body.Description,
		Metadata:    body.Metadata,
	}
	named := func(s string) uuid.UUID {
		// Already validated.
		id, _ := uuid.Parse(s)
		return id
	}
	req.ReceiverWalletID = named(body.ReceiverWalletID)

	ctx := c.UserContext()
	if claims.IsAgent() {
		req.AgentID = claims.OwnerID
		switch req.Type {
		case models.TransactionTypeDeposit:
			req.SenderWalletID = named(body.SenderWalletID)
		case models.TransactionTypeWithdrawal:
			req.SenderWalletID = named(body.SenderWalletID)
			if req.ReceiverWalletID == uuid.Nil {
				own, err := h.wallets.GetWalletByOwner(ctx, claims.OwnerID)
				if err != nil {
					return writeError(c, h.logger, err)
				}
				req.ReceiverWalletID = own.ID
			}
		default:
			own, err := h.wallets.GetWalletByOwner(ctx, claims.OwnerID)
			if err != nil {
				return writeError(c, h.logger, err)
			}
			req.SenderWalletID = own.ID
		}
	} else {
		if req.Type == models.TransactionTypeDeposit {
			return response.Forbidden(c)
		}
		own, err := h.wallets.GetWalletByOwner(ctx, claims.OwnerID)
		if err != nil {
			return writeError(c, h.logger, err)
		}
		if body.SenderWalletID != "" && named(body.SenderWalletID) != own.ID {
			return response.Forbidden(c)
		}
		req.SenderWalletID = own.ID
	}

	txn, err := h.ledger.ExecuteTransfer(ctx, req)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return response.Created(c, "transaction completed", txn)
}

// GetByReference handles GET /api/transactions/:reference. Only parties of the
// transaction can see it.
func (h *TransactionHandler) GetByReference(c *fiber.Ctx) error {
	claims, err := utils.GetOwnerClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	reference := c.Params("reference")
	if reference == "" || len(reference) > validation.MaxReferenceLength {
		return writeError(c, h.logger, apperrors.ErrTransactionNotFound)
	}

	own, err := h.wallets.GetWalletByOwner(c.UserContext(), claims.OwnerID)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	txn, err := h.wallets.GetTransactionForWallet(c.UserContext(), own.ID, reference)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return response.Success(c, "transaction retrieved", txn)
}
