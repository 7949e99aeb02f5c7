package handlers

import (
	"errors"
	"net/http"

	"seaport-backend/internal/config"
	"seaport-backend/internal/dto"
	"seaport-backend/internal/ledger"
	"seaport-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminHandler manages the settlement ledger: balances, approvals, conduits, zones and smart accounts
type AdminHandler struct {
	service *services.ExchangeService
	logger  *logrus.Logger
}

// NewAdminHandler creates a new AdminHandler instance
func NewAdminHandler(service *services.ExchangeService, logger *logrus.Logger) *AdminHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AdminHandler{service: service, logger: logger}
}

// respondWithLedgerError reports ledger rejections as bad requests
func respondWithLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrLedgerUnavailable), errors.Is(err, services.ErrSmartAccountsUnavailable),
		errors.Is(err, ledger.ErrConduitExists):
		respondWithEngineError(c, err)
	default:
		respondWithError(c, http.StatusBadRequest, "LEDGER_REJECTED", err.Error())
	}
}

func (h *AdminHandler) audit(c *gin.Context, action string, fields logrus.Fields) {
	fields["admin"] = c.GetString("admin_username")
	fields["action"] = action
	h.logger.WithFields(fields).Info("🛡️ Admin action")
}

// MintHandler POST /api/admin/ledger/mint
func (h *AdminHandler) MintHandler(c *gin.Context) {
	var req dto.MintRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.ItemType.Valid() || req.ItemType.HasCriteria() {
		respondWithError(c, http.StatusBadRequest, "INVALID_ITEM_TYPE", "item type must be NATIVE, ERC20, ERC721 or ERC1155")
		return
	}
	identifier, err := config.ParseAmount(req.Identifier)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "INVALID_IDENTIFIER", err.Error())
		return
	}
	amount, err := config.ParseAmount(req.Amount)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
		return
	}
	if err := h.service.Mint(req.Account, req.ItemType, req.Token, identifier, amount); err != nil {
		respondWithLedgerError(c, err)
		return
	}
	h.audit(c, "mint", logrus.Fields{"account": req.Account.Hex(), "amount": amount.String()})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetApprovalHandler POST /api/admin/ledger/approvals
func (h *AdminHandler) SetApprovalHandler(c *gin.Context) {
	var req dto.ApprovalRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.SetApproval(req.Owner, req.Operator, req.Approved); err != nil {
		respondWithLedgerError(c, err)
		return
	}
	h.audit(c, "approval", logrus.Fields{"owner": req.Owner.Hex(), "operator": req.Operator.Hex(), "approved": req.Approved})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListConduitsHandler GET /api/admin/conduits
func (h *AdminHandler) ListConduitsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "conduits": h.service.Conduits()})
}

// CreateConduitHandler POST /api/admin/conduits
func (h *AdminHandler) CreateConduitHandler(c *gin.Context) {
	var req dto.CreateConduitRequest
	if !bindJSON(c, &req) {
		return
	}
	conduit, err := h.service.CreateConduit(req.ConduitKey, req.Owner)
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}
	h.audit(c, "create_conduit", logrus.Fields{"conduitKey": req.ConduitKey.Hex(), "conduit": conduit.Hex()})
	c.JSON(http.StatusCreated, gin.H{"success": true, "conduit": conduit})
}

// UpdateChannelHandler PUT /api/admin/conduits/:conduitKey/channels
func (h *AdminHandler) UpdateChannelHandler(c *gin.Context) {
	key, ok := hashParam(c, "conduitKey")
	if !ok {
		return
	}
	var req dto.UpdateChannelRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.UpdateChannel(key, req.Channel, req.Open); err != nil {
		respondWithLedgerError(c, err)
		return
	}
	h.audit(c, "update_channel", logrus.Fields{"conduitKey": key.Hex(), "channel": req.Channel.Hex(), "open": req.Open})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegisterZoneHandler POST /api/admin/zones
func (h *AdminHandler) RegisterZoneHandler(c *gin.Context) {
	var req dto.RegisterZoneRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.RegisterZone(req.Address, req.AllowAll, req.Callers, req.Offerers); err != nil {
		respondWithLedgerError(c, err)
		return
	}
	h.audit(c, "register_zone", logrus.Fields{"zone": req.Address.Hex(), "allowAll": req.AllowAll, "offerers": len(req.Offerers)})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegisterSmartAccountHandler POST /api/admin/smart-accounts
func (h *AdminHandler) RegisterSmartAccountHandler(c *gin.Context) {
	var req dto.RegisterSmartAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.RegisterSmartAccount(req.Account, req.Owner); err != nil {
		respondWithLedgerError(c, err)
		return
	}
	h.audit(c, "register_smart_account", logrus.Fields{"account": req.Account.Hex(), "owner": req.Owner.Hex()})
	c.JSON(http.StatusOK, gin.H{"success": true})
}
