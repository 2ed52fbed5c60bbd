package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validatorv10 "github.com/go-playground/validator/v10"
	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/stickershop/internal/auth"
	"github.com/wellywell/stickershop/internal/coinbase"
	"github.com/wellywell/stickershop/internal/config"
	"github.com/wellywell/stickershop/internal/db"
	"github.com/wellywell/stickershop/internal/evm"
	"github.com/wellywell/stickershop/internal/notify"
	"github.com/wellywell/stickershop/internal/payment"
	"github.com/wellywell/stickershop/internal/types"
	"github.com/wellywell/stickershop/internal/validate"
)

const defaultTestMessage = "Hello from StickerShop!"

type Catalog interface {
	Ping(ctx context.Context) error
	ListPacks(ctx context.Context) ([]types.StickerPack, error)
}

type Orders interface {
	CreatePending(ctx context.Context, packID int64, buyer types.BuyerInfo) (*types.Order, error)
	Order(ctx context.Context, orderID int64) (*types.Order, error)
}

type Payments interface {
	CheckoutEnabled() bool
	OnchainEnabled() bool
	StartCheckout(ctx context.Context, orderID int64) (string, error)
	HandleWebhook(ctx context.Context, raw []byte, signature string) error
	VerifyOnchain(ctx context.Context, orderID int64, txHash string) (evm.Result, error)
	AdminSetStatus(ctx context.Context, orderID int64, status types.Status) (types.Status, error)
}

type Notifications interface {
	SendTest(ctx context.Context, to string, text string) (notify.Target, error)
}

// EVMConfig is what a wallet needs to build the payment transfer.
type EVMConfig struct {
	Enabled       bool   `json:"enabled"`
	ChainID       int64  `json:"chainId,omitempty"`
	TokenAddress  string `json:"tokenAddress,omitempty"`
	TokenDecimals int    `json:"tokenDecimals,omitempty"`
	Merchant      string `json:"merchant,omitempty"`
}

type HandlerSet struct {
	secret               []byte
	cookieExpiresSeconds int
	adminPasswordHash    string
	evm                  EVMConfig
	catalog              Catalog
	orders               Orders
	payments             Payments
	notifications        Notifications
	validator            *validatorv10.Validate
}

func NewHandlerSet(conf *config.ServerConfig, catalog Catalog, orders Orders, payments Payments, notifications Notifications) *HandlerSet {
	evmConfig := EVMConfig{Enabled: conf.EVMEnabled()}
	if evmConfig.Enabled {
		evmConfig.ChainID = conf.EVMChainID
		evmConfig.TokenAddress = conf.EVMTokenAddress
		evmConfig.TokenDecimals = conf.EVMTokenDecimals
		evmConfig.Merchant = conf.MerchantAddress
	}

	return &HandlerSet{
		secret:               conf.Secret(),
		cookieExpiresSeconds: conf.AuthCookieExpiresIn,
		adminPasswordHash:    conf.AdminPasswordHash,
		evm:                  evmConfig,
		catalog:              catalog,
		orders:               orders,
		payments:             payments,
		notifications:        notifications,
		validator:            validate.New(),
	}
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	response, err := json.Marshal(value)
	if err != nil {
		http.Error(w, "Could not serialize result",
			http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(response)
	if err != nil {
		logger.Error(err)
	}
}

// parseBody decodes a JSON body into out and validates it. On failure the
// response is already written.
func (h *HandlerSet) parseBody(w http.ResponseWriter, req *http.Request, out interface{}) bool {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, "Something went wrong",
			http.StatusInternalServerError)
		return false
	}

	err = json.Unmarshal(body, out)
	if err != nil {
		http.Error(w, "Could not parse body",
			http.StatusBadRequest)
		return false
	}

	err = h.validator.Struct(out)
	if err != nil {
		http.Error(w, validate.Describe(err), http.StatusBadRequest)
		return false
	}
	return true
}

func orderIDParam(w http.ResponseWriter, req *http.Request) (int64, bool) {
	orderID, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil || orderID <= 0 {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return 0, false
	}
	return orderID, true
}

func (h *HandlerSet) handleOrderErrors(err error, w http.ResponseWriter) {
	var orderNotFound *db.OrderNotFoundError
	var packNotFound *db.PackNotFoundError
	var invalidTransition *db.InvalidTransitionError
	var conflict *db.ProviderConflictError
	var chargeInUse *db.ChargeInUseError
	var closed *db.OrderClosedError

	switch {
	case errors.As(err, &orderNotFound):
		http.Error(w, "Order not found", http.StatusNotFound)
	case errors.As(err, &packNotFound):
		http.Error(w, "Invalid pack", http.StatusBadRequest)
	case errors.Is(err, db.ErrInvalidStatus):
		http.Error(w, "Invalid status", http.StatusBadRequest)
	case errors.As(err, &invalidTransition), errors.As(err, &conflict), errors.As(err, &chargeInUse),
		errors.As(err, &closed):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.Error(err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func (h *HandlerSet) HandleHealth(w http.ResponseWriter, req *http.Request) {
	if err := h.catalog.Ping(req.Context()); err != nil {
		logger.Errorf("Health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *HandlerSet) HandleGetPacks(w http.ResponseWriter, req *http.Request) {
	packs, err := h.catalog.ListPacks(req.Context())
	if err != nil {
		logger.Error(err)
		http.Error(w, "Error getting data", http.StatusInternalServerError)
		return
	}
	if packs == nil {
		packs = []types.StickerPack{}
	}
	writeJSON(w, http.StatusOK, packs)
}

type createdOrder struct {
	*types.Order
	PaymentURL string `json:"payment_url,omitempty"`
}

func (h *HandlerSet) HandlePostOrder(w http.ResponseWriter, req *http.Request) {
	var data validate.CreateOrderRequest
	if !h.parseBody(w, req, &data) {
		return
	}

	order, err := h.orders.CreatePending(req.Context(), data.PackID, types.BuyerInfo{
		Email:    data.BuyerEmail,
		Telegram: data.BuyerTelegram,
	})
	if err != nil {
		h.handleOrderErrors(err, w)
		return
	}

	response := createdOrder{Order: order}
	if data.Rail != types.ProviderOnchain && h.payments.CheckoutEnabled() {
		// The order stands even if the processor is down; the buyer can retry
		// through the pay link.
		url, err := h.payments.StartCheckout(req.Context(), order.ID)
		if err != nil {
			logger.Errorf("Failed to create payment for order %d: %v", order.ID, err)
		} else {
			response.PaymentURL = url
		}
	}
	writeJSON(w, http.StatusCreated, response)
}

func (h *HandlerSet) HandleGetOrder(w http.ResponseWriter, req *http.Request) {
	orderID, ok := orderIDParam(w, req)
	if !ok {
		return
	}

	order, err := h.orders.Order(req.Context(), orderID)
	if err != nil {
		h.handleOrderErrors(err, w)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// HandlePayOrder sends the buyer to the hosted checkout page, or back to the
// order when no checkout is available.
func (h *HandlerSet) HandlePayOrder(w http.ResponseWriter, req *http.Request) {
	orderID, ok := orderIDParam(w, req)
	if !ok {
		return
	}
	orderURL := fmt.Sprintf("/api/orders/%d", orderID)

	order, err := h.orders.Order(req.Context(), orderID)
	if err != nil {
		h.handleOrderErrors(err, w)
		return
	}
	if order.ProviderHostedURL != nil && *order.ProviderHostedURL != "" {
		http.Redirect(w, req, *order.ProviderHostedURL, http.StatusFound)
		return
	}

	url, err := h.payments.StartCheckout(req.Context(), orderID)
	if err != nil {
		logger.Warningf("No checkout for order %d: %v", orderID, err)
		http.Redirect(w, req, orderURL, http.StatusFound)
		return
	}
	http.Redirect(w, req, url, http.StatusFound)
}

func (h *HandlerSet) HandleCoinbaseWebhook(w http.ResponseWriter, req *http.Request) {
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, "Something went wrong",
			http.StatusInternalServerError)
		return
	}

	err = h.payments.HandleWebhook(req.Context(), raw, req.Header.Get(coinbase.SignatureHeader))
	switch {
	case err == nil:
		w.Header().Set("content-type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	case errors.Is(err, payment.ErrNotConfigured):
		http.Error(w, "Webhook not configured", http.StatusServiceUnavailable)
	case errors.Is(err, payment.ErrInvalidSignature):
		http.Error(w, "invalid signature", http.StatusBadRequest)
	case errors.Is(err, payment.ErrMalformedPayload):
		http.Error(w, "bad json", http.StatusBadRequest)
	default:
		logger.Error(err)
		http.Error(w, "verification error", http.StatusBadRequest)
	}
}

func (h *HandlerSet) HandleEVMConfig(w http.ResponseWriter, req *http.Request) {
	// Configured but unreachable at startup counts as disabled.
	if !h.evm.Enabled || !h.payments.OnchainEnabled() {
		writeJSON(w, http.StatusBadRequest, EVMConfig{Enabled: false})
		return
	}
	writeJSON(w, http.StatusOK, h.evm)
}

func (h *HandlerSet) HandleVerifyTx(w http.ResponseWriter, req *http.Request) {
	orderID, ok := orderIDParam(w, req)
	if !ok {
		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, "Something went wrong",
			http.StatusInternalServerError)
		return
	}
	var data validate.VerifyTxRequest
	if err := json.Unmarshal(body, &data); err != nil || data.TxHash == "" {
		writeJSON(w, http.StatusBadRequest, evm.Result{Reason: "missing txHash"})
		return
	}
	if err := h.validator.Struct(data); err != nil {
		writeJSON(w, http.StatusBadRequest, evm.Result{Reason: "invalid txHash"})
		return
	}

	result, err := h.payments.VerifyOnchain(req.Context(), orderID, data.TxHash)
	if err != nil {
		var orderNotFound *db.OrderNotFoundError
		var providerErr *payment.ProviderError
		var conflict *db.ProviderConflictError
		var chargeInUse *db.ChargeInUseError
		var invalidTransition *db.InvalidTransitionError
		var closed *db.OrderClosedError

		switch {
		case errors.As(err, &orderNotFound):
			writeJSON(w, http.StatusNotFound, evm.Result{Reason: "order not found"})
		case errors.Is(err, payment.ErrNotConfigured):
			writeJSON(w, http.StatusBadRequest, evm.Result{Reason: "evm payments not configured"})
		case errors.Is(err, evm.ErrInvalidTxHash):
			writeJSON(w, http.StatusBadRequest, evm.Result{Reason: "invalid txHash"})
		case errors.As(err, &providerErr):
			logger.Error(err)
			writeJSON(w, http.StatusBadGateway, evm.Result{Reason: "rpc error"})
		case errors.Is(err, payment.ErrNotPending):
			writeJSON(w, http.StatusConflict, evm.Result{Reason: "order is not awaiting payment"})
		case errors.As(err, &conflict), errors.As(err, &chargeInUse), errors.As(err, &invalidTransition),
			errors.As(err, &closed):
			writeJSON(w, http.StatusConflict, evm.Result{Reason: err.Error()})
		default:
			logger.Error(err)
			writeJSON(w, http.StatusInternalServerError, evm.Result{Reason: "error"})
		}
		return
	}

	if !result.OK {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleAdminUnavailable answers every admin route when no admin secret or
// password hash is configured.
func (h *HandlerSet) HandleAdminUnavailable(w http.ResponseWriter, req *http.Request) {
	http.Error(w, "Admin not configured", http.StatusServiceUnavailable)
}

func (h *HandlerSet) HandleAdminLogin(w http.ResponseWriter, req *http.Request) {
	var data validate.AdminLoginRequest
	if !h.parseBody(w, req, &data) {
		return
	}

	if !auth.CheckPasswordHash(data.Password, h.adminPasswordHash) {
		http.Error(w, "Wrong password", http.StatusUnauthorized)
		return
	}

	err := auth.SetAuthCookie(auth.AdminUser, w, h.secret, h.cookieExpiresSeconds)
	if err != nil {
		http.Error(w, "Something went wrong",
			http.StatusInternalServerError)
		return
	}

	w.Header().Set("content-type", "text/plain")

	_, err = w.Write([]byte("success"))
	if err != nil {
		logger.Error(err)
	}
}

type statusChange struct {
	ID       int64        `json:"id"`
	Previous types.Status `json:"previous"`
	Status   types.Status `json:"status"`
}

func (h *HandlerSet) HandleAdminSetStatus(w http.ResponseWriter, req *http.Request) {
	orderID, ok := orderIDParam(w, req)
	if !ok {
		return
	}

	var data validate.StatusRequest
	if !h.parseBody(w, req, &data) {
		return
	}

	user, _ := auth.GetAuthenticatedUser(req)
	status := types.Status(data.Status)
	previous, err := h.payments.AdminSetStatus(req.Context(), orderID, status)
	if err != nil {
		h.handleOrderErrors(err, w)
		return
	}
	logger.WithFields(logger.Fields{"order": orderID, "user": user}).Infof("Status changed %s -> %s", previous, status)
	writeJSON(w, http.StatusOK, statusChange{ID: orderID, Previous: previous, Status: status})
}

func (h *HandlerSet) HandleAdminTelegramTest(w http.ResponseWriter, req *http.Request) {
	var data validate.TelegramTestRequest
	if !h.parseBody(w, req, &data) {
		return
	}
	if data.Text == "" {
		data.Text = defaultTestMessage
	}

	target, err := h.notifications.SendTest(req.Context(), data.To, data.Text)
	switch {
	case errors.Is(err, notify.ErrDisabled):
		http.Error(w, "Telegram not configured", http.StatusServiceUnavailable)
		return
	case errors.Is(err, notify.ErrNoTarget):
		http.Error(w, "Provide to=@username or numeric id or set TELEGRAM_DEFAULT_CHAT_ID",
			http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, fmt.Sprintf("Failed to send: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("content-type", "text/plain")
	_, err = w.Write([]byte(fmt.Sprintf("Sent to %s", target)))
	if err != nil {
		logger.Error(err)
	}
}
