package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/application/usecase"
	"arcvault.com/internal/domain/access"
	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/domain/port"
	"arcvault.com/internal/infrastructure/logger"
	"arcvault.com/internal/infrastructure/metrics"
)

// Handler holds HTTP handlers and their dependencies
type Handler struct {
	custody   *usecase.CustodyUseCase
	balances  *usecase.GetBalanceUseCase
	send      *usecase.BridgeSendUseCase
	receive   *usecase.BridgeReceiveUseCase
	yield     *usecase.YieldUseCase
	admin     *usecase.AdminUseCase
	validator port.DeliveryValidator
	metrics   *metrics.Metrics
	logger    logger.Logger

	// transportCaller is the identity delivery callbacks run under once the
	// HMAC check passes.
	transportCaller access.Caller
}

// NewHandler creates a new HTTP handler
func NewHandler(
	custody *usecase.CustodyUseCase,
	balances *usecase.GetBalanceUseCase,
	send *usecase.BridgeSendUseCase,
	receive *usecase.BridgeReceiveUseCase,
	yield *usecase.YieldUseCase,
	admin *usecase.AdminUseCase,
	validator port.DeliveryValidator,
	m *metrics.Metrics,
	logger logger.Logger,
	transportCaller access.Caller,
) *Handler {
	return &Handler{
		custody:         custody,
		balances:        balances,
		send:            send,
		receive:         receive,
		yield:           yield,
		admin:           admin,
		validator:       validator,
		metrics:         m,
		logger:          logger,
		transportCaller: transportCaller,
	}
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidArgument), errors.Is(err, entity.ErrInvalidMessage):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrUnsupportedAsset):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrInsufficientBalance), errors.Is(err, entity.ErrInsufficientFee), errors.Is(err, entity.ErrDuplicateMessage):
		return http.StatusConflict
	case errors.Is(err, entity.ErrPaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, entity.ErrTransferFailed), errors.Is(err, entity.ErrAdapterFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// reasonFor labels an error for the rejection counter.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, entity.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, entity.ErrInvalidMessage):
		return "invalid_message"
	case errors.Is(err, entity.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, entity.ErrUnsupportedAsset):
		return "unsupported"
	case errors.Is(err, entity.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, entity.ErrInsufficientFee):
		return "insufficient_fee"
	case errors.Is(err, entity.ErrDuplicateMessage):
		return "duplicate_message"
	case errors.Is(err, entity.ErrPaused):
		return "paused"
	case errors.Is(err, entity.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, entity.ErrAdapterFailure):
		return "adapter_failure"
	default:
		return "internal"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, operation string, err error) {
	h.metrics.OperationRejected(operation, reasonFor(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, operation string, body any) {
	h.metrics.OperationCompleted(operation)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}

// callerFrom resolves the authenticated caller identity. The relay perimeter
// in front of this service authenticates users; here the identity arrives as
// the X-Account header.
func callerFrom(r *http.Request) (access.Caller, error) {
	account := r.Header.Get("X-Account")
	if account == "" {
		return access.Caller{}, fmt.Errorf("%w: missing X-Account header", entity.ErrInvalidArgument)
	}
	return access.Caller{Account: entity.Account(account)}, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: bad amount %q", entity.ErrInvalidArgument, raw)
	}
	return amount, nil
}

type custodyRequest struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
	To     string `json:"to,omitempty"`
}

// HandleDeposit handles POST /deposit requests
func (h *Handler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestLogger := loggerFrom(ctx, h.logger)

	caller, req, err := h.decodeCustody(r)
	if err != nil {
		h.writeError(w, "deposit", err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, "deposit", err)
		return
	}

	received, err := h.custody.Deposit(ctx, caller, entity.Asset(req.Asset), amount)
	if err != nil {
		requestLogger.LogWarning(ctx, "Deposit rejected", "error", err.Error())
		h.writeError(w, "deposit", err)
		return
	}

	h.writeJSON(w, "deposit", map[string]string{
		"status":   "ok",
		"received": received.StringFixed(8),
	})
}

// HandleWithdraw handles POST /withdraw requests
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestLogger := loggerFrom(ctx, h.logger)

	caller, req, err := h.decodeCustody(r)
	if err != nil {
		h.writeError(w, "withdraw", err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, "withdraw", err)
		return
	}

	if err := h.custody.Withdraw(ctx, caller, entity.Asset(req.Asset), amount, entity.Account(req.To)); err != nil {
		requestLogger.LogWarning(ctx, "Withdrawal rejected", "error", err.Error())
		h.writeError(w, "withdraw", err)
		return
	}

	h.writeJSON(w, "withdraw", map[string]string{"status": "ok"})
}

// HandleTransfer handles POST /transfer requests
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestLogger := loggerFrom(ctx, h.logger)

	caller, req, err := h.decodeCustody(r)
	if err != nil {
		h.writeError(w, "transfer", err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, "transfer", err)
		return
	}

	if err := h.custody.InternalTransfer(ctx, caller, entity.Asset(req.Asset), amount, entity.Account(req.To)); err != nil {
		requestLogger.LogWarning(ctx, "Transfer rejected", "error", err.Error())
		h.writeError(w, "transfer", err)
		return
	}

	h.writeJSON(w, "transfer", map[string]string{"status": "ok"})
}

func (h *Handler) decodeCustody(r *http.Request) (access.Caller, *custodyRequest, error) {
	caller, err := callerFrom(r)
	if err != nil {
		return access.Caller{}, nil, err
	}
	var req custodyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return access.Caller{}, nil, fmt.Errorf("%w: bad request body", entity.ErrInvalidArgument)
	}
	return caller, &req, nil
}

// HandleBalance handles GET /balance/{account} and /balance/{account}/{asset}
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestLogger := loggerFrom(ctx, h.logger)

	rest := strings.TrimPrefix(r.URL.Path, "/balance/")
	if rest == "" || rest == r.URL.Path {
		h.writeError(w, "balance", fmt.Errorf("%w: missing account", entity.ErrInvalidArgument))
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	account := entity.Account(parts[0])

	if len(parts) == 2 && parts[1] != "" {
		amount, err := h.balances.AssetBalance(ctx, entity.Asset(parts[1]), account)
		if err != nil {
			requestLogger.LogError(ctx, "Failed to get balance", err)
			h.writeError(w, "balance", err)
			return
		}
		h.writeJSON(w, "balance", map[string]string{
			"account": string(account),
			"asset":   parts[1],
			"amount":  amount.StringFixed(8),
		})
		return
	}

	balance, err := h.balances.Execute(ctx, account)
	if err != nil {
		requestLogger.LogError(ctx, "Failed to get balances", err)
		h.writeError(w, "balance", err)
		return
	}
	h.writeJSON(w, "balance", balance)
}

type bridgeSendRequest struct {
	DestinationNetworkID string `json:"destinationNetworkId"`
	Asset                string `json:"asset"`
	Amount               string `json:"amount"`
	Swap                 *struct {
		TargetAsset    string `json:"targetAsset"`
		MinOutput      string `json:"minOutput"`
		FinalRecipient string `json:"finalRecipient"`
	} `json:"swap,omitempty"`
}

// HandleBridgeSend handles POST /bridge/send requests
func (h *Handler) HandleBridgeSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestLogger := loggerFrom(ctx, h.logger)

	caller, err := callerFrom(r)
	if err != nil {
		h.writeError(w, "bridge_send", err)
		return
	}

	var req bridgeSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "bridge_send", fmt.Errorf("%w: bad request body", entity.ErrInvalidArgument))
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, "bridge_send", err)
		return
	}

	var swap *entity.SwapInstructions
	if req.Swap != nil {
		minOutput := decimal.Zero
		if req.Swap.MinOutput != "" {
			minOutput, err = parseAmount(req.Swap.MinOutput)
			if err != nil {
				h.writeError(w, "bridge_send", err)
				return
			}
		}
		swap = &entity.SwapInstructions{
			TargetAsset:    entity.Asset(req.Swap.TargetAsset),
			MinOutput:      minOutput,
			FinalRecipient: entity.Account(req.Swap.FinalRecipient),
		}
	}

	messageID, err := h.send.Send(ctx, caller, entity.NetworkID(req.DestinationNetworkID), entity.Asset(req.Asset), amount, swap)
	if err != nil {
		requestLogger.LogWarning(ctx, "Bridge send rejected", "error", err.Error())
		h.writeError(w, "bridge_send", err)
		return
	}

	h.writeJSON(w, "bridge_send", map[string]string{
		"status":    "ok",
		"messageId": messageID,
	})
}

// HandleDelivery handles POST /bridge/delivery, the transport's delivery
// callback. Authentication is the HMAC signature; the caller identity after
// that is the configured transport account, and the sender allow-list inside
// the use case is the second layer.
func (h *Handler) HandleDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestLogger := loggerFrom(ctx, h.logger)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, "delivery", fmt.Errorf("%w: unreadable body", entity.ErrInvalidArgument))
		return
	}

	if err := h.validator.ValidateDelivery(ctx, r, body); err != nil {
		requestLogger.LogWarning(ctx, "Delivery authentication failed", "error", err.Error())
		h.metrics.OperationRejected("delivery", "bad_signature")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	var msg entity.BridgeMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.writeError(w, "delivery", fmt.Errorf("%w: bad message body", entity.ErrInvalidMessage))
		return
	}

	if err := h.receive.OnMessageDelivered(ctx, h.transportCaller, &msg); err != nil {
		requestLogger.LogWarning(ctx, "Delivery rejected",
			"message_id", msg.MessageID,
			"error", err.Error())
		h.writeError(w, "delivery", err)
		return
	}

	h.writeJSON(w, "delivery", map[string]string{
		"status":    "ok",
		"messageId": msg.MessageID,
	})
}

type adminRequest struct {
	Asset     string `json:"asset,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Account   string `json:"account,omitempty"`
	Network   string `json:"network,omitempty"`
	Sender    string `json:"sender,omitempty"`
	To        string `json:"to,omitempty"`
	NewOwner  string `json:"newOwner,omitempty"`
	Allowed   bool   `json:"allowed,omitempty"`
	Supported bool   `json:"supported,omitempty"`
	Force     bool   `json:"force,omitempty"`
}

// HandleAdmin handles POST /admin/* requests
func (h *Handler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestLogger := loggerFrom(ctx, h.logger)

	caller, err := callerFrom(r)
	if err != nil {
		h.writeError(w, "admin", err)
		return
	}

	var req adminRequest
	if r.Body != nil {
		// Several admin actions carry no body at all.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	action := strings.TrimPrefix(r.URL.Path, "/admin/")
	switch action {
	case "assets":
		err = h.admin.ToggleAssetSupport(ctx, caller, entity.Asset(req.Asset), req.Supported)
	case "senders":
		err = h.admin.SetAuthorizedSender(ctx, caller, entity.NetworkID(req.Network), entity.Account(req.Sender), req.Allowed)
	case "minters":
		err = h.admin.SetMinter(ctx, caller, entity.Account(req.Account), req.Allowed)
	case "burners":
		err = h.admin.SetBurner(ctx, caller, entity.Account(req.Account), req.Allowed)
	case "pause":
		err = h.admin.Pause(ctx, caller)
	case "unpause":
		err = h.admin.Unpause(ctx, caller)
	case "ownership/transfer":
		err = h.admin.TransferOwnership(ctx, caller, entity.Account(req.NewOwner))
	case "ownership/accept":
		err = h.admin.AcceptOwnership(ctx, caller)
	case "recover":
		var amount decimal.Decimal
		amount, err = parseAmount(req.Amount)
		if err == nil {
			err = h.admin.RecoverStrandedAsset(ctx, caller, entity.Asset(req.Asset), amount, entity.Account(req.To), req.Force)
		}
	default:
		err = fmt.Errorf("%w: unknown admin action %q", entity.ErrInvalidArgument, action)
	}

	if err != nil {
		requestLogger.LogWarning(ctx, "Admin action rejected",
			"action", action,
			"error", err.Error())
		h.writeError(w, "admin", err)
		return
	}

	h.writeJSON(w, "admin", map[string]string{"status": "ok"})
}

// HandleYield handles POST /yield/supply, POST /yield/withdraw, and
// GET /yield/balance/{asset}.
func (h *Handler) HandleYield(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestLogger := loggerFrom(ctx, h.logger)

	action := strings.TrimPrefix(r.URL.Path, "/yield/")

	if strings.HasPrefix(action, "balance/") {
		asset := entity.Asset(strings.TrimPrefix(action, "balance/"))
		amount, err := h.yield.SuppliedBalance(ctx, asset)
		if err != nil {
			h.writeError(w, "yield", err)
			return
		}
		h.writeJSON(w, "yield", map[string]string{
			"asset":  string(asset),
			"amount": amount.StringFixed(8),
		})
		return
	}

	caller, err := callerFrom(r)
	if err != nil {
		h.writeError(w, "yield", err)
		return
	}

	var req custodyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "yield", fmt.Errorf("%w: bad request body", entity.ErrInvalidArgument))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, "yield", err)
		return
	}

	switch action {
	case "supply":
		err = h.yield.Supply(ctx, caller, entity.Asset(req.Asset), amount)
	case "withdraw":
		err = h.yield.Withdraw(ctx, caller, entity.Asset(req.Asset), amount)
	default:
		err = fmt.Errorf("%w: unknown yield action %q", entity.ErrInvalidArgument, action)
	}

	if err != nil {
		requestLogger.LogWarning(ctx, "Yield action rejected",
			"action", action,
			"error", err.Error())
		h.writeError(w, "yield", err)
		return
	}

	h.writeJSON(w, "yield", map[string]string{"status": "ok"})
}

// HandleHealth handles GET /healthz requests
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// SetupRoutes sets up all HTTP routes
func (h *Handler) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	wrap := func(method string, fn http.HandlerFunc) http.HandlerFunc {
		guarded := func(w http.ResponseWriter, r *http.Request) {
			if r.Method != method {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			fn(w, r)
		}
		return RequestIDMiddleware(LoggingMiddleware(guarded, h.logger), h.logger)
	}

	mux.HandleFunc("/deposit", wrap(http.MethodPost, h.HandleDeposit))
	mux.HandleFunc("/withdraw", wrap(http.MethodPost, h.HandleWithdraw))
	mux.HandleFunc("/transfer", wrap(http.MethodPost, h.HandleTransfer))
	mux.HandleFunc("/balance/", wrap(http.MethodGet, h.HandleBalance))
	mux.HandleFunc("/bridge/send", wrap(http.MethodPost, h.HandleBridgeSend))
	mux.HandleFunc("/bridge/delivery", wrap(http.MethodPost, h.HandleDelivery))
	mux.HandleFunc("/admin/", wrap(http.MethodPost, h.HandleAdmin))
	mux.HandleFunc("/yield/supply", wrap(http.MethodPost, h.HandleYield))
	mux.HandleFunc("/yield/withdraw", wrap(http.MethodPost, h.HandleYield))
	mux.HandleFunc("/yield/balance/", wrap(http.MethodGet, h.HandleYield))
	mux.HandleFunc("/healthz", h.HandleHealth)
	mux.Handle("/metrics", h.metrics.Handler())

	return mux
}
