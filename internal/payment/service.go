package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/stickershop/internal/coinbase"
	"github.com/wellywell/stickershop/internal/evm"
	"github.com/wellywell/stickershop/internal/metrics"
	"github.com/wellywell/stickershop/internal/types"
)

const maxDescriptionRunes = 120

type Ledger interface {
	Order(ctx context.Context, orderID int64) (*types.Order, error)
	Details(ctx context.Context, orderID int64) (*types.OrderDetails, error)
	AttachProviderCharge(ctx context.Context, orderID int64, update types.ChargeUpdate) error
	ConfirmPaid(ctx context.Context, orderID int64, provider string, chargeRef string) (bool, error)
	SetStatus(ctx context.Context, orderID int64, status types.Status) (types.Status, error)
}

type ChargeCreator interface {
	CreateCharge(ctx context.Context, req coinbase.ChargeRequest) (*coinbase.Charge, error)
}

type TxVerifier interface {
	Verify(ctx context.Context, order *types.Order, txHash string) (evm.Result, error)
}

type Notifier interface {
	OrderPaid(ctx context.Context, details *types.OrderDetails) bool
}

// Service runs both payment rails against the order ledger. A nil charge
// creator or verifier disables the matching rail.
type Service struct {
	ledger        Ledger
	notifier      Notifier
	charges       ChargeCreator
	webhookSecret string
	verifier      TxVerifier
}

func NewService(ledger Ledger, notifier Notifier, charges ChargeCreator, webhookSecret string, verifier TxVerifier) *Service {
	return &Service{
		ledger:        ledger,
		notifier:      notifier,
		charges:       charges,
		webhookSecret: webhookSecret,
		verifier:      verifier,
	}
}

func (s *Service) CheckoutEnabled() bool {
	return s.charges != nil
}

func (s *Service) OnchainEnabled() bool {
	return s.verifier != nil
}

// StartCheckout returns the hosted checkout page for a pending order,
// creating a processor charge unless one is already attached.
func (s *Service) StartCheckout(ctx context.Context, orderID int64) (string, error) {
	if s.charges == nil {
		return "", ErrNotConfigured
	}

	details, err := s.ledger.Details(ctx, orderID)
	if err != nil {
		return "", err
	}
	if details.Status != types.PendingStatus {
		return "", fmt.Errorf("%w: order %d is %s", ErrNotPending, orderID, details.Status)
	}

	provider := deref(details.PaymentProvider)
	if provider == types.ProviderCoinbase && deref(details.ProviderHostedURL) != "" {
		return *details.ProviderHostedURL, nil
	}

	charge, err := s.charges.CreateCharge(ctx, coinbase.ChargeRequest{
		Name:        details.PackName,
		Description: chargeDescription(details.PackDescription),
		AmountCents: details.PriceCents,
		OrderID:     details.ID,
	})
	if err != nil {
		return "", &ProviderError{Provider: types.ProviderCoinbase, Err: err}
	}

	err = s.ledger.AttachProviderCharge(ctx, orderID, types.ChargeUpdate{
		Provider:  types.ProviderCoinbase,
		ChargeID:  charge.ID,
		HostedURL: charge.HostedURL,
		Status:    charge.LatestStatus(),
	})
	if err != nil {
		return "", err
	}
	logger.WithFields(logger.Fields{"order": orderID, "charge": charge.ID}).Info("Checkout charge created")
	return charge.HostedURL, nil
}

// HandleWebhook verifies and applies a processor callback. Once the signature
// is valid it never fails: processing errors are logged so the processor
// does not redeliver forever.
func (s *Service) HandleWebhook(ctx context.Context, raw []byte, signature string) error {
	if s.webhookSecret == "" {
		metrics.WebhookEvents.WithLabelValues("unknown", "not_configured").Inc()
		return ErrNotConfigured
	}
	if !coinbase.VerifySignature(raw, signature, s.webhookSecret) {
		metrics.WebhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
		return ErrInvalidSignature
	}

	event, err := coinbase.ParseEvent(raw)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "malformed").Inc()
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	fields := logger.Fields{"event": event.ID, "type": event.Type, "charge": event.ChargeID, "order": event.OrderID}
	if event.OrderID == 0 {
		logger.WithFields(fields).Warning("Webhook event without order id, ignoring")
		metrics.WebhookEvents.WithLabelValues(event.Type, "ignored").Inc()
		return nil
	}

	err = s.ledger.AttachProviderCharge(ctx, event.OrderID, types.ChargeUpdate{
		Provider:  types.ProviderCoinbase,
		ChargeID:  event.ChargeID,
		HostedURL: event.HostedURL,
		Status:    event.Status,
	})
	if err != nil {
		logger.WithFields(fields).Errorf("Could not record charge on order: %v", err)
		metrics.WebhookEvents.WithLabelValues(event.Type, "error").Inc()
		return nil
	}

	if !event.Confirmed() {
		metrics.WebhookEvents.WithLabelValues(event.Type, "recorded").Inc()
		return nil
	}

	if _, err := s.confirm(ctx, event.OrderID, types.ProviderCoinbase, event.ChargeID); err != nil {
		logger.WithFields(fields).Errorf("Could not confirm order: %v", err)
		metrics.WebhookEvents.WithLabelValues(event.Type, "error").Inc()
		return nil
	}
	metrics.WebhookEvents.WithLabelValues(event.Type, "confirmed").Inc()
	return nil
}

// VerifyOnchain checks a buyer-submitted transaction and marks the order paid
// when it carries the expected transfer. Verification failures come back as
// a Result with a reason, RPC failures as a ProviderError.
func (s *Service) VerifyOnchain(ctx context.Context, orderID int64, txHash string) (evm.Result, error) {
	if s.verifier == nil {
		return evm.Result{}, ErrNotConfigured
	}
	if !evm.IsTxHash(txHash) {
		return evm.Result{}, evm.ErrInvalidTxHash
	}

	order, err := s.ledger.Order(ctx, orderID)
	if err != nil {
		return evm.Result{}, err
	}
	if order.Status != types.PendingStatus {
		if order.Status != types.CancelledStatus && paidWith(order, types.ProviderOnchain, txHash) {
			metrics.OnchainVerifications.WithLabelValues("duplicate").Inc()
			return evm.Result{OK: true}, nil
		}
		metrics.OnchainVerifications.WithLabelValues("not_pending").Inc()
		return evm.Result{}, fmt.Errorf("%w: order %d is %s", ErrNotPending, orderID, order.Status)
	}

	fields := logger.Fields{"order": orderID, "tx": txHash}
	result, err := s.verifier.Verify(ctx, order, txHash)
	if err != nil {
		metrics.OnchainVerifications.WithLabelValues("error").Inc()
		return evm.Result{}, &ProviderError{Provider: types.ProviderOnchain, Err: err}
	}
	if !result.OK {
		metrics.OnchainVerifications.WithLabelValues(result.Reason).Inc()
		logger.WithFields(fields).Infof("Transaction rejected: %s", result.Reason)
		return result, nil
	}

	err = s.ledger.AttachProviderCharge(ctx, orderID, types.ChargeUpdate{
		Provider: types.ProviderOnchain,
		ChargeID: txHash,
		Status:   "confirmed",
	})
	if err == nil {
		_, err = s.confirm(ctx, orderID, types.ProviderOnchain, txHash)
	}
	if err != nil {
		// The buyer did pay; only an operator can settle this now.
		logger.WithFields(fields).Warningf("Verified transfer not recorded, reconcile manually: %v", err)
		metrics.OnchainVerifications.WithLabelValues("unrecorded").Inc()
		return evm.Result{}, err
	}
	metrics.OnchainVerifications.WithLabelValues("ok").Inc()
	return result, nil
}

// AdminSetStatus applies an admin transition. Moving an order into paid
// notifies the buyer like any other confirmation.
func (s *Service) AdminSetStatus(ctx context.Context, orderID int64, status types.Status) (types.Status, error) {
	previous, err := s.ledger.SetStatus(ctx, orderID, status)
	if err != nil {
		return previous, err
	}
	if status == types.PaidStatus && previous != types.PaidStatus {
		metrics.OrdersPaid.WithLabelValues(types.ProviderManual).Inc()
		s.notify(ctx, orderID)
	}
	return previous, nil
}

func paidWith(order *types.Order, provider string, ref string) bool {
	return deref(order.PaymentProvider) == provider && strings.EqualFold(deref(order.ProviderChargeID), ref)
}

func (s *Service) confirm(ctx context.Context, orderID int64, provider string, ref string) (bool, error) {
	transitioned, err := s.ledger.ConfirmPaid(ctx, orderID, provider, ref)
	if err != nil {
		return false, err
	}
	if transitioned {
		metrics.OrdersPaid.WithLabelValues(provider).Inc()
		s.notify(ctx, orderID)
	}
	return transitioned, nil
}

func (s *Service) notify(ctx context.Context, orderID int64) {
	if s.notifier == nil {
		return
	}
	details, err := s.ledger.Details(ctx, orderID)
	if err != nil {
		logger.Errorf("Could not load order %d for notification: %v", orderID, err)
		return
	}
	if !s.notifier.OrderPaid(ctx, details) {
		logger.Warningf("Order %d paid but nobody was notified", orderID)
	}
}

// IsVerificationError reports whether err means the caller sent something
// that failed verification rather than the server failing.
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrInvalidSignature) || errors.Is(err, ErrMalformedPayload)
}

// chargeDescription fits a pack description into the processor's short
// description field.
func chargeDescription(description string) string {
	runes := []rune(strings.TrimSpace(description))
	if len(runes) == 0 {
		return "Sticker pack"
	}
	if len(runes) > maxDescriptionRunes {
		runes = runes[:maxDescriptionRunes]
	}
	return string(runes)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
