package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/wellywell/stickershop/internal/db"
	"github.com/wellywell/stickershop/internal/types"
)

var (
	ErrMissingProvider  = errors.New("payment provider is required")
	ErrMissingChargeRef = errors.New("charge reference is required")
	ErrInvalidPack      = errors.New("invalid pack reference")
)

type Database interface {
	CreatePendingOrder(ctx context.Context, packID int64, buyer types.BuyerInfo) (*types.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*types.Order, error)
	GetOrderDetails(ctx context.Context, orderID int64) (*types.OrderDetails, error)
	AttachProviderCharge(ctx context.Context, orderID int64, update types.ChargeUpdate) error
	ConfirmPaid(ctx context.Context, orderID int64, provider string, chargeRef string) (bool, error)
	SetStatus(ctx context.Context, orderID int64, status types.Status) (types.Status, error)
}

// Ledger owns order lifecycle transitions.
type Ledger struct {
	database Database
}

func NewLedger(database Database) *Ledger {
	return &Ledger{database: database}
}

func (l *Ledger) CreatePending(ctx context.Context, packID int64, buyer types.BuyerInfo) (*types.Order, error) {
	if packID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPack, packID)
	}
	buyer.Email = strings.TrimSpace(buyer.Email)
	buyer.Telegram = strings.TrimSpace(buyer.Telegram)

	order, err := l.database.CreatePendingOrder(ctx, packID, buyer)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logger.Fields{"order": order.ID, "pack": packID}).Info("Created pending order")
	return order, nil
}

func (l *Ledger) Order(ctx context.Context, orderID int64) (*types.Order, error) {
	return l.database.GetOrder(ctx, orderID)
}

func (l *Ledger) Details(ctx context.Context, orderID int64) (*types.OrderDetails, error) {
	return l.database.GetOrderDetails(ctx, orderID)
}

// AttachProviderCharge records provider audit fields; status is left as is.
func (l *Ledger) AttachProviderCharge(ctx context.Context, orderID int64, update types.ChargeUpdate) error {
	if update.Provider == "" {
		return ErrMissingProvider
	}
	return l.database.AttachProviderCharge(ctx, orderID, update)
}

// ConfirmPaid marks the order paid. The returned flag is true only for the
// call that moved the order out of pending.
func (l *Ledger) ConfirmPaid(ctx context.Context, orderID int64, provider string, chargeRef string) (bool, error) {
	if provider == "" {
		return false, ErrMissingProvider
	}
	if chargeRef == "" {
		return false, ErrMissingChargeRef
	}

	transitioned, err := l.database.ConfirmPaid(ctx, orderID, provider, chargeRef)
	if err != nil {
		return false, err
	}

	fields := logger.Fields{"order": orderID, "provider": provider, "ref": chargeRef}
	if transitioned {
		logger.WithFields(fields).Info("Order marked as paid")
	} else {
		logger.WithFields(fields).Info("Order already paid, confirmation ignored")
	}
	return transitioned, nil
}

// SetStatus is the admin transition. It returns the status being replaced.
func (l *Ledger) SetStatus(ctx context.Context, orderID int64, status types.Status) (types.Status, error) {
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", db.ErrInvalidStatus, status)
	}

	previous, err := l.database.SetStatus(ctx, orderID, status)
	if err != nil {
		return previous, err
	}
	logger.Infof("Order %d status changed %s -> %s", orderID, previous, status)
	return previous, nil
}
