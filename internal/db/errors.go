package db

import (
	"errors"
	"fmt"

	"github.com/wellywell/stickershop/internal/types"
)

var ErrInvalidStatus = errors.New("invalid order status")

type OrderNotFoundError struct {
	ID int64
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("Order %d not found", e.ID)
}

type PackNotFoundError struct {
	ID int64
}

func (e *PackNotFoundError) Error() string {
	return fmt.Sprintf("Sticker pack %d not found", e.ID)
}

type UserNotFoundError struct {
	ID int64
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("User %d not found", e.ID)
}

type InvalidTransitionError struct {
	OrderID int64
	From    types.Status
	To      types.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("Order %d cannot move from %s to %s", e.OrderID, e.From, e.To)
}

// ProviderConflictError means the order already carries a charge reference
// from another provider.
type ProviderConflictError struct {
	OrderID  int64
	Current  string
	Proposed string
}

func (e *ProviderConflictError) Error() string {
	return fmt.Sprintf("Order %d is tracked by %s, refusing %s", e.OrderID, e.Current, e.Proposed)
}

// ChargeInUseError means another order already holds the charge reference.
type ChargeInUseError struct {
	Provider string
	Ref      string
}

func (e *ChargeInUseError) Error() string {
	return fmt.Sprintf("%s charge %s is already used by another order", e.Provider, e.Ref)
}

// OrderClosedError means the order no longer accepts a new charge reference.
type OrderClosedError struct {
	OrderID int64
	Status  types.Status
}

func (e *OrderClosedError) Error() string {
	return fmt.Sprintf("Order %d is %s, refusing new charge", e.OrderID, e.Status)
}
