package types

import (
	"time"
)

type Status string

const (
	PendingStatus   Status = "pending"
	PaidStatus      Status = "paid"
	DeliveredStatus Status = "delivered"
	CancelledStatus Status = "cancelled"
)

const (
	ProviderCoinbase = "coinbase"
	ProviderOnchain  = "onchain"
	ProviderManual   = "manual"
)

func (s Status) Valid() bool {
	switch s {
	case PendingStatus, PaidStatus, DeliveredStatus, CancelledStatus:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
// Staying in the same status is always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return from.Valid()
	}
	switch from {
	case PendingStatus:
		return to == PaidStatus || to == CancelledStatus
	case PaidStatus:
		return to == DeliveredStatus || to == CancelledStatus
	}
	return false
}

type Order struct {
	ID                int64     `db:"id" json:"id"`
	UserID            *int64    `db:"user_id" json:"user_id,omitempty"`
	PackID            int64     `db:"sticker_pack_id" json:"pack_id"`
	PriceCents        int64     `db:"price_cents" json:"price_cents"`
	BuyerEmail        *string   `db:"buyer_email" json:"buyer_email,omitempty"`
	BuyerTelegram     *string   `db:"buyer_telegram" json:"buyer_telegram,omitempty"`
	BuyerChatID       *string   `db:"buyer_chat_id" json:"-"`
	Status            Status    `db:"status" json:"status"`
	PaymentProvider   *string   `db:"payment_provider" json:"payment_provider,omitempty"`
	ProviderChargeID  *string   `db:"provider_charge_id" json:"provider_charge_id,omitempty"`
	ProviderHostedURL *string   `db:"provider_hosted_url" json:"provider_hosted_url,omitempty"`
	ProviderStatus    *string   `db:"provider_status" json:"provider_status,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// OrderDetails is an order joined with what notifications need to know about it.
type OrderDetails struct {
	Order
	PackName        string  `db:"pack_name"`
	PackDescription string  `db:"pack_description"`
	PackURL         string  `db:"pack_url"`
	UserChatID      *string `db:"user_chat_id"`
}

type BuyerInfo struct {
	UserID   *int64
	Email    string
	Telegram string
}

// ChargeUpdate carries the provider audit fields of an order.
// Empty fields are left untouched when applied.
type ChargeUpdate struct {
	Provider  string
	ChargeID  string
	HostedURL string
	Status    string
}
