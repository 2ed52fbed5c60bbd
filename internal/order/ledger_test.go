package order

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wellywell/stickershop/internal/db"
	"github.com/wellywell/stickershop/internal/order/mocks"
	"github.com/wellywell/stickershop/internal/types"
)

func TestCreatePending(t *testing.T) {

	database := mocks.NewDatabase(t)
	ledger := NewLedger(database)

	buyer := types.BuyerInfo{Email: "a@b.c", Telegram: "@alice"}
	database.EXPECT().CreatePendingOrder(mock.Anything, int64(3), buyer).
		Return(&types.Order{ID: 1, PackID: 3, PriceCents: 399, Status: types.PendingStatus}, nil).Once()

	order, err := ledger.CreatePending(context.Background(), 3, types.BuyerInfo{Email: " a@b.c ", Telegram: "@alice\n"})
	assert.NoError(t, err)
	assert.Equal(t, types.PendingStatus, order.Status)

	_, err = ledger.CreatePending(context.Background(), 0, buyer)
	assert.ErrorIs(t, err, ErrInvalidPack)
}

func TestConfirmPaid(t *testing.T) {

	testCases := []struct {
		name         string
		provider     string
		ref          string
		dbResult     bool
		dbError      error
		callDB       bool
		transitioned bool
		wantError    error
	}{
		{name: "first confirmation", provider: "onchain", ref: "0xabc", dbResult: true, callDB: true, transitioned: true},
		{name: "repeated confirmation", provider: "onchain", ref: "0xabc", dbResult: false, callDB: true, transitioned: false},
		{name: "no provider", provider: "", ref: "0xabc", wantError: ErrMissingProvider},
		{name: "no reference", provider: "coinbase", ref: "", wantError: ErrMissingChargeRef},
		{name: "db failure", provider: "coinbase", ref: "CH1", callDB: true, dbError: errors.New("boom"), wantError: errors.New("boom")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			database := mocks.NewDatabase(t)
			ledger := NewLedger(database)

			if tc.callDB {
				database.EXPECT().ConfirmPaid(mock.Anything, int64(7), tc.provider, tc.ref).Return(tc.dbResult, tc.dbError).Once()
			}

			transitioned, err := ledger.ConfirmPaid(context.Background(), 7, tc.provider, tc.ref)
			if tc.wantError != nil {
				assert.EqualError(t, err, tc.wantError.Error())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.transitioned, transitioned)
		})
	}
}

func TestSetStatusRejectsUnknown(t *testing.T) {

	database := mocks.NewDatabase(t)
	ledger := NewLedger(database)

	_, err := ledger.SetStatus(context.Background(), 1, types.Status("refunded"))
	assert.ErrorIs(t, err, db.ErrInvalidStatus)

	database.EXPECT().SetStatus(mock.Anything, int64(1), types.DeliveredStatus).Return(types.PaidStatus, nil).Once()
	previous, err := ledger.SetStatus(context.Background(), 1, types.DeliveredStatus)
	assert.NoError(t, err)
	assert.Equal(t, types.PaidStatus, previous)
}

func TestAttachProviderChargeRequiresProvider(t *testing.T) {

	database := mocks.NewDatabase(t)
	ledger := NewLedger(database)

	err := ledger.AttachProviderCharge(context.Background(), 1, types.ChargeUpdate{ChargeID: "x"})
	assert.ErrorIs(t, err, ErrMissingProvider)

	update := types.ChargeUpdate{Provider: types.ProviderCoinbase, ChargeID: "CH1", Status: "NEW"}
	database.EXPECT().AttachProviderCharge(mock.Anything, int64(1), update).Return(nil).Once()
	assert.NoError(t, ledger.AttachProviderCharge(context.Background(), 1, update))
}
