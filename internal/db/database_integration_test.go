//go:build integration_tests
// +build integration_tests

/* В связи с санкциями, нужен VPN, чтобы докерхаб работал */

package db

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellywell/stickershop/internal/testutils"
	"github.com/wellywell/stickershop/internal/types"
)

var DBDSN string

func TestMain(m *testing.M) {
	code, err := runMain(m)

	if err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}

func runMain(m *testing.M) (int, error) {

	databaseDSN, cleanUp, err := testutils.RunTestDatabase()
	defer cleanUp()

	if err != nil {
		return 1, err
	}
	DBDSN = databaseDSN

	exitCode := m.Run()

	return exitCode, nil

}

func newDatabase(t *testing.T) *Database {
	database, err := NewDatabase(DBDSN)
	require.NoError(t, err)
	t.Cleanup(database.Close)

	conn, err := pgx.Connect(context.Background(), DBDSN)
	require.NoError(t, err)
	defer conn.Close(context.Background())
	_, err = conn.Exec(context.Background(), "TRUNCATE orders, users RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	return database
}

func TestListPacksSeeded(t *testing.T) {
	database := newDatabase(t)

	packs, err := database.ListPacks(context.Background())
	assert.NoError(t, err)
	assert.Len(t, packs, 6)

	pack, err := database.GetPack(context.Background(), packs[0].ID)
	assert.NoError(t, err)
	assert.Equal(t, packs[0].Name, pack.Name)

	_, err = database.GetPack(context.Background(), 1000)
	var notFound *PackNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCreatePendingOrder(t *testing.T) {
	database := newDatabase(t)
	ctx := context.Background()

	packs, err := database.ListPacks(ctx)
	require.NoError(t, err)

	order, err := database.CreatePendingOrder(ctx, packs[0].ID, types.BuyerInfo{Telegram: "@alice"})
	require.NoError(t, err)
	assert.Equal(t, types.PendingStatus, order.Status)
	assert.Equal(t, packs[0].PriceCents, order.PriceCents)
	assert.Nil(t, order.BuyerEmail)
	assert.Equal(t, "@alice", *order.BuyerTelegram)

	_, err = database.CreatePendingOrder(ctx, 1000, types.BuyerInfo{})
	var packNotFound *PackNotFoundError
	assert.ErrorAs(t, err, &packNotFound)

	missingUser := int64(42)
	_, err = database.CreatePendingOrder(ctx, packs[0].ID, types.BuyerInfo{UserID: &missingUser})
	var userNotFound *UserNotFoundError
	assert.ErrorAs(t, err, &userNotFound)
}

func TestPaymentLifecycle(t *testing.T) {
	database := newDatabase(t)
	ctx := context.Background()

	order, err := database.CreatePendingOrder(ctx, 1, types.BuyerInfo{})
	require.NoError(t, err)

	err = database.AttachProviderCharge(ctx, order.ID, types.ChargeUpdate{
		Provider: types.ProviderCoinbase, ChargeID: "chg_1", HostedURL: "https://pay/1", Status: "NEW",
	})
	require.NoError(t, err)

	// empty fields keep stored values
	err = database.AttachProviderCharge(ctx, order.ID, types.ChargeUpdate{Provider: types.ProviderCoinbase, Status: "PENDING"})
	require.NoError(t, err)

	stored, err := database.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "chg_1", *stored.ProviderChargeID)
	assert.Equal(t, "https://pay/1", *stored.ProviderHostedURL)
	assert.Equal(t, "PENDING", *stored.ProviderStatus)
	assert.Equal(t, types.PendingStatus, stored.Status)

	err = database.AttachProviderCharge(ctx, order.ID, types.ChargeUpdate{Provider: types.ProviderOnchain, ChargeID: "0xabc"})
	var conflict *ProviderConflictError
	assert.ErrorAs(t, err, &conflict)

	_, err = database.ConfirmPaid(ctx, order.ID, types.ProviderOnchain, "0xabc")
	assert.ErrorAs(t, err, &conflict)

	transitioned, err := database.ConfirmPaid(ctx, order.ID, types.ProviderCoinbase, "chg_1")
	assert.NoError(t, err)
	assert.True(t, transitioned)

	transitioned, err = database.ConfirmPaid(ctx, order.ID, types.ProviderCoinbase, "chg_1")
	assert.NoError(t, err)
	assert.False(t, transitioned)

	previous, err := database.SetStatus(ctx, order.ID, types.DeliveredStatus)
	assert.NoError(t, err)
	assert.Equal(t, types.PaidStatus, previous)

	_, err = database.SetStatus(ctx, order.ID, types.PendingStatus)
	var invalid *InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)

	_, err = database.ConfirmPaid(ctx, 1000, types.ProviderCoinbase, "chg_x")
	var notFound *OrderNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestConfirmCancelledOrder(t *testing.T) {
	database := newDatabase(t)
	ctx := context.Background()

	order, err := database.CreatePendingOrder(ctx, 1, types.BuyerInfo{})
	require.NoError(t, err)

	_, err = database.SetStatus(ctx, order.ID, types.CancelledStatus)
	require.NoError(t, err)

	err = database.AttachProviderCharge(ctx, order.ID, types.ChargeUpdate{
		Provider: types.ProviderOnchain, ChargeID: "0xdef", Status: "confirmed",
	})
	var closed *OrderClosedError
	assert.ErrorAs(t, err, &closed)

	transitioned, err := database.ConfirmPaid(ctx, order.ID, types.ProviderOnchain, "0xdef")
	var invalid *InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
	assert.False(t, transitioned)

	stored, err := database.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CancelledStatus, stored.Status)
	assert.Nil(t, stored.PaymentProvider)
	assert.Nil(t, stored.ProviderChargeID)

	// the reference was never taken, so another order can still use it
	other, err := database.CreatePendingOrder(ctx, 1, types.BuyerInfo{})
	require.NoError(t, err)
	assert.NoError(t, database.AttachProviderCharge(ctx, other.ID, types.ChargeUpdate{
		Provider: types.ProviderOnchain, ChargeID: "0xdef",
	}))
}

func TestPaidOrderKeepsItsCharge(t *testing.T) {
	database := newDatabase(t)
	ctx := context.Background()

	order, err := database.CreatePendingOrder(ctx, 1, types.BuyerInfo{})
	require.NoError(t, err)
	transitioned, err := database.ConfirmPaid(ctx, order.ID, types.ProviderOnchain, "0xAbC")
	require.NoError(t, err)
	require.True(t, transitioned)

	err = database.AttachProviderCharge(ctx, order.ID, types.ChargeUpdate{Provider: types.ProviderOnchain, ChargeID: "0xdef"})
	var closed *OrderClosedError
	assert.ErrorAs(t, err, &closed)

	err = database.AttachProviderCharge(ctx, order.ID, types.ChargeUpdate{
		Provider: types.ProviderOnchain, ChargeID: "0xabc", Status: "confirmed",
	})
	assert.NoError(t, err)

	stored, err := database.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "0xAbC", *stored.ProviderChargeID)
	assert.Equal(t, "confirmed", *stored.ProviderStatus)
}

func TestSetStatusPaidRecordsManualRef(t *testing.T) {
	database := newDatabase(t)
	ctx := context.Background()

	order, err := database.CreatePendingOrder(ctx, 1, types.BuyerInfo{})
	require.NoError(t, err)

	previous, err := database.SetStatus(ctx, order.ID, types.PaidStatus)
	require.NoError(t, err)
	assert.Equal(t, types.PendingStatus, previous)

	stored, err := database.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ProviderManual, *stored.PaymentProvider)
	assert.Equal(t, "admin:1", *stored.ProviderChargeID)

	_, err = database.SetStatus(ctx, order.ID, types.Status("refunded"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestChargeRefUsedOnce(t *testing.T) {
	database := newDatabase(t)
	ctx := context.Background()

	first, err := database.CreatePendingOrder(ctx, 1, types.BuyerInfo{})
	require.NoError(t, err)
	second, err := database.CreatePendingOrder(ctx, 1, types.BuyerInfo{})
	require.NoError(t, err)

	update := types.ChargeUpdate{Provider: types.ProviderOnchain, ChargeID: "0xfeed", Status: "confirmed"}
	require.NoError(t, database.AttachProviderCharge(ctx, first.ID, update))

	err = database.AttachProviderCharge(ctx, second.ID, update)
	var inUse *ChargeInUseError
	assert.ErrorAs(t, err, &inUse)
}

func TestIdentityLinking(t *testing.T) {
	database := newDatabase(t)
	ctx := context.Background()

	conn, err := pgx.Connect(ctx, DBDSN)
	require.NoError(t, err)
	defer conn.Close(ctx)

	var userID int64
	err = conn.QueryRow(ctx, "INSERT INTO users (username) VALUES ('Alice') RETURNING id").Scan(&userID)
	require.NoError(t, err)

	withHandle, err := database.CreatePendingOrder(ctx, 1, types.BuyerInfo{Telegram: "@alice"})
	require.NoError(t, err)
	bare, err := database.CreatePendingOrder(ctx, 1, types.BuyerInfo{Telegram: "ALICE"})
	require.NoError(t, err)
	other, err := database.CreatePendingOrder(ctx, 1, types.BuyerInfo{Telegram: "@bob", UserID: &userID})
	require.NoError(t, err)

	linked, err := database.LinkUserChatID(ctx, "alice", "555")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), linked)

	linked, err = database.LinkUserChatID(ctx, "alice", "555")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), linked)

	backfilled, err := database.BackfillOrderChatID(ctx, "alice", "555")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), backfilled)

	backfilled, err = database.BackfillOrderChatID(ctx, "alice", "777")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), backfilled)

	for _, id := range []int64{withHandle.ID, bare.ID} {
		details, err := database.GetOrderDetails(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "555", *details.BuyerChatID)
	}

	details, err := database.GetOrderDetails(ctx, other.ID)
	require.NoError(t, err)
	assert.Nil(t, details.BuyerChatID)
	assert.Equal(t, "555", *details.UserChatID)
	assert.Equal(t, "Cool Cats", details.PackName)
}
