package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wellywell/stickershop/internal/types"
)

const orderColumns = `id, user_id, sticker_pack_id, price_cents, buyer_email, buyer_telegram,
	buyer_chat_id, status, payment_provider, provider_charge_id, provider_hosted_url,
	provider_status, created_at, updated_at`

type Database struct {
	pool *pgxpool.Pool
}

func NewDatabase(connString string) (*Database, error) {

	err := Migrate(connString)

	if err != nil {
		return nil, fmt.Errorf("failed to migrate %w", err)
	}

	ctx := context.Background()
	p, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	return &Database{
		pool: p,
	}, nil
}

func (d *Database) Close() {
	d.pool.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func (d *Database) ListPacks(ctx context.Context) ([]types.StickerPack, error) {
	query := `
		SELECT id, name, description, price_cents, image_url, pack_url, created_at
		FROM sticker_packs
		ORDER BY created_at DESC, id DESC
		LIMIT 1000`

	rows, err := d.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}

	packs, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.StickerPack])
	if err != nil {
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return packs, nil
}

func (d *Database) GetPack(ctx context.Context, packID int64) (*types.StickerPack, error) {
	query := `
		SELECT id, name, description, price_cents, image_url, pack_url, created_at
		FROM sticker_packs
		WHERE id = $1`

	rows, err := d.pool.Query(ctx, query, packID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}

	pack, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.StickerPack])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &PackNotFoundError{ID: packID})
		}
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return &pack, nil
}

// CreatePendingOrder copies the current pack price onto a new pending order.
func (d *Database) CreatePendingOrder(ctx context.Context, packID int64, buyer types.BuyerInfo) (*types.Order, error) {
	query := `
		INSERT INTO orders (user_id, sticker_pack_id, price_cents, buyer_email, buyer_telegram, status)
		SELECT $1, p.id, p.price_cents, $3, $4, 'pending'
		FROM sticker_packs p
		WHERE p.id = $2
		RETURNING ` + orderColumns

	rows, err := d.pool.Query(ctx, query, buyer.UserID, packID, nullString(buyer.Email), nullString(buyer.Telegram))
	if err != nil {
		return nil, fmt.Errorf("failed inserting order %w", err)
	}

	order, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Order])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &PackNotFoundError{ID: packID})
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation && buyer.UserID != nil {
			return nil, fmt.Errorf("%w", &UserNotFoundError{ID: *buyer.UserID})
		}
		return nil, fmt.Errorf("failed inserting order %w", err)
	}
	return &order, nil
}

func (d *Database) GetOrder(ctx context.Context, orderID int64) (*types.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	rows, err := d.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}

	order, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Order])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &OrderNotFoundError{ID: orderID})
		}
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return &order, nil
}

func (d *Database) GetOrderDetails(ctx context.Context, orderID int64) (*types.OrderDetails, error) {
	query := `
		SELECT o.id, o.user_id, o.sticker_pack_id, o.price_cents, o.buyer_email, o.buyer_telegram,
		       o.buyer_chat_id, o.status, o.payment_provider, o.provider_charge_id,
		       o.provider_hosted_url, o.provider_status, o.created_at, o.updated_at,
		       p.name AS pack_name, p.description AS pack_description, p.pack_url AS pack_url,
		       u.telegram_chat_id AS user_chat_id
		FROM orders o
		JOIN sticker_packs p ON p.id = o.sticker_pack_id
		LEFT JOIN users u ON u.id = o.user_id
		WHERE o.id = $1`

	rows, err := d.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}

	details, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.OrderDetails])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &OrderNotFoundError{ID: orderID})
		}
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return &details, nil
}

// AttachProviderCharge records provider audit fields without touching status.
// Empty fields keep their stored value, so a reference is never cleared.
// Cancelled orders take nothing, paid and delivered ones only updates for
// the charge they were paid with.
func (d *Database) AttachProviderCharge(ctx context.Context, orderID int64, update types.ChargeUpdate) error {
	query := `
		UPDATE orders
		SET payment_provider = COALESCE(NULLIF($2::text, ''), payment_provider),
		    provider_charge_id = CASE WHEN status = 'pending'
		        THEN COALESCE(NULLIF($3::text, ''), provider_charge_id)
		        ELSE provider_charge_id END,
		    provider_hosted_url = COALESCE(NULLIF($4::text, ''), provider_hosted_url),
		    provider_status = COALESCE(NULLIF($5::text, ''), provider_status),
		    updated_at = NOW()
		WHERE id = $1
		AND (provider_charge_id IS NULL OR payment_provider IS NULL OR payment_provider = $2::text)
		AND (status = 'pending'
		     OR (status IN ('paid', 'delivered')
		         AND (NULLIF($3::text, '') IS NULL OR LOWER(provider_charge_id) = LOWER($3::text))))`

	tag, err := d.pool.Exec(ctx, query, orderID, update.Provider, update.ChargeID, update.HostedURL, update.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w", &ChargeInUseError{Provider: update.Provider, Ref: update.ChargeID})
		}
		return fmt.Errorf("failed updating order %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	order, err := d.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w", chargeRefused(order, update.Provider))
}

func chargeRefused(order *types.Order, provider string) error {
	current := stringValue(order.PaymentProvider)
	if order.Status != types.CancelledStatus && order.ProviderChargeID != nil && current != "" && current != provider {
		return &ProviderConflictError{OrderID: order.ID, Current: current, Proposed: provider}
	}
	return &OrderClosedError{OrderID: order.ID, Status: order.Status}
}

// ConfirmPaid moves a pending order to paid. It reports whether this call
// performed the transition; confirming an already paid or delivered order is
// a no-op.
func (d *Database) ConfirmPaid(ctx context.Context, orderID int64, provider string, chargeRef string) (bool, error) {
	query := `
		UPDATE orders
		SET status = 'paid',
		    payment_provider = $2,
		    provider_charge_id = $3,
		    updated_at = NOW()
		WHERE id = $1
		AND status = 'pending'
		AND (provider_charge_id IS NULL OR payment_provider IS NULL OR payment_provider = $2)`

	tag, err := d.pool.Exec(ctx, query, orderID, provider, chargeRef)
	if err != nil {
		if isUniqueViolation(err) {
			return false, fmt.Errorf("%w", &ChargeInUseError{Provider: provider, Ref: chargeRef})
		}
		return false, fmt.Errorf("failed updating order %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	order, err := d.GetOrder(ctx, orderID)
	if err != nil {
		return false, err
	}
	switch order.Status {
	case types.PaidStatus, types.DeliveredStatus:
		return false, nil
	case types.PendingStatus:
		return false, fmt.Errorf("%w", &ProviderConflictError{
			OrderID: orderID, Current: stringValue(order.PaymentProvider), Proposed: provider,
		})
	default:
		return false, fmt.Errorf("%w", &InvalidTransitionError{OrderID: orderID, From: order.Status, To: types.PaidStatus})
	}
}

// SetStatus applies an admin transition and returns the status it replaced.
// Marking an order paid without a charge reference records a manual one.
func (d *Database) SetStatus(ctx context.Context, orderID int64, status types.Status) (types.Status, error) {
	if !status.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("%w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID)

	var previous types.Status
	if err := row.Scan(&previous); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w", &OrderNotFoundError{ID: orderID})
		}
		return "", fmt.Errorf("unexpected DB error %w", err)
	}

	if !types.CanTransition(previous, status) {
		return previous, fmt.Errorf("%w", &InvalidTransitionError{OrderID: orderID, From: previous, To: status})
	}

	query := `
		UPDATE orders
		SET status = $2,
		    payment_provider = CASE WHEN provider_charge_id IS NULL AND $2 = 'paid'
		                            THEN $3 ELSE payment_provider END,
		    provider_charge_id = CASE WHEN provider_charge_id IS NULL AND $2 = 'paid'
		                              THEN 'admin:' || id ELSE provider_charge_id END,
		    updated_at = NOW()
		WHERE id = $1`

	_, err = tx.Exec(ctx, query, orderID, status, types.ProviderManual)
	if err != nil {
		return previous, fmt.Errorf("unexpected DB error %w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return previous, fmt.Errorf("%w", err)
	}
	return previous, nil
}

// LinkUserChatID stores chatID on the user with the given username unless it
// is already stored there.
func (d *Database) LinkUserChatID(ctx context.Context, username string, chatID string) (int64, error) {
	query := `
		UPDATE users
		SET telegram_chat_id = $1
		WHERE LOWER(username) = LOWER($2)
		AND (telegram_chat_id IS NULL OR telegram_chat_id <> $1)`

	tag, err := d.pool.Exec(ctx, query, chatID, username)
	if err != nil {
		return 0, fmt.Errorf("failed linking user chat %w", err)
	}
	return tag.RowsAffected(), nil
}

// BackfillOrderChatID sets chatID on orders placed under the handle that have
// no chat id yet. The handle is matched with and without a leading @.
func (d *Database) BackfillOrderChatID(ctx context.Context, username string, chatID string) (int64, error) {
	query := `
		UPDATE orders
		SET buyer_chat_id = $1, updated_at = NOW()
		WHERE buyer_chat_id IS NULL
		AND (LOWER(buyer_telegram) = LOWER($2) OR LOWER(buyer_telegram) = LOWER($3))`

	tag, err := d.pool.Exec(ctx, query, chatID, "@"+username, username)
	if err != nil {
		return 0, fmt.Errorf("failed backfilling order chat %w", err)
	}
	return tag.RowsAffected(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
