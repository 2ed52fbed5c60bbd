package types

import "time"

type StickerPack struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	PriceCents  int64     `db:"price_cents" json:"price_cents"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	PackURL     string    `db:"pack_url" json:"pack_url"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type User struct {
	ID             int64   `db:"id"`
	Username       string  `db:"username"`
	TelegramChatID *string `db:"telegram_chat_id"`
}
