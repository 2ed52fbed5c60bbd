package config

import (
	"flag"
	"os"

	"github.com/caarlos0/env/v6"
)

/*
адрес и порт запуска сервиса: переменная окружения ОС RUN_ADDRESS или флаг -a;
адрес подключения к базе данных: переменная окружения ОС DATABASE_URI или флаг -d;
платёжные рельсы, бот и отладка настраиваются только переменными окружения.
*/

type ServerConfig struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseDSN string `env:"DATABASE_URI"`

	AuthSecret          string `env:"AUTH_SECRET"`
	AuthCookieExpiresIn int    `env:"AUTH_COOKIE_TTL" envDefault:"86400"`
	AdminPasswordHash   string `env:"ADMIN_PASSWORD_HASH"`

	CoinbaseAPIKey        string `env:"COINBASE_COMMERCE_API_KEY"`
	CoinbaseWebhookSecret string `env:"COINBASE_COMMERCE_WEBHOOK_SECRET"`
	CoinbaseAPIURL        string `env:"COINBASE_COMMERCE_API_URL" envDefault:"https://api.commerce.coinbase.com"`

	EVMRPCURL        string `env:"EVM_RPC_URL"`
	EVMChainID       int64  `env:"EVM_CHAIN_ID"`
	EVMTokenAddress  string `env:"EVM_TOKEN_ADDRESS"`
	EVMTokenDecimals int    `env:"EVM_TOKEN_DECIMALS" envDefault:"6"`
	MerchantAddress  string `env:"MERCHANT_WALLET_ADDRESS"`

	TelegramBotToken      string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramAPIURL        string `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
	TelegramDefaultChatID string `env:"TELEGRAM_DEFAULT_CHAT_ID"`
	TelegramNotifyDebug   bool   `env:"TELEGRAM_NOTIFY_DEBUG"`
	TelegramPoll          bool   `env:"TELEGRAM_POLL"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON"`
}

func NewConfig() (*ServerConfig, error) {
	return parse(flag.CommandLine, os.Args[1:])
}

func parse(fs *flag.FlagSet, args []string) (*ServerConfig, error) {
	var params ServerConfig
	err := env.Parse(&params)
	if err != nil {
		return nil, err
	}

	var commandLineParams ServerConfig

	fs.StringVar(&commandLineParams.RunAddress, "a", "localhost:8080", "Base address to listen on")
	fs.StringVar(&commandLineParams.DatabaseDSN, "d", "postgres://postgres@localhost:5432/stickers?sslmode=disable", "Database DSN")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if params.RunAddress == "" {
		params.RunAddress = commandLineParams.RunAddress
	}
	if params.DatabaseDSN == "" {
		params.DatabaseDSN = commandLineParams.DatabaseDSN
	}

	return &params, nil
}

func (c *ServerConfig) Secret() []byte {
	return []byte(c.AuthSecret)
}

// CheckoutEnabled reports whether hosted checkout sessions can be created.
func (c *ServerConfig) CheckoutEnabled() bool {
	return c.CoinbaseAPIKey != ""
}

// AdminEnabled requires both a signing secret and a password hash; without
// them the admin routes are not served.
func (c *ServerConfig) AdminEnabled() bool {
	return c.AuthSecret != "" && c.AdminPasswordHash != ""
}

func (c *ServerConfig) WebhookEnabled() bool {
	return c.CoinbaseWebhookSecret != ""
}

// EVMEnabled requires every on-chain setting to be present.
func (c *ServerConfig) EVMEnabled() bool {
	return c.EVMRPCURL != "" && c.EVMChainID != 0 && c.EVMTokenAddress != "" &&
		c.EVMTokenDecimals >= 0 && c.MerchantAddress != ""
}

func (c *ServerConfig) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

func (c *ServerConfig) PollerEnabled() bool {
	return c.TelegramEnabled() && c.TelegramPoll
}
