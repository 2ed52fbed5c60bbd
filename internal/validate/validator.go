package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/wellywell/stickershop/internal/evm"
	"github.com/wellywell/stickershop/internal/types"
)

type CreateOrderRequest struct {
	PackID        int64  `json:"pack_id" validate:"required,gt=0"`
	BuyerEmail    string `json:"buyer_email" validate:"omitempty,email,max=254"`
	BuyerTelegram string `json:"buyer_telegram" validate:"omitempty,max=128"`
	// Rail picks the payment rail. Empty means the hosted checkout when it
	// is enabled.
	Rail string `json:"rail" validate:"omitempty,oneof=coinbase onchain"`
}

type VerifyTxRequest struct {
	TxHash string `json:"txHash" validate:"required,txhash"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,order_status"`
}

type AdminLoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type TelegramTestRequest struct {
	To   string `json:"to" validate:"max=256"`
	Text string `json:"text" validate:"max=4096"`
}

// New returns a validator with the shop's custom tags registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("txhash", func(fl validatorv10.FieldLevel) bool {
		return evm.IsTxHash(fl.Field().String())
	})
	_ = v.RegisterValidation("order_status", func(fl validatorv10.FieldLevel) bool {
		return types.Status(fl.Field().String()).Valid()
	})

	return v
}

// Describe turns validation errors into a short message for the client.
func Describe(err error) string {
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}

	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	sort.Strings(fields)
	return "Invalid request: " + strings.Join(fields, ", ")
}
