package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	logger "github.com/sirupsen/logrus"
	shop "github.com/wellywell/stickershop/internal/types"
)

const (
	ReasonNotConfirmed = "tx not confirmed"
	ReasonNoMatch      = "no matching transfer"
	ReasonStale        = "tx older than order"

	// FreshnessTolerance is how far a transfer may predate its order.
	FreshnessTolerance = 5 * time.Minute
)

var (
	ErrNotConfigured = errors.New("evm payments not configured")
	ErrInvalidTxHash = errors.New("invalid transaction hash")
)

// ChainReader is the subset of *ethclient.Client the verifier needs.
type ChainReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

type Config struct {
	TokenAddress string
	Merchant     string
	Decimals     int
}

type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

type Verifier struct {
	reader   ChainReader
	token    common.Address
	merchant common.Address
	decimals int
}

func NewVerifier(reader ChainReader, conf Config) (*Verifier, error) {
	if reader == nil || !common.IsHexAddress(conf.TokenAddress) || !common.IsHexAddress(conf.Merchant) || conf.Decimals < 0 {
		return nil, ErrNotConfigured
	}
	return &Verifier{
		reader:   reader,
		token:    common.HexToAddress(conf.TokenAddress),
		merchant: common.HexToAddress(conf.Merchant),
		decimals: conf.Decimals,
	}, nil
}

// AmountUnitsFromCents converts a cent price into token base units,
// floor(cents * 10^decimals / 100).
func AmountUnitsFromCents(cents int64, decimals int) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	amount := new(big.Int).Mul(big.NewInt(cents), scale)
	return amount.Quo(amount, big.NewInt(100))
}

func IsTxHash(s string) bool {
	if len(s) != 66 || (s[:2] != "0x" && s[:2] != "0X") {
		return false
	}
	for _, c := range s[2:] {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// Verify checks that txHash paid the order's price to the merchant in the
// configured token. A non-nil error means the chain could not be queried.
func (v *Verifier) Verify(ctx context.Context, order *shop.Order, txHash string) (Result, error) {
	if !IsTxHash(txHash) {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidTxHash, txHash)
	}
	fields := logger.Fields{"order": order.ID, "tx": txHash}

	receipt, err := v.reader.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return Result{Reason: ReasonNotConfirmed}, nil
		}
		return Result{}, fmt.Errorf("receipt lookup failed %w", err)
	}
	if receipt == nil || receipt.Status != types.ReceiptStatusSuccessful {
		return Result{Reason: ReasonNotConfirmed}, nil
	}

	expected := AmountUnitsFromCents(order.PriceCents, v.decimals)
	if !v.hasMatchingTransfer(receipt.Logs, expected) {
		logger.WithFields(fields).Infof("No transfer of %s to merchant found", expected)
		return Result{Reason: ReasonNoMatch}, nil
	}

	if v.predatesOrder(ctx, receipt.BlockNumber, order.CreatedAt, fields) {
		return Result{Reason: ReasonStale}, nil
	}
	return Result{OK: true}, nil
}

func (v *Verifier) hasMatchingTransfer(logs []*types.Log, expected *big.Int) bool {
	for _, entry := range logs {
		if entry == nil || entry.Address != v.token {
			continue
		}
		transfer, err := DecodeTransfer(entry)
		if err != nil {
			continue
		}
		if transfer.To == v.merchant && transfer.Value.Cmp(expected) == 0 {
			return true
		}
	}
	return false
}

// predatesOrder is best effort: a failed block lookup counts as fresh.
func (v *Verifier) predatesOrder(ctx context.Context, blockNumber *big.Int, createdAt time.Time, fields logger.Fields) bool {
	if blockNumber == nil || createdAt.IsZero() {
		return false
	}
	header, err := v.reader.HeaderByNumber(ctx, blockNumber)
	if err != nil || header == nil {
		logger.WithFields(fields).Warningf("Skipping freshness check, block %s lookup failed: %v", blockNumber, err)
		return false
	}
	blockTime := time.Unix(int64(header.Time), 0)
	return blockTime.Before(createdAt.Add(-FreshnessTolerance))
}
