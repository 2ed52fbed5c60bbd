package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	logger "github.com/sirupsen/logrus"
)

// TransferTopic is keccak256("Transfer(address,address,uint256)").
var TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

var ErrNotTransfer = errors.New("log is not an erc20 transfer")

type Transfer struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

// DecodeTransfer decodes an ERC-20 Transfer event. Both addresses are
// indexed, the value is the only data word.
func DecodeTransfer(entry *types.Log) (*Transfer, error) {
	if len(entry.Topics) != 3 || entry.Topics[0] != TransferTopic {
		return nil, ErrNotTransfer
	}
	if len(entry.Data) != 32 {
		return nil, fmt.Errorf("%w: data length %d", ErrNotTransfer, len(entry.Data))
	}
	return &Transfer{
		From:  common.BytesToAddress(entry.Topics[1].Bytes()),
		To:    common.BytesToAddress(entry.Topics[2].Bytes()),
		Value: new(big.Int).SetBytes(entry.Data),
	}, nil
}

// Dial connects to the RPC endpoint and warns when it serves another chain.
func Dial(ctx context.Context, rpcURL string, chainID int64) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("rpc dial failed %w", err)
	}

	remote, err := client.ChainID(ctx)
	if err != nil {
		logger.Warningf("Could not read chain id from %s: %v", rpcURL, err)
		return client, nil
	}
	if remote.Cmp(big.NewInt(chainID)) != 0 {
		logger.Warningf("RPC serves chain %s, configured chain is %d", remote, chainID)
	}
	return client, nil
}
