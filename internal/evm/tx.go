package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// Draft is an unpriced transaction. Steps fill in To, Value and Data after
// the base (chain id, sender, nonce) is fetched.
type Draft struct {
	ChainID *big.Int
	From    common.Address
	Nonce   uint64
	To      common.Address
	Value   *big.Int
	Data    []byte
}

func (d Draft) CallMsg() ethereum.CallMsg {
	to := d.To
	return ethereum.CallMsg{
		From:  d.From,
		To:    &to,
		Value: d.Value,
		Data:  d.Data,
	}
}

// PricedTx is a Draft with EIP-1559 fee fields and a gas limit attached.
type PricedTx struct {
	Draft
	TipCap *big.Int
	FeeCap *big.Int
	Gas    uint64
}

type TxBuilder struct {
	client Client
}

func NewTxBuilder(client Client) *TxBuilder {
	return &TxBuilder{client: client}
}

// Base returns a Draft carrying the chain id and the pending nonce of from.
// It is read fresh on every call.
func (b *TxBuilder) Base(ctx context.Context, from common.Address) (Draft, error) {
	chainID, err := b.client.ChainID(ctx)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to get chain id: %w", err)
	}
	nonce, err := b.client.PendingNonceAt(ctx, from)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to get nonce: %w", err)
	}
	return Draft{
		ChainID: chainID,
		From:    from,
		Nonce:   nonce,
	}, nil
}

func (b *TxBuilder) MakeTx(
	ctx context.Context,
	from, to common.Address,
	value *big.Int,
	data []byte,
) (Draft, error) {
	d, err := b.Base(ctx, from)
	if err != nil {
		return Draft{}, err
	}
	d.To = to
	d.Value = value
	d.Data = data
	return d, nil
}
