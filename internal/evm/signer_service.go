package evm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	etypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/swapper/internal/account"
)

// Sign builds an EIP-1559 transaction from tx and signs it locally.
func Sign(tx PricedTx, key account.PrivateKey) (*etypes.Transaction, error) {
	if key.ECDSA() == nil {
		return nil, account.ErrInvalidKey
	}
	if tx.ChainID == nil {
		return nil, fmt.Errorf("missing chain id")
	}

	to := tx.To
	unsigned := etypes.NewTx(&etypes.DynamicFeeTx{
		ChainID:   tx.ChainID,
		Nonce:     tx.Nonce,
		GasTipCap: tx.TipCap,
		GasFeeCap: tx.FeeCap,
		Gas:       tx.Gas,
		To:        &to,
		Value:     tx.Value,
		Data:      tx.Data,
	})

	signed, err := etypes.SignTx(unsigned, etypes.LatestSignerForChainID(tx.ChainID), key.ECDSA())
	if err != nil {
		return nil, fmt.Errorf("failed to sign tx: %w", err)
	}
	return signed, nil
}

type SignerService struct {
	client Client
	fees   *FeeService
	logger *logrus.Entry
}

func NewSignerService(client Client, fees *FeeService, logger logrus.FieldLogger) *SignerService {
	return &SignerService{
		client: client,
		fees:   fees,
		logger: logger.WithField("pkg", "evm.SignerService"),
	}
}

// SignAndBroadcast prices d, signs it with key and submits it. The returned
// hash is known even if the caller later gives up waiting for it.
func (s *SignerService) SignAndBroadcast(
	ctx context.Context,
	d Draft,
	key account.PrivateKey,
) (common.Hash, error) {
	priced, err := s.fees.Price(ctx, d)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to price tx: %w", err)
	}

	signed, err := Sign(priced, key)
	if err != nil {
		return common.Hash{}, err
	}

	err = s.client.SendTransaction(ctx, signed)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to broadcast tx: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"hash":   signed.Hash().Hex(),
		"from":   d.From.Hex(),
		"nonce":  d.Nonce,
		"gas":    priced.Gas,
		"feeCap": priced.FeeCap.String(),
		"tipCap": priced.TipCap.String(),
	}).Debug("tx broadcasted")

	return signed.Hash(), nil
}
