package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/swapper/internal/account"
	"github.com/vultisig/swapper/internal/status"
	"github.com/vultisig/swapper/internal/util"
)

// MaxApproval is what gets approved when the allowance has to be raised, so
// later swaps of the same token skip the approval step.
var MaxApproval = new(big.Int).Lsh(big.NewInt(1), 128)

var ErrApproveNotConfirmed = errors.New("approve tx not confirmed")

type ApproveService struct {
	client   Client
	builder  *TxBuilder
	signer   *SignerService
	waiter   Waiter
	delay    util.Delayer
	pauseMin time.Duration
	pauseMax time.Duration
	logger   *logrus.Entry
}

// Waiter blocks until a broadcast tx reaches a terminal state.
type Waiter interface {
	WaitMined(ctx context.Context, hash common.Hash) (status.Result, error)
}

func NewApproveService(
	client Client,
	builder *TxBuilder,
	signer *SignerService,
	waiter Waiter,
	delay util.Delayer,
	pauseMin, pauseMax time.Duration,
	logger logrus.FieldLogger,
) *ApproveService {
	return &ApproveService{
		client:   client,
		builder:  builder,
		signer:   signer,
		waiter:   waiter,
		delay:    delay,
		pauseMin: pauseMin,
		pauseMax: pauseMax,
		logger:   logger.WithField("pkg", "evm.ApproveService"),
	}
}

func (a *ApproveService) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	out, err := CallReadonly(ctx, a.client, ERC20, token, "allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to check allowance: %w", err)
	}
	return bigResult(out, "allowance")
}

// EnsureAllowance makes sure spender may move at least required of token on
// behalf of acct. A required amount of zero resets the allowance to zero.
// The allowance is read fresh on every call; it reports whether an approve
// tx was sent.
func (a *ApproveService) EnsureAllowance(
	ctx context.Context,
	acct account.Account,
	token, spender common.Address,
	required *big.Int,
) (bool, error) {
	current, err := a.Allowance(ctx, token, acct.Address, spender)
	if err != nil {
		return false, err
	}

	raise := required.Cmp(current) > 0
	if !raise && required.Sign() != 0 {
		return false, nil
	}

	amount := big.NewInt(0)
	if raise {
		amount = MaxApproval
	}

	l := a.logger.WithFields(logrus.Fields{
		"account": acct.ID,
		"address": acct.Address.Hex(),
		"token":   token.Hex(),
		"spender": spender.Hex(),
		"current": current.String(),
		"amount":  amount.String(),
	})

	data, err := ERC20.Pack("approve", spender, amount)
	if err != nil {
		return false, fmt.Errorf("failed to pack approve: %w", err)
	}

	draft, err := a.builder.MakeTx(ctx, acct.Address, token, big.NewInt(0), data)
	if err != nil {
		return false, fmt.Errorf("failed to make approve tx: %w", err)
	}

	l.Info("approve needed, wait mined")
	hash, err := a.signer.SignAndBroadcast(ctx, draft, acct.Key)
	if err != nil {
		return false, fmt.Errorf("failed to sign & broadcast approve: %w", err)
	}

	st, err := a.waiter.WaitMined(ctx, hash)
	if err != nil {
		return true, fmt.Errorf("failed to wait approve, hash=%s: %w", hash.Hex(), err)
	}
	if st != status.Success {
		return true, fmt.Errorf("%w: %s, hash=%s", ErrApproveNotConfirmed, st, hash.Hex())
	}
	l.WithField("hash", hash.Hex()).Info("approve confirmed")

	err = a.delay.Delay(ctx, a.pauseMin, a.pauseMax)
	if err != nil {
		return true, err
	}
	return true, nil
}
