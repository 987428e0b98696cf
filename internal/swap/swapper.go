// Package swap turns a swap request for one account into a single confirmed
// Uniswap V3 router transaction.
package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/swapper/internal/account"
	"github.com/vultisig/swapper/internal/evm"
	"github.com/vultisig/swapper/internal/metrics"
	"github.com/vultisig/swapper/internal/report"
	"github.com/vultisig/swapper/internal/retry"
	"github.com/vultisig/swapper/internal/status"
	"github.com/vultisig/swapper/internal/uniswap"
	"github.com/vultisig/swapper/internal/util"
)

type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeRouteNotFound Outcome = "route-not-found"
	OutcomeFailed        Outcome = "failed"
	OutcomeTimedOut      Outcome = "timed-out"
)

var (
	ErrTxFailed   = errors.New("swap tx reverted on chain")
	ErrTxTimedOut = errors.New("swap tx not confirmed in time")
	ErrZeroAmount = errors.New("resolved swap amount is zero")
	ErrSameToken  = errors.New("from and to resolve to the same token")
)

type Request struct {
	From     string
	To       string
	Amount   AmountSpec
	Slippage float64 // percent, [0, 100]
}

type Result struct {
	Outcome      Outcome
	Hash         common.Hash
	AmountIn     util.TokenAmount
	MinAmountOut *big.Int
	Approved     bool
}

// Provider quotes and encodes swaps against one router.
type Provider interface {
	Router() common.Address
	Pool(ctx context.Context, tokenIn, tokenOut common.Address) (common.Address, error)
	Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, slippageBips uint64) (uniswap.Quote, error)
	ExactInputSingle(tokenIn, tokenOut, recipient common.Address, amountIn, minAmountOut *big.Int) ([]byte, error)
	UnwrapWETH9(minAmount *big.Int, recipient common.Address) ([]byte, error)
	Multicall(calls [][]byte) ([]byte, error)
}

type Swapper struct {
	network  *evm.Network
	provider Provider
	reporter report.Reporter
	metrics  *metrics.SwapperMetrics
	rnd      Rand
	logger   *logrus.Entry

	// last unconfirmed swap per account, checked before sending another
	mu      sync.Mutex
	pending map[common.Address]common.Hash
}

func NewSwapper(
	network *evm.Network,
	provider Provider,
	reporter report.Reporter,
	m *metrics.SwapperMetrics,
	logger logrus.FieldLogger,
) *Swapper {
	return &Swapper{
		network:  network,
		provider: provider,
		reporter: reporter,
		metrics:  m,
		rnd:      globalRand{},
		logger:   logger.WithField("pkg", "swap.Swapper"),
		pending:  make(map[common.Address]common.Hash),
	}
}

func (s *Swapper) WithRand(r Rand) *Swapper {
	s.rnd = r
	return s
}

// Swap runs one end-to-end swap attempt. Every call reads balance, nonce,
// fees and quote fresh. A missing pool is reported as OutcomeRouteNotFound
// with a nil error. Reverted and unconfirmed txs come back as ErrTxFailed and
// ErrTxTimedOut so a caller may retry; configuration problems are marked
// permanent.
func (s *Swapper) Swap(ctx context.Context, acct account.Account, req Request) (res Result, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeError
		switch {
		case res.Outcome == OutcomeSuccess:
			outcome = metrics.OutcomeSuccess
		case res.Outcome == OutcomeRouteNotFound:
			outcome = metrics.OutcomeRouteNotFound
		case res.Outcome == OutcomeFailed:
			outcome = metrics.OutcomeFailed
		case res.Outcome == OutcomeTimedOut:
			outcome = metrics.OutcomeTimedOut
		}
		s.metrics.RecordSwap(req.From, req.To, outcome, time.Since(start))
	}()

	profile := acct.Profile
	l := s.logger.WithFields(logrus.Fields{
		"account": acct.ID,
		"address": acct.Address.Hex(),
		"from":    req.From,
		"to":      req.To,
	})

	bips, err := uniswap.SlippageBips(req.Slippage)
	if err != nil {
		s.metrics.RecordError(metrics.ErrorTypeValidation)
		return Result{}, retry.Permanent(err)
	}
	tokenIn, err := profile.Token(req.From)
	if err != nil {
		s.metrics.RecordError(metrics.ErrorTypeValidation)
		return Result{}, retry.Permanent(err)
	}
	tokenOut, err := profile.Token(req.To)
	if err != nil {
		s.metrics.RecordError(metrics.ErrorTypeValidation)
		return Result{}, retry.Permanent(err)
	}
	if tokenIn == tokenOut {
		return Result{}, retry.Permanent(fmt.Errorf("%w: %s -> %s", ErrSameToken, req.From, req.To))
	}
	nativeIn := profile.IsNative(req.From)
	nativeOut := profile.IsNative(req.To)

	res, done, err := s.checkPending(ctx, acct)
	if done || err != nil {
		return res, err
	}

	amountIn, err := s.amount(ctx, acct, req, tokenIn, nativeIn)
	if err != nil {
		return Result{}, err
	}
	res.AmountIn = amountIn

	s.reporter.Info(acct.ID, acct.Address, fmt.Sprintf(
		"Swap on Uniswap - %s -> %s | %s", strings.ToUpper(req.From), strings.ToUpper(req.To), amountIn,
	))

	_, err = s.provider.Pool(ctx, tokenIn, tokenOut)
	if errors.Is(err, uniswap.ErrRouteNotFound) {
		s.reporter.Error(acct.ID, acct.Address, fmt.Sprintf(
			"Swap path %s to %s not found!", strings.ToUpper(req.From), strings.ToUpper(req.To),
		))
		res.Outcome = OutcomeRouteNotFound
		return res, nil
	}
	if err != nil {
		s.metrics.RecordError(metrics.ErrorTypeNetwork)
		return res, fmt.Errorf("failed to find pool: %w", err)
	}

	router := s.provider.Router()
	if !nativeIn {
		res.Approved, err = s.network.Approve.EnsureAllowance(ctx, acct, tokenIn, router, amountIn.Amount)
		if res.Approved {
			s.metrics.RecordApproval(strings.ToUpper(req.From))
		}
		if err != nil {
			s.metrics.RecordError(metrics.ErrorTypeExecution)
			return res, fmt.Errorf("failed to ensure allowance: %w", err)
		}
		if res.Approved {
			s.reporter.Info(acct.ID, acct.Address, fmt.Sprintf("Approved %s for router", strings.ToUpper(req.From)))
		}
	}

	quote, err := s.provider.Quote(ctx, tokenIn, tokenOut, amountIn.Amount, bips)
	if err != nil {
		s.metrics.RecordError(metrics.ErrorTypeNetwork)
		return res, fmt.Errorf("failed to quote: %w", err)
	}
	res.MinAmountOut = quote.MinAmountOut

	data, err := s.calldata(acct.Address, tokenIn, tokenOut, amountIn.Amount, quote.MinAmountOut, nativeIn, nativeOut)
	if err != nil {
		return res, retry.Permanent(err)
	}

	value := big.NewInt(0)
	if nativeIn {
		value = amountIn.Amount
	}

	draft, err := s.network.Builder.MakeTx(ctx, acct.Address, router, value, data)
	if err != nil {
		s.metrics.RecordError(metrics.ErrorTypeNetwork)
		return res, fmt.Errorf("failed to make swap tx: %w", err)
	}

	l = l.WithFields(logrus.Fields{
		"amountIn":  amountIn.Amount.String(),
		"amountOut": quote.AmountOut.String(),
		"minOut":    quote.MinAmountOut.String(),
		"nonce":     draft.Nonce,
	})
	l.Debug("swap route found")

	hash, err := s.network.Signer.SignAndBroadcast(ctx, draft, acct.Key)
	if err != nil {
		if errors.Is(err, evm.ErrWouldRevert) {
			l.WithError(err).Warn("swap simulation reverted, quote may be stale")
			s.metrics.RecordError(metrics.ErrorTypeExecution)
		} else {
			s.metrics.RecordError(metrics.ErrorTypeSigning)
		}
		return res, fmt.Errorf("failed to sign & broadcast swap: %w", err)
	}
	res.Hash = hash
	s.setPending(acct.Address, hash)
	l.WithField("hash", hash.Hex()).Info("tx signed & broadcasted")

	return s.watch(ctx, acct, res)
}

// checkPending resolves a swap left unconfirmed by an earlier attempt before
// a new one is sent. done is true when that swap decides this call.
func (s *Swapper) checkPending(ctx context.Context, acct account.Account) (Result, bool, error) {
	hash, ok := s.getPending(acct.Address)
	if !ok {
		return Result{}, false, nil
	}

	s.logger.WithFields(logrus.Fields{
		"account": acct.ID,
		"hash":    hash.Hex(),
	}).Info("previous swap unconfirmed, checking it before sending again")

	res, err := s.watch(ctx, acct, Result{Hash: hash})
	if res.Outcome == OutcomeFailed {
		// reverted: nothing moved, start over
		return Result{}, false, nil
	}
	return res, true, err
}

func (s *Swapper) watch(ctx context.Context, acct account.Account, res Result) (Result, error) {
	url := acct.Profile.TxURL(res.Hash.Hex())

	st, err := s.network.Status.WaitMined(ctx, res.Hash)
	if err != nil {
		return res, fmt.Errorf("failed to wait swap, hash=%s: %w", res.Hash.Hex(), err)
	}
	s.metrics.RecordConfirmation(string(st))

	switch st {
	case status.Success:
		s.clearPending(acct.Address)
		res.Outcome = OutcomeSuccess
		s.reporter.Info(acct.ID, acct.Address, "Transaction successful: "+url)
		return res, nil
	case status.Failed:
		s.clearPending(acct.Address)
		res.Outcome = OutcomeFailed
		s.reporter.Error(acct.ID, acct.Address, "Transaction failed: "+url)
		return res, fmt.Errorf("%w: hash=%s, %s", ErrTxFailed, res.Hash.Hex(), url)
	default:
		res.Outcome = OutcomeTimedOut
		s.reporter.Error(acct.ID, acct.Address, "Transaction not confirmed yet, it may still land: "+url)
		return res, fmt.Errorf("%w: hash=%s, %s", ErrTxTimedOut, res.Hash.Hex(), st)
	}
}

func (s *Swapper) amount(
	ctx context.Context,
	acct account.Account,
	req Request,
	token common.Address,
	native bool,
) (util.TokenAmount, error) {
	var (
		balance  *big.Int
		decimals = util.NativeDecimals
		err      error
	)
	if native {
		balance, err = s.network.Balance.GetNativeBalance(ctx, acct.Address)
	} else {
		balance, err = s.network.Balance.GetERC20Balance(ctx, token, acct.Address)
		if err == nil {
			var d uint8
			d, err = s.network.Decimals.GetDecimals(ctx, token)
			decimals = int(d)
		}
	}
	if err != nil {
		s.metrics.RecordError(metrics.ErrorTypeNetwork)
		return util.TokenAmount{}, fmt.Errorf("failed to read balance: %w", err)
	}

	amount, err := resolveAmount(req.Amount, balance, decimals, s.rnd)
	if err != nil {
		s.metrics.RecordError(metrics.ErrorTypeValidation)
		return util.TokenAmount{}, retry.Permanent(err)
	}
	if amount.Sign() <= 0 {
		s.metrics.RecordError(metrics.ErrorTypeValidation)
		return util.TokenAmount{}, retry.Permanent(ErrZeroAmount)
	}

	return util.TokenAmount{
		Symbol:   strings.ToUpper(req.From),
		Token:    token,
		Amount:   amount,
		Decimals: decimals,
	}, nil
}

// calldata builds the router multicall. Native in pays with tx value and
// sends output straight to the sender. Token to native leaves WETH on the
// router and unwraps it to the sender in the same tx.
func (s *Swapper) calldata(
	sender, tokenIn, tokenOut common.Address,
	amountIn, minOut *big.Int,
	nativeIn, nativeOut bool,
) ([]byte, error) {
	unwrap := !nativeIn && nativeOut

	recipient := sender
	if unwrap {
		recipient = uniswap.AddressThis
	}

	swapCall, err := s.provider.ExactInputSingle(tokenIn, tokenOut, recipient, amountIn, minOut)
	if err != nil {
		return nil, fmt.Errorf("failed to pack exactInputSingle: %w", err)
	}
	calls := [][]byte{swapCall}

	if unwrap {
		unwrapCall, er := s.provider.UnwrapWETH9(minOut, sender)
		if er != nil {
			return nil, fmt.Errorf("failed to pack unwrapWETH9: %w", er)
		}
		calls = append(calls, unwrapCall)
	}

	data, err := s.provider.Multicall(calls)
	if err != nil {
		return nil, fmt.Errorf("failed to pack multicall: %w", err)
	}
	return data, nil
}

func (s *Swapper) getPending(addr common.Address) (common.Hash, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.pending[addr]
	return h, ok
}

func (s *Swapper) setPending(addr common.Address, hash common.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[addr] = hash
}

func (s *Swapper) clearPending(addr common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, addr)
}
