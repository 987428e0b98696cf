// Package retry reruns a whole swap attempt on transient failure and holds
// attempts back while the network base fee is above a ceiling.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/vultisig/swapper/internal/util"
)

type Policy struct {
	MaxAttempts int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
}

var DefaultPolicy = Policy{
	MaxAttempts: 3,
	MinBackoff:  10 * time.Second,
	MaxBackoff:  30 * time.Second,
}

// WithDefaults fills every zero field from DefaultPolicy.
func (p Policy) WithDefaults() Policy {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.MinBackoff == 0 {
		p.MinBackoff = DefaultPolicy.MinBackoff
	}
	if p.MaxBackoff == 0 {
		p.MaxBackoff = DefaultPolicy.MaxBackoff
	}
	return p
}

func (p Policy) validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.MinBackoff < 0 || p.MaxBackoff < p.MinBackoff {
		return fmt.Errorf("invalid backoff range [%s, %s]", p.MinBackoff, p.MaxBackoff)
	}
	return nil
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Func is one attempt. attempt starts at 1.
type Func func(ctx context.Context, attempt int) error

// Do runs fn until it succeeds, fails permanently or runs out of attempts,
// sleeping a random backoff in [MinBackoff, MaxBackoff] between attempts.
// The error of the last attempt is returned as fn produced it.
func Do(ctx context.Context, p Policy, fn Func) error {
	if err := p.validate(); err != nil {
		return Permanent(err)
	}

	backoff := goretry.WithMaxRetries(
		uint64(p.MaxAttempts-1),
		goretry.BackoffFunc(func() (time.Duration, bool) {
			return util.RandomDuration(p.MinBackoff, p.MaxBackoff), false
		}),
	)

	attempt := 0
	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx, attempt)
		if err == nil || IsPermanent(err) {
			return err
		}
		return goretry.RetryableError(err)
	})

	var perm *permanentError
	if errors.As(err, &perm) && error(perm) == err {
		return perm.err
	}
	return err
}
