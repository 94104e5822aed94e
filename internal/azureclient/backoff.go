// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azureclient

import (
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"

	"github.com/juju/azure-cpi/internal/errorutils"
)

const (
	retryDelay       = 5 * time.Second
	maxRetryDelay    = 1 * time.Minute
	maxRetryDuration = 5 * time.Minute
)

// backoffAPIRequestCaller calls functions with exponential backoff
// for as long as the provider answers http.StatusTooManyRequests.
type backoffAPIRequestCaller struct {
	clock clock.Clock
}

func (c backoffAPIRequestCaller) call(f func() error) error {
	err := retry.Call(retry.CallArgs{
		Func: f,
		IsFatalError: func(err error) bool {
			return !errorutils.IsThrottledError(err)
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Debugf("attempt %d: %v", attempt, err)
		},
		Attempts:    -1,
		Delay:       retryDelay,
		MaxDelay:    maxRetryDelay,
		MaxDuration: maxRetryDuration,
		BackoffFunc: retry.DoubleDelay,
		Clock:       c.clock,
	})
	if retry.IsDurationExceeded(err) {
		return errors.Trace(retry.LastError(err))
	}
	return err
}
