// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package errorutils

import (
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/juju/errors"
)

// IsNotFoundError returns true if the error is
// caused by a not found error.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errors.NotFound) {
		return true
	}
	if respErr, ok := errors.AsType[*azcore.ResponseError](err); ok {
		return respErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsConflictError returns true if the error is
// caused by a conflict error.
func IsConflictError(err error) bool {
	if respErr, ok := errors.AsType[*azcore.ResponseError](err); ok {
		return respErr.StatusCode == http.StatusConflict
	}
	return false
}

// IsThrottledError returns true if the provider answered
// with http.StatusTooManyRequests.
func IsThrottledError(err error) bool {
	if respErr, ok := errors.AsType[*azcore.ResponseError](err); ok {
		return respErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// ErrorCode returns the provider error code carried by err,
// or "" if there is none.
func ErrorCode(err error) string {
	if respErr, ok := errors.AsType[*azcore.ResponseError](err); ok {
		return respErr.ErrorCode
	}
	return ""
}
