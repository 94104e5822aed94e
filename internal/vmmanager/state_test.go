// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vmmanager

import (
	"github.com/juju/errors"
	"github.com/juju/testing"
	gc "gopkg.in/check.v1"

	"github.com/juju/azure-cpi/internal/azureclient"
)

type stateSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&stateSuite{})

func (*stateSuite) TestTransitions(c *gc.C) {
	boom := errors.New("boom")
	failed := errors.Annotate(&azureclient.AsyncOperationError{Status: azureclient.StatusFailed, Err: boom}, "creating")
	canceled := &azureclient.AsyncOperationError{Status: "Canceled", Err: boom}

	for i, test := range []struct {
		from     state
		attempts int
		err      error
		to       state
	}{
		{stateResolving, 0, nil, stateProvisioning},
		{stateResolving, 0, boom, stateAbortCleanup},
		{stateProvisioning, 1, nil, stateSucceeded},
		{stateProvisioning, 1, boom, stateTerminalCleanup},
		{stateProvisioning, 1, canceled, stateTerminalCleanup},
		{stateProvisioning, 1, failed, stateRetryCleanup},
		{stateProvisioning, 2, failed, stateRetryCleanup},
		{stateProvisioning, 3, failed, stateExhausted},
		{stateProvisioning, 3, boom, stateTerminalCleanup},
		{stateRetryCleanup, 1, nil, stateProvisioning},
		{stateRetryCleanup, 1, boom, stateCleanupFailed},
		{stateTerminalCleanup, 1, nil, stateAborted},
		{stateTerminalCleanup, 1, boom, stateCleanupFailed},
		{stateAbortCleanup, 0, nil, stateAborted},
		{stateAbortCleanup, 0, boom, stateCleanupFailed},
		{stateSucceeded, 1, nil, stateSucceeded},
	} {
		c.Logf("test %d: %v (%d) %v", i, test.from, test.attempts, test.err)
		c.Check(transition(test.from, test.attempts, test.err), gc.Equals, test.to)
	}
}

func (*stateSuite) TestFinal(c *gc.C) {
	for _, s := range []state{stateResolving, stateProvisioning, stateRetryCleanup, stateTerminalCleanup, stateAbortCleanup} {
		c.Check(s.final(), gc.Equals, false, gc.Commentf("%v", s))
	}
	for _, s := range []state{stateSucceeded, stateExhausted, stateAborted, stateCleanupFailed} {
		c.Check(s.final(), gc.Equals, true, gc.Commentf("%v", s))
	}
	c.Check(state(99).String(), gc.Equals, "state(99)")
}
