// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyctl.
//
// go-keyctl is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package health

import (
	"context"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-keyctl/pkg/keyctl"
)

// keyringKernel maps special keyring ids to fixed serials
type keyringKernel struct {
	calls       []keyctl.Call
	serials     map[int64]int64
	securityErr error
	idErr       error
}

func (k *keyringKernel) Invoke(call *keyctl.Call) (int64, error) {
	k.calls = append(k.calls, keyctl.Call{Syscall: call.Syscall, Command: call.Command, Args: append([]keyctl.Arg(nil), call.Args...)})
	switch call.Command {
	case keyctl.CmdGetKeyringID:
		if k.idErr != nil {
			return -1, k.idErr
		}
		return k.serials[call.Args[0].Int], nil
	case keyctl.CmdGetSecurity:
		if k.securityErr != nil {
			return -1, k.securityErr
		}
		return int64(copy(call.Args[1].Bytes, "unconfined\x00")), nil
	default:
		return -1, syscall.EINVAL
	}
}

func runKeyringChecks(t *testing.T, k *keyringKernel) map[string]CheckResult {
	t.Helper()
	checker := NewChecker()
	RegisterKeyringChecks(checker, keyctl.NewClient(keyctl.NewDispatcher(keyctl.WithKernel(k))))
	require.Equal(t, []string{CheckSecurityLabels, CheckSessionKeyring, CheckUserKeyring}, checker.Checks())

	byName := map[string]CheckResult{}
	for _, r := range checker.Run(context.Background()) {
		byName[r.Name] = r
	}

	// no check may ask the kernel to create a keyring
	for _, call := range k.calls {
		if call.Command == keyctl.CmdGetKeyringID {
			assert.Equal(t, int64(0), call.Args[1].Int, "create flag")
		}
	}
	return byName
}

func TestKeyringChecks_Healthy(t *testing.T) {
	k := &keyringKernel{serials: map[int64]int64{
		int64(keyctl.SpecUserKeyring):        10,
		int64(keyctl.SpecSessionKeyring):     30,
		int64(keyctl.SpecUserSessionKeyring): 20,
	}}

	results := runKeyringChecks(t, k)
	assert.Equal(t, StatusHealthy, results[CheckUserKeyring].Status)
	assert.Contains(t, results[CheckUserKeyring].Message, "10")
	assert.Equal(t, StatusHealthy, results[CheckSessionKeyring].Status)
	assert.Contains(t, results[CheckSessionKeyring].Message, "30")
	assert.Equal(t, StatusHealthy, results[CheckSecurityLabels].Status)
	assert.Contains(t, results[CheckSecurityLabels].Message, "unconfined")
}

func TestKeyringChecks_SessionFallsBackToUserSession(t *testing.T) {
	k := &keyringKernel{serials: map[int64]int64{
		int64(keyctl.SpecUserKeyring):        10,
		int64(keyctl.SpecSessionKeyring):     20,
		int64(keyctl.SpecUserSessionKeyring): 20,
	}}

	results := runKeyringChecks(t, k)
	assert.Equal(t, StatusDegraded, results[CheckSessionKeyring].Status)
}

func TestKeyringChecks_NoSecurityModule(t *testing.T) {
	k := &keyringKernel{
		serials:     map[int64]int64{int64(keyctl.SpecSessionKeyring): 30},
		securityErr: syscall.EOPNOTSUPP,
	}

	results := runKeyringChecks(t, k)
	assert.Equal(t, StatusHealthy, results[CheckSecurityLabels].Status)
}

func TestKeyringChecks_Unavailable(t *testing.T) {
	k := &keyringKernel{idErr: syscall.ENOSYS, securityErr: syscall.ENOSYS}

	results := runKeyringChecks(t, k)
	assert.Equal(t, StatusUnhealthy, results[CheckUserKeyring].Status)
	assert.NotEmpty(t, results[CheckUserKeyring].Error)
	assert.Equal(t, StatusUnhealthy, results[CheckSessionKeyring].Status)
	assert.Equal(t, StatusDegraded, results[CheckSecurityLabels].Status)
}
