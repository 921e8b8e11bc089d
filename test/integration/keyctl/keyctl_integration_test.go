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

//go:build integration && linux
// +build integration,linux

package keyctl

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-keyctl/pkg/host"
	"github.com/jeremyhahn/go-keyctl/pkg/keyctl"
)

// newSessionClient joins a fresh anonymous session keyring so every test
// works on keys nobody else can see. The session keyring belongs to the
// thread, so the test goroutine stays on it and the thread exits with the
// test.
func newSessionClient(t *testing.T) (*keyctl.Client, keyctl.Serial) {
	t.Helper()
	runtime.LockOSThread()

	client := keyctl.NewClient(keyctl.NewDispatcher())
	ctx := context.Background()

	session, err := client.JoinSessionKeyring(ctx, "")
	if errors.Is(err, syscall.ENOSYS) || errors.Is(err, syscall.EPERM) {
		t.Skipf("kernel key retention service unavailable: %v", err)
	}
	require.NoError(t, err)
	require.Greater(t, int32(session), int32(0))

	t.Cleanup(func() {
		_ = client.Clear(ctx, session)
	})
	return client, session
}

func TestKeyLifecycle(t *testing.T) {
	client, session := newSessionClient(t)
	ctx := context.Background()

	key, err := client.AddKey(ctx, "user", "go-keyctl:lifecycle", []byte("first"), session)
	require.NoError(t, err)
	require.Greater(t, int32(key), int32(0))

	payload, err := client.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), payload)

	description, err := client.Describe(ctx, key)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(description, "user;"), description)
	assert.True(t, strings.HasSuffix(description, ";go-keyctl:lifecycle"), description)

	_, err = client.Update(ctx, key, []byte("second"))
	require.NoError(t, err)
	payload, err = client.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), payload)

	found, err := client.Search(ctx, session, "user", "go-keyctl:lifecycle", 0)
	require.NoError(t, err)
	assert.Equal(t, key, found)

	_, err = client.SetTimeout(ctx, key, 3600)
	require.NoError(t, err)

	_, err = client.Revoke(ctx, key)
	require.NoError(t, err)

	_, err = client.Read(ctx, key)
	var kernelErr *keyctl.KernelError
	require.ErrorAs(t, err, &kernelErr)
	assert.Equal(t, keyctl.OpRead, kernelErr.Op)
	assert.True(t, errors.Is(err, syscall.EKEYREVOKED))
}

func TestSameDescriptionUpdatesInPlace(t *testing.T) {
	client, session := newSessionClient(t)
	ctx := context.Background()

	first, err := client.AddKey(ctx, "user", "go-keyctl:same", []byte("a"), session)
	require.NoError(t, err)
	second, err := client.AddKey(ctx, "user", "go-keyctl:same", []byte("b"), session)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLinkUnlink(t *testing.T) {
	client, session := newSessionClient(t)
	ctx := context.Background()

	ring, err := client.AddKey(ctx, "keyring", "go-keyctl:ring", nil, session)
	require.NoError(t, err)
	key, err := client.AddKey(ctx, "user", "go-keyctl:linked", []byte("v"), session)
	require.NoError(t, err)

	_, err = client.Link(ctx, ring, key)
	require.NoError(t, err)
	found, err := client.Search(ctx, ring, "user", "go-keyctl:linked", 0)
	require.NoError(t, err)
	assert.Equal(t, key, found)

	_, err = client.Unlink(ctx, ring, key)
	require.NoError(t, err)
	_, err = client.Search(ctx, ring, "user", "go-keyctl:linked", 0)
	assert.True(t, errors.Is(err, syscall.ENOKEY))

	require.NoError(t, client.Clear(ctx, ring))
}

func TestSetPermDeniesRead(t *testing.T) {
	client, session := newSessionClient(t)
	ctx := context.Background()

	key, err := client.AddKey(ctx, "user", "go-keyctl:perm", []byte("secret"), session)
	require.NoError(t, err)

	_, err = client.SetPerm(ctx, key, keyctl.PermPossessorView|keyctl.PermPossessorSetattr)
	require.NoError(t, err)

	_, err = client.Read(ctx, key)
	assert.True(t, errors.Is(err, syscall.EACCES), "read after dropping read permission: %v", err)
}

func TestInvalidate(t *testing.T) {
	client, session := newSessionClient(t)
	ctx := context.Background()

	key, err := client.AddKey(ctx, "user", "go-keyctl:invalidate", []byte("v"), session)
	require.NoError(t, err)

	_, err = client.Invalidate(ctx, key)
	if errors.Is(err, syscall.EOPNOTSUPP) {
		t.Skip("kernel lacks KEYCTL_INVALIDATE")
	}
	require.NoError(t, err)
}

func TestRequestKeyMissing(t *testing.T) {
	client, _ := newSessionClient(t)

	_, err := client.RequestKey(context.Background(), "user", "go-keyctl:does-not-exist", "", 0)
	var kernelErr *keyctl.KernelError
	require.ErrorAs(t, err, &kernelErr)
	assert.Equal(t, keyctl.OpRequestKey, kernelErr.Op)
}

func TestGetKeyringID(t *testing.T) {
	client, session := newSessionClient(t)

	id, err := client.GetKeyringID(context.Background(), keyctl.SpecSessionKeyring, false)
	require.NoError(t, err)
	assert.Equal(t, session, id)
}

func TestScriptAgainstKernel(t *testing.T) {
	newSessionClient(t)

	var out bytes.Buffer
	env := host.NewEnvironment(host.WithOutput(&out))
	require.NoError(t, keyctl.NewDispatcher().Install(env))

	script := `key = add-key user go-keyctl:script hello @s
keyctl-setperm $key KEY_POS_ALL|KEY_USR_VIEW
payload = keyctl-read $key
print $payload
keyctl-revoke $key
`
	require.NoError(t, env.Run(context.Background(), strings.NewReader(script)))
	assert.Equal(t, "hello\n", out.String())
}
