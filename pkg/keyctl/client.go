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

package keyctl

import (
	"context"
	"fmt"
)

// Client is a typed front end over a Dispatcher for Go callers. Every
// method goes through the same validation, buffering and error
// translation as host calls.
type Client struct {
	d *Dispatcher
}

// NewClient wraps d.
func NewClient(d *Dispatcher) *Client {
	return &Client{d: d}
}

// AddKey adds a key to keyring. A nil payload is passed as NULL; 0 for
// keyring means no keyring.
func (c *Client) AddKey(ctx context.Context, keyType, description string, payload []byte, keyring Serial) (Serial, error) {
	v, err := c.d.Call(ctx, OpAddKey, Text(keyType), Text(description), optPayload(payload), FromSerial(keyring))
	if err != nil {
		return 0, err
	}
	return asSerial(OpAddKey, v)
}

// RequestKey looks up or constructs a key. An empty callout is passed as
// NULL.
func (c *Client) RequestKey(ctx context.Context, keyType, description, callout string, keyring Serial) (Serial, error) {
	calloutValue := Absent()
	if callout != "" {
		calloutValue = Text(callout)
	}
	v, err := c.d.Call(ctx, OpRequestKey, Text(keyType), Text(description), calloutValue, FromSerial(keyring))
	if err != nil {
		return 0, err
	}
	return asSerial(OpRequestKey, v)
}

// GetKeyringID resolves a special keyring identifier.
func (c *Client) GetKeyringID(ctx context.Context, id Serial, create bool) (Serial, error) {
	v, err := c.d.Call(ctx, OpGetKeyringID, FromSerial(id), Bool(create))
	if err != nil {
		return 0, err
	}
	return asSerial(OpGetKeyringID, v)
}

// JoinSessionKeyring joins the named session keyring, or an anonymous one
// when name is empty.
func (c *Client) JoinSessionKeyring(ctx context.Context, name string) (Serial, error) {
	args := []Value{}
	if name != "" {
		args = append(args, Text(name))
	}
	v, err := c.d.Call(ctx, OpJoinSessionKeyring, args...)
	if err != nil {
		return 0, err
	}
	return asSerial(OpJoinSessionKeyring, v)
}

// Update replaces a key's payload.
func (c *Client) Update(ctx context.Context, key Serial, payload []byte) (int64, error) {
	return c.long(ctx, OpUpdate, FromSerial(key), optPayload(payload))
}

// Revoke revokes a key.
func (c *Client) Revoke(ctx context.Context, key Serial) (int64, error) {
	return c.long(ctx, OpRevoke, FromSerial(key))
}

// Chown changes a key's owner; -1 leaves uid or gid unchanged.
func (c *Client) Chown(ctx context.Context, key Serial, uid, gid int) (int64, error) {
	return c.long(ctx, OpChown, FromSerial(key), Int(int64(uid)), Int(int64(gid)))
}

// SetPerm changes a key's permission mask.
func (c *Client) SetPerm(ctx context.Context, key Serial, perm Perm) (int64, error) {
	return c.long(ctx, OpSetPerm, FromSerial(key), Int(int64(perm)))
}

// Describe returns the key's description string
// ("type;uid;gid;perm;description").
func (c *Client) Describe(ctx context.Context, key Serial) (string, error) {
	return c.text(ctx, OpDescribe, FromSerial(key))
}

// Clear unlinks every key from a keyring.
func (c *Client) Clear(ctx context.Context, keyring Serial) error {
	_, err := c.d.Call(ctx, OpClear, FromSerial(keyring))
	return err
}

// Link links key into keyring.
func (c *Client) Link(ctx context.Context, keyring, key Serial) (int64, error) {
	return c.long(ctx, OpLink, FromSerial(keyring), FromSerial(key))
}

// Unlink removes key from keyring.
func (c *Client) Unlink(ctx context.Context, keyring, key Serial) (int64, error) {
	return c.long(ctx, OpUnlink, FromSerial(keyring), FromSerial(key))
}

// Search looks for a key in the keyring tree, linking it into dest when
// dest is not 0.
func (c *Client) Search(ctx context.Context, keyring Serial, keyType, description string, dest Serial) (Serial, error) {
	v, err := c.d.Call(ctx, OpSearch, FromSerial(keyring), Text(keyType), Text(description), FromSerial(dest))
	if err != nil {
		return 0, err
	}
	if _, ok := v.Boolean(); ok {
		return 0, nil
	}
	return asSerial(OpSearch, v)
}

// Read returns up to ReadBufferSize bytes of the key's payload, or nil
// when the payload is empty.
func (c *Client) Read(ctx context.Context, key Serial) ([]byte, error) {
	v, err := c.d.Call(ctx, OpRead, FromSerial(key))
	if err != nil {
		return nil, err
	}
	if s, ok := v.Str(); ok {
		return []byte(s), nil
	}
	return nil, nil
}

// Instantiate instantiates a key under construction.
func (c *Client) Instantiate(ctx context.Context, key Serial, payload []byte, keyring Serial) (int64, error) {
	return c.long(ctx, OpInstantiate, FromSerial(key), Text(string(payload)), FromSerial(keyring))
}

// Negate negatively instantiates a key for timeout seconds.
func (c *Client) Negate(ctx context.Context, key Serial, timeout uint32, keyring Serial) (int64, error) {
	return c.long(ctx, OpNegate, FromSerial(key), Int(int64(timeout)), FromSerial(keyring))
}

// Reject negatively instantiates a key with errno code for timeout
// seconds.
func (c *Client) Reject(ctx context.Context, key Serial, timeout, code uint32, keyring Serial) (int64, error) {
	return c.long(ctx, OpReject, FromSerial(key), Int(int64(timeout)), Int(int64(code)), FromSerial(keyring))
}

// SetReqKeyKeyring sets the default request-key keyring and returns the
// previous selector.
func (c *Client) SetReqKeyKeyring(ctx context.Context, selector ReqKeyDefault) (ReqKeyDefault, error) {
	n, err := c.long(ctx, OpSetReqKeyKeyring, Int(int64(selector)))
	return ReqKeyDefault(n), err
}

// SetTimeout sets a key's expiry in seconds; 0 clears it.
func (c *Client) SetTimeout(ctx context.Context, key Serial, timeout uint32) (int64, error) {
	return c.long(ctx, OpSetTimeout, FromSerial(key), Int(int64(timeout)))
}

// AssumeAuthority assumes the authority to instantiate key; 0 drops it.
func (c *Client) AssumeAuthority(ctx context.Context, key Serial) (int64, error) {
	return c.long(ctx, OpAssumeAuthority, FromSerial(key))
}

// GetSecurity returns the key's LSM security label.
func (c *Client) GetSecurity(ctx context.Context, key Serial) (string, error) {
	return c.text(ctx, OpGetSecurity, FromSerial(key))
}

// SessionToParent installs the session keyring on the parent process.
func (c *Client) SessionToParent(ctx context.Context) (int64, error) {
	return c.long(ctx, OpSessionToParent)
}

// Invalidate invalidates a key.
func (c *Client) Invalidate(ctx context.Context, key Serial) (int64, error) {
	return c.long(ctx, OpInvalidate, FromSerial(key))
}

// long maps a numeric or #t result to a number, #t being 0.
func (c *Client) long(ctx context.Context, op string, args ...Value) (int64, error) {
	v, err := c.d.Call(ctx, op, args...)
	if err != nil {
		return 0, err
	}
	if b, ok := v.Boolean(); ok && b {
		return 0, nil
	}
	n, ok := v.Integer()
	if !ok {
		return 0, fmt.Errorf("%s: unexpected result %s", op, v)
	}
	return n, nil
}

func (c *Client) text(ctx context.Context, op string, args ...Value) (string, error) {
	v, err := c.d.Call(ctx, op, args...)
	if err != nil {
		return "", err
	}
	s, ok := v.Str()
	if !ok {
		return "", fmt.Errorf("%s: unexpected result %s", op, v)
	}
	return s, nil
}

func optPayload(payload []byte) Value {
	if payload == nil {
		return Absent()
	}
	return Text(string(payload))
}

func asSerial(op string, v Value) (Serial, error) {
	s, ok := toSerial(v)
	if !ok {
		return 0, fmt.Errorf("%s: unexpected result %s", op, v)
	}
	return s, nil
}
