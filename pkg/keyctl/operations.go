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

import "slices"

// Operation names exposed to the host.
const (
	OpAddKey             = "add-key"
	OpRequestKey         = "request-key"
	OpGetKeyringID       = "keyctl-get-keyring-id"
	OpJoinSessionKeyring = "keyctl-join-session-keyring"
	OpUpdate             = "keyctl-update"
	OpRevoke             = "keyctl-revoke"
	OpChown              = "keyctl-chown"
	OpSetPerm            = "keyctl-setperm"
	OpDescribe           = "keyctl-describe"
	OpClear              = "keyctl-clear"
	OpLink               = "keyctl-link"
	OpUnlink             = "keyctl-unlink"
	OpSearch             = "keyctl-search"
	OpRead               = "keyctl-read"
	OpInstantiate        = "keyctl-instantiate"
	OpNegate             = "keyctl-negate"
	OpReject             = "keyctl-reject"
	OpSetReqKeyKeyring   = "keyctl-set-reqkey-keyring"
	OpSetTimeout         = "keyctl-set-timeout"
	OpAssumeAuthority    = "keyctl-assume-authority"
	OpGetSecurity        = "keyctl-get-security"
	OpSessionToParent    = "keyctl-session-to-parent"
	OpInvalidate         = "keyctl-invalidate"
)

// builder turns validated arguments into the kernel call. Buffers it
// needs come from sc; the second return is the output buffer, if any.
type builder func(sc *scope, a Args) (*Call, []byte, error)

// Operation describes one bound procedure.
type Operation struct {
	Name      string
	Doc       string
	Signature Signature
	Policy    ResultPolicy
	build     builder
}

// Required returns the minimum argument count.
func (o Operation) Required() int {
	return o.Signature.Required()
}

// Optional returns the number of optional arguments.
func (o Operation) Optional() int {
	return o.Signature.Optional()
}

var operationTable = []Operation{
	{OpAddKey, "Add a key to a keyring.",
		Signature{RequiredText, RequiredText, OptionalText, OptionalSerial}, ResultSerial, buildAddKey},
	{OpRequestKey, "Request a key from the kernel's key management facility.",
		Signature{RequiredText, RequiredText, OptionalText, OptionalSerial}, ResultSerial, buildRequestKey},
	{OpGetKeyringID, "Map a special key or keyring ID to a serial number.",
		Signature{RequiredSerial, OptionalBool}, ResultSerial, buildGetKeyringID},
	{OpJoinSessionKeyring, "Join or create a session keyring.",
		Signature{OptionalText}, ResultSerial, buildJoinSessionKeyring},
	{OpUpdate, "Update a key's payload.",
		Signature{RequiredSerial, OptionalText}, ResultLong, buildUpdate},
	{OpRevoke, "Revoke a key.",
		Signature{RequiredSerial}, ResultTrueOrLong, buildRevoke},
	{OpChown, "Change the ownership of a key.",
		Signature{RequiredSerial, OptionalOwner, OptionalOwner}, ResultLong, buildChown},
	{OpSetPerm, "Change the permissions mask on a key.",
		Signature{RequiredSerial, RequiredMask}, ResultLong, buildSetPerm},
	{OpDescribe, "Describe a key.",
		Signature{RequiredSerial}, ResultText, buildDescribe},
	{OpClear, "Clear the contents of a keyring.",
		Signature{RequiredSerial}, ResultAlwaysTrue, buildClear},
	{OpLink, "Link a key into a keyring.",
		Signature{RequiredSerial, RequiredSerial}, ResultTrueOrLong, buildLink},
	{OpUnlink, "Unlink a key from a keyring.",
		Signature{RequiredSerial, RequiredSerial}, ResultTrueOrLong, buildUnlink},
	{OpSearch, "Search a keyring tree for a key.",
		Signature{RequiredSerial, RequiredText, RequiredText, OptionalSerial}, ResultTrueOrSerial, buildSearch},
	{OpRead, "Read a key's payload.",
		Signature{RequiredSerial}, ResultPayload, buildRead},
	{OpInstantiate, "Instantiate a partially constructed key.",
		Signature{RequiredSerial, RequiredText, OptionalSerial}, ResultLong, buildInstantiate},
	{OpNegate, "Negatively instantiate a key.",
		Signature{RequiredSerial, RequiredUnsigned, OptionalSerial}, ResultLong, buildNegate},
	{OpReject, "Negatively instantiate a key with a specific error code.",
		Signature{RequiredSerial, RequiredUnsigned, RequiredUnsigned, OptionalSerial}, ResultLong, buildReject},
	{OpSetReqKeyKeyring, "Set the default keyring for requested keys.",
		Signature{RequiredSigned}, ResultLong, buildSetReqKeyKeyring},
	{OpSetTimeout, "Set the expiration timer on a key, in seconds.",
		Signature{RequiredSerial, RequiredUnsigned}, ResultTrueOrLong, buildSetTimeout},
	{OpAssumeAuthority, "Assume the authority to instantiate a key.",
		Signature{OptionalSerial}, ResultTrueOrLong, buildAssumeAuthority},
	{OpGetSecurity, "Get a key's security label.",
		Signature{RequiredSerial}, ResultText, buildGetSecurity},
	{OpSessionToParent, "Install the calling process's session keyring on its parent.",
		Signature{}, ResultTrueOrLong, buildSessionToParent},
	{OpInvalidate, "Invalidate a key.",
		Signature{RequiredSerial}, ResultTrueOrLong, buildInvalidate},
}

var operationIndex = indexOperations(operationTable)

func indexOperations(ops []Operation) map[string]*Operation {
	index := make(map[string]*Operation, len(ops))
	for i := range ops {
		index[ops[i].Name] = &ops[i]
	}
	return index
}

// Operations returns a copy of the operation table in registration order.
func Operations() []Operation {
	out := make([]Operation, len(operationTable))
	for i, op := range operationTable {
		op.Signature = slices.Clone(op.Signature)
		out[i] = op
	}
	return out
}

// LookupOperation returns the operation bound to name.
func LookupOperation(name string) (Operation, bool) {
	op, ok := operationIndex[name]
	if !ok {
		return Operation{}, false
	}
	out := *op
	out.Signature = slices.Clone(op.Signature)
	return out, true
}

func keyctlCall(cmd Command, args ...Arg) *Call {
	return &Call{Syscall: SysKeyctl, Command: cmd, Args: args}
}

// add_key(type, description, payload, plen, keyring)
func buildAddKey(sc *scope, a Args) (*Call, []byte, error) {
	keyType, err := a.CString(0)
	if err != nil {
		return nil, nil, err
	}
	description, err := a.CString(1)
	if err != nil {
		return nil, nil, err
	}
	keyring, err := a.OptSerial(3)
	if err != nil {
		return nil, nil, err
	}
	payload := sc.payload(a.OptText(2))
	return &Call{
		Syscall: SysAddKey,
		Args: []Arg{
			StringArg(keyType),
			StringArg(description),
			BytesArg(payload),
			IntArg(int64(len(payload))),
			optSerialArg(keyring, 0),
		},
	}, nil, nil
}

// request_key(type, description, callout_info, dest_keyring)
func buildRequestKey(_ *scope, a Args) (*Call, []byte, error) {
	keyType, err := a.CString(0)
	if err != nil {
		return nil, nil, err
	}
	description, err := a.CString(1)
	if err != nil {
		return nil, nil, err
	}
	callout, err := a.OptCString(2)
	if err != nil {
		return nil, nil, err
	}
	keyring, err := a.OptSerial(3)
	if err != nil {
		return nil, nil, err
	}
	return &Call{
		Syscall: SysRequestKey,
		Args: []Arg{
			StringArg(keyType),
			StringArg(description),
			optStringArg(callout),
			optSerialArg(keyring, 0),
		},
	}, nil, nil
}

func buildGetKeyringID(_ *scope, a Args) (*Call, []byte, error) {
	id, err := a.Serial(0)
	if err != nil {
		return nil, nil, err
	}
	var create int64
	if a.Bool(1) {
		create = 1
	}
	return keyctlCall(CmdGetKeyringID, IntArg(int64(id)), IntArg(create)), nil, nil
}

func buildJoinSessionKeyring(_ *scope, a Args) (*Call, []byte, error) {
	name, err := a.OptCString(0)
	if err != nil {
		return nil, nil, err
	}
	return keyctlCall(CmdJoinSessionKeyring, optStringArg(name)), nil, nil
}

func buildUpdate(sc *scope, a Args) (*Call, []byte, error) {
	key, err := a.Serial(0)
	if err != nil {
		return nil, nil, err
	}
	payload := sc.payload(a.OptText(1))
	return keyctlCall(CmdUpdate, IntArg(int64(key)), BytesArg(payload), IntArg(int64(len(payload)))), nil, nil
}

func buildRevoke(_ *scope, a Args) (*Call, []byte, error) {
	return singleKey(CmdRevoke, a)
}

func buildChown(_ *scope, a Args) (*Call, []byte, error) {
	key, err := a.Serial(0)
	if err != nil {
		return nil, nil, err
	}
	uid, err := a.Owner(1)
	if err != nil {
		return nil, nil, err
	}
	gid, err := a.Owner(2)
	if err != nil {
		return nil, nil, err
	}
	return keyctlCall(CmdChown, IntArg(int64(key)), IntArg(int64(uid)), IntArg(int64(gid))), nil, nil
}

func buildSetPerm(_ *scope, a Args) (*Call, []byte, error) {
	key, err := a.Serial(0)
	if err != nil {
		return nil, nil, err
	}
	perm, err := a.Mask(1)
	if err != nil {
		return nil, nil, err
	}
	return keyctlCall(CmdSetPerm, IntArg(int64(key)), IntArg(int64(perm))), nil, nil
}

func buildDescribe(sc *scope, a Args) (*Call, []byte, error) {
	return readInto(sc, CmdDescribe, a)
}

func buildClear(_ *scope, a Args) (*Call, []byte, error) {
	return singleKey(CmdClear, a)
}

// The host passes (keyring, key); the kernel takes (key, keyring).
func buildLink(_ *scope, a Args) (*Call, []byte, error) {
	return keyIntoKeyring(CmdLink, a)
}

func buildUnlink(_ *scope, a Args) (*Call, []byte, error) {
	return keyIntoKeyring(CmdUnlink, a)
}

func buildSearch(_ *scope, a Args) (*Call, []byte, error) {
	keyring, err := a.Serial(0)
	if err != nil {
		return nil, nil, err
	}
	keyType, err := a.CString(1)
	if err != nil {
		return nil, nil, err
	}
	description, err := a.CString(2)
	if err != nil {
		return nil, nil, err
	}
	dest, err := a.OptSerial(3)
	if err != nil {
		return nil, nil, err
	}
	return keyctlCall(CmdSearch,
		IntArg(int64(keyring)),
		StringArg(keyType),
		StringArg(description),
		optSerialArg(dest, 0),
	), nil, nil
}

func buildRead(sc *scope, a Args) (*Call, []byte, error) {
	return readInto(sc, CmdRead, a)
}

func buildInstantiate(sc *scope, a Args) (*Call, []byte, error) {
	key, err := a.Serial(0)
	if err != nil {
		return nil, nil, err
	}
	keyring, err := a.OptSerial(2)
	if err != nil {
		return nil, nil, err
	}
	payload := sc.payload(a.OptText(1))
	return keyctlCall(CmdInstantiate,
		IntArg(int64(key)),
		BytesArg(payload),
		IntArg(int64(len(payload))),
		optSerialArg(keyring, 0),
	), nil, nil
}

func buildNegate(_ *scope, a Args) (*Call, []byte, error) {
	key, err := a.Serial(0)
	if err != nil {
		return nil, nil, err
	}
	timeout, err := a.Unsigned(1)
	if err != nil {
		return nil, nil, err
	}
	keyring, err := a.OptSerial(2)
	if err != nil {
		return nil, nil, err
	}
	return keyctlCall(CmdNegate, IntArg(int64(key)), IntArg(int64(timeout)), optSerialArg(keyring, 0)), nil, nil
}

func buildReject(_ *scope, a Args) (*Call, []byte, error) {
	key, err := a.Serial(0)
	if err != nil {
		return nil, nil, err
	}
	timeout, err := a.Unsigned(1)
	if err != nil {
		return nil, nil, err
	}
	code, err := a.Unsigned(2)
	if err != nil {
		return nil, nil, err
	}
	keyring, err := a.OptSerial(3)
	if err != nil {
		return nil, nil, err
	}
	return keyctlCall(CmdReject,
		IntArg(int64(key)),
		IntArg(int64(timeout)),
		IntArg(int64(code)),
		optSerialArg(keyring, 0),
	), nil, nil
}

func buildSetReqKeyKeyring(_ *scope, a Args) (*Call, []byte, error) {
	selector, err := a.Signed(0)
	if err != nil {
		return nil, nil, err
	}
	return keyctlCall(CmdSetReqKeyKeyring, IntArg(int64(selector))), nil, nil
}

func buildSetTimeout(_ *scope, a Args) (*Call, []byte, error) {
	key, err := a.Serial(0)
	if err != nil {
		return nil, nil, err
	}
	timeout, err := a.Unsigned(1)
	if err != nil {
		return nil, nil, err
	}
	return keyctlCall(CmdSetTimeout, IntArg(int64(key)), IntArg(int64(timeout))), nil, nil
}

// A key of 0 relinquishes any assumed authority.
func buildAssumeAuthority(_ *scope, a Args) (*Call, []byte, error) {
	key, err := a.OptSerial(0)
	if err != nil {
		return nil, nil, err
	}
	return keyctlCall(CmdAssumeAuthority, optSerialArg(key, 0)), nil, nil
}

func buildGetSecurity(sc *scope, a Args) (*Call, []byte, error) {
	return readInto(sc, CmdGetSecurity, a)
}

func buildSessionToParent(_ *scope, _ Args) (*Call, []byte, error) {
	return keyctlCall(CmdSessionToParent), nil, nil
}

func buildInvalidate(_ *scope, a Args) (*Call, []byte, error) {
	return singleKey(CmdInvalidate, a)
}

func singleKey(cmd Command, a Args) (*Call, []byte, error) {
	key, err := a.Serial(0)
	if err != nil {
		return nil, nil, err
	}
	return keyctlCall(cmd, IntArg(int64(key))), nil, nil
}

func keyIntoKeyring(cmd Command, a Args) (*Call, []byte, error) {
	keyring, err := a.Serial(0)
	if err != nil {
		return nil, nil, err
	}
	key, err := a.Serial(1)
	if err != nil {
		return nil, nil, err
	}
	return keyctlCall(cmd, IntArg(int64(key)), IntArg(int64(keyring))), nil, nil
}

// readInto builds a (key, buffer, buflen) call over a fresh output buffer.
func readInto(sc *scope, cmd Command, a Args) (*Call, []byte, error) {
	key, err := a.Serial(0)
	if err != nil {
		return nil, nil, err
	}
	out := sc.output()
	return keyctlCall(cmd, IntArg(int64(key)), BufferArg(out), IntArg(int64(len(out)))), out, nil
}
