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

// Serial is a kernel key or keyring identifier (key_serial_t).
type Serial int32

// Special keyring identifiers. Source: include/uapi/linux/keyctl.h
const (
	SpecThreadKeyring      Serial = -1 // thread-specific keyring
	SpecProcessKeyring     Serial = -2 // process-specific keyring
	SpecSessionKeyring     Serial = -3 // session-specific keyring
	SpecUserKeyring        Serial = -4 // UID-specific keyring
	SpecUserSessionKeyring Serial = -5 // UID-session keyring
	SpecGroupKeyring       Serial = -6 // GID-specific keyring
	SpecReqKeyAuthKey      Serial = -7 // assumed request_key() authorisation key
)

// ReqKeyDefault selects the keyring that request_key() links new keys into
// by default (KEYCTL_SET_REQKEY_KEYRING).
type ReqKeyDefault int32

const (
	ReqKeyDefaultNoChange           ReqKeyDefault = -1
	ReqKeyDefaultDefault            ReqKeyDefault = 0
	ReqKeyDefaultThreadKeyring      ReqKeyDefault = 1
	ReqKeyDefaultProcessKeyring     ReqKeyDefault = 2
	ReqKeyDefaultSessionKeyring     ReqKeyDefault = 3
	ReqKeyDefaultUserKeyring        ReqKeyDefault = 4
	ReqKeyDefaultUserSessionKeyring ReqKeyDefault = 5
	ReqKeyDefaultGroupKeyring       ReqKeyDefault = 6
)

// Perm is a key permission mask: four one-byte quadrants, in MSB order
// possessor, user, group, other.
type Perm uint32

const (
	PermPossessorView    Perm = 0x01000000
	PermPossessorRead    Perm = 0x02000000
	PermPossessorWrite   Perm = 0x04000000
	PermPossessorSearch  Perm = 0x08000000
	PermPossessorLink    Perm = 0x10000000
	PermPossessorSetattr Perm = 0x20000000
	PermPossessorAll     Perm = 0x3f000000

	PermUserView    Perm = 0x00010000
	PermUserRead    Perm = 0x00020000
	PermUserWrite   Perm = 0x00040000
	PermUserSearch  Perm = 0x00080000
	PermUserLink    Perm = 0x00100000
	PermUserSetattr Perm = 0x00200000
	PermUserAll     Perm = 0x003f0000

	PermGroupView    Perm = 0x00000100
	PermGroupRead    Perm = 0x00000200
	PermGroupWrite   Perm = 0x00000400
	PermGroupSearch  Perm = 0x00000800
	PermGroupLink    Perm = 0x00001000
	PermGroupSetattr Perm = 0x00002000
	PermGroupAll     Perm = 0x00003f00

	PermOtherView    Perm = 0x00000001
	PermOtherRead    Perm = 0x00000002
	PermOtherWrite   Perm = 0x00000004
	PermOtherSearch  Perm = 0x00000008
	PermOtherLink    Perm = 0x00000010
	PermOtherSetattr Perm = 0x00000020
	PermOtherAll     Perm = 0x0000003f
)

// Command is a keyctl(2) operation number.
type Command int

const (
	CmdGetKeyringID       Command = 0
	CmdJoinSessionKeyring Command = 1
	CmdUpdate             Command = 2
	CmdRevoke             Command = 3
	CmdChown              Command = 4
	CmdSetPerm            Command = 5
	CmdDescribe           Command = 6
	CmdClear              Command = 7
	CmdLink               Command = 8
	CmdUnlink             Command = 9
	CmdSearch             Command = 10
	CmdRead               Command = 11
	CmdInstantiate        Command = 12
	CmdNegate             Command = 13
	CmdSetReqKeyKeyring   Command = 14
	CmdSetTimeout         Command = 15
	CmdAssumeAuthority    Command = 16
	CmdGetSecurity        Command = 17
	CmdSessionToParent    Command = 18
	CmdReject             Command = 19
	CmdInvalidate         Command = 21
)

var commandNames = map[Command]string{
	CmdGetKeyringID:       "KEYCTL_GET_KEYRING_ID",
	CmdJoinSessionKeyring: "KEYCTL_JOIN_SESSION_KEYRING",
	CmdUpdate:             "KEYCTL_UPDATE",
	CmdRevoke:             "KEYCTL_REVOKE",
	CmdChown:              "KEYCTL_CHOWN",
	CmdSetPerm:            "KEYCTL_SETPERM",
	CmdDescribe:           "KEYCTL_DESCRIBE",
	CmdClear:              "KEYCTL_CLEAR",
	CmdLink:               "KEYCTL_LINK",
	CmdUnlink:             "KEYCTL_UNLINK",
	CmdSearch:             "KEYCTL_SEARCH",
	CmdRead:               "KEYCTL_READ",
	CmdInstantiate:        "KEYCTL_INSTANTIATE",
	CmdNegate:             "KEYCTL_NEGATE",
	CmdSetReqKeyKeyring:   "KEYCTL_SET_REQKEY_KEYRING",
	CmdSetTimeout:         "KEYCTL_SET_TIMEOUT",
	CmdAssumeAuthority:    "KEYCTL_ASSUME_AUTHORITY",
	CmdGetSecurity:        "KEYCTL_GET_SECURITY",
	CmdSessionToParent:    "KEYCTL_SESSION_TO_PARENT",
	CmdReject:             "KEYCTL_REJECT",
	CmdInvalidate:         "KEYCTL_INVALIDATE",
}

// String returns the uapi name of the command.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "KEYCTL_UNKNOWN"
}

// Version information (injected at build time via -ldflags)
var (
	Version   = "dev"     // Set via -ldflags "-X github.com/jeremyhahn/go-keyctl/pkg/keyctl.Version=x.y.z"
	GitCommit = "unknown" // Set via -ldflags "-X github.com/jeremyhahn/go-keyctl/pkg/keyctl.GitCommit=abc123"
	BuildDate = "unknown" // Set via -ldflags "-X github.com/jeremyhahn/go-keyctl/pkg/keyctl.BuildDate=2025-01-15"
)

// VersionString identifies this library's version.
func VersionString() string {
	return "go-keyctl-" + Version
}

// BuildString identifies this library's build.
func BuildString() string {
	return BuildDate + "-" + GitCommit
}

// Constant is a named immutable value published into the host.
type Constant struct {
	Name  string
	Value Value
}

type serialConstant struct {
	name  string
	value Serial
}

type selectorConstant struct {
	name  string
	value ReqKeyDefault
}

type permConstant struct {
	name  string
	value Perm
}

var keyringConstants = [...]serialConstant{
	{"KEY_SPEC_THREAD_KEYRING", SpecThreadKeyring},
	{"KEY_SPEC_PROCESS_KEYRING", SpecProcessKeyring},
	{"KEY_SPEC_SESSION_KEYRING", SpecSessionKeyring},
	{"KEY_SPEC_USER_KEYRING", SpecUserKeyring},
	{"KEY_SPEC_USER_SESSION_KEYRING", SpecUserSessionKeyring},
	{"KEY_SPEC_GROUP_KEYRING", SpecGroupKeyring},
	{"KEY_SPEC_REQKEY_AUTH_KEY", SpecReqKeyAuthKey},
}

var selectorConstants = [...]selectorConstant{
	{"KEY_REQKEY_DEFL_NO_CHANGE", ReqKeyDefaultNoChange},
	{"KEY_REQKEY_DEFL_DEFAULT", ReqKeyDefaultDefault},
	{"KEY_REQKEY_DEFL_THREAD_KEYRING", ReqKeyDefaultThreadKeyring},
	{"KEY_REQKEY_DEFL_PROCESS_KEYRING", ReqKeyDefaultProcessKeyring},
	{"KEY_REQKEY_DEFL_SESSION_KEYRING", ReqKeyDefaultSessionKeyring},
	{"KEY_REQKEY_DEFL_USER_KEYRING", ReqKeyDefaultUserKeyring},
	{"KEY_REQKEY_DEFL_USER_SESSION_KEYRING", ReqKeyDefaultUserSessionKeyring},
	{"KEY_REQKEY_DEFL_GROUP_KEYRING", ReqKeyDefaultGroupKeyring},
}

var permConstants = [...]permConstant{
	{"KEY_POS_VIEW", PermPossessorView},
	{"KEY_POS_READ", PermPossessorRead},
	{"KEY_POS_WRITE", PermPossessorWrite},
	{"KEY_POS_SEARCH", PermPossessorSearch},
	{"KEY_POS_LINK", PermPossessorLink},
	{"KEY_POS_SETATTR", PermPossessorSetattr},
	{"KEY_POS_ALL", PermPossessorAll},
	{"KEY_USR_VIEW", PermUserView},
	{"KEY_USR_READ", PermUserRead},
	{"KEY_USR_WRITE", PermUserWrite},
	{"KEY_USR_SEARCH", PermUserSearch},
	{"KEY_USR_LINK", PermUserLink},
	{"KEY_USR_SETATTR", PermUserSetattr},
	{"KEY_USR_ALL", PermUserAll},
	{"KEY_GRP_VIEW", PermGroupView},
	{"KEY_GRP_READ", PermGroupRead},
	{"KEY_GRP_WRITE", PermGroupWrite},
	{"KEY_GRP_SEARCH", PermGroupSearch},
	{"KEY_GRP_LINK", PermGroupLink},
	{"KEY_GRP_SETATTR", PermGroupSetattr},
	{"KEY_GRP_ALL", PermGroupAll},
	{"KEY_OTH_VIEW", PermOtherView},
	{"KEY_OTH_READ", PermOtherRead},
	{"KEY_OTH_WRITE", PermOtherWrite},
	{"KEY_OTH_SEARCH", PermOtherSearch},
	{"KEY_OTH_LINK", PermOtherLink},
	{"KEY_OTH_SETATTR", PermOtherSetattr},
	{"KEY_OTH_ALL", PermOtherAll},
}

// Constants returns every published constant in registration order:
// keyring sentinels, request-key default selectors, permission bits, then
// the version and build strings. The returned slice is a fresh copy.
func Constants() []Constant {
	out := make([]Constant, 0, len(keyringConstants)+len(selectorConstants)+len(permConstants)+2)
	for _, c := range keyringConstants {
		out = append(out, Constant{Name: c.name, Value: FromSerial(c.value)})
	}
	for _, c := range selectorConstants {
		out = append(out, Constant{Name: c.name, Value: Int(int64(c.value))})
	}
	for _, c := range permConstants {
		out = append(out, Constant{Name: c.name, Value: Int(int64(c.value))})
	}
	out = append(out,
		Constant{Name: "keyutils_version_string", Value: Text(VersionString())},
		Constant{Name: "keyutils_build_string", Value: Text(BuildString())},
	)
	return out
}
