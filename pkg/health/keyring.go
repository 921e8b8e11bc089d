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
	"errors"
	"fmt"
	"syscall"

	"github.com/jeremyhahn/go-keyctl/pkg/keyctl"
)

// Names of the keyring checks.
const (
	CheckUserKeyring    = "user-keyring"
	CheckSessionKeyring = "session-keyring"
	CheckSecurityLabels = "security-labels"
)

// RegisterKeyringChecks registers checks that exercise the key facility
// through client without creating or changing any key.
func RegisterKeyringChecks(c *Checker, client *keyctl.Client) {
	c.RegisterCheck(CheckUserKeyring, func(ctx context.Context) CheckResult {
		id, err := client.GetKeyringID(ctx, keyctl.SpecUserKeyring, false)
		if err != nil {
			return failed(CheckUserKeyring, "key management system calls failed", err)
		}
		return CheckResult{
			Name:    CheckUserKeyring,
			Status:  StatusHealthy,
			Message: fmt.Sprintf("user keyring %d", id),
		}
	})

	c.RegisterCheck(CheckSessionKeyring, func(ctx context.Context) CheckResult {
		session, err := client.GetKeyringID(ctx, keyctl.SpecSessionKeyring, false)
		if err != nil {
			return failed(CheckSessionKeyring, "session keyring lookup failed", err)
		}
		userSession, err := client.GetKeyringID(ctx, keyctl.SpecUserSessionKeyring, false)
		if err == nil && session == userSession {
			return CheckResult{
				Name:    CheckSessionKeyring,
				Status:  StatusDegraded,
				Message: fmt.Sprintf("no session keyring, @s falls back to user session keyring %d", userSession),
			}
		}
		return CheckResult{
			Name:    CheckSessionKeyring,
			Status:  StatusHealthy,
			Message: fmt.Sprintf("session keyring %d", session),
		}
	})

	c.RegisterCheck(CheckSecurityLabels, func(ctx context.Context) CheckResult {
		label, err := client.GetSecurity(ctx, keyctl.SpecUserKeyring)
		if errors.Is(err, syscall.EOPNOTSUPP) {
			return CheckResult{
				Name:    CheckSecurityLabels,
				Status:  StatusHealthy,
				Message: "no security module labels keys",
			}
		}
		if err != nil {
			return CheckResult{
				Name:    CheckSecurityLabels,
				Status:  StatusDegraded,
				Message: "security label lookup failed",
				Error:   err.Error(),
			}
		}
		return CheckResult{
			Name:    CheckSecurityLabels,
			Status:  StatusHealthy,
			Message: fmt.Sprintf("user keyring label %q", label),
		}
	})
}

func failed(name, message string, err error) CheckResult {
	return CheckResult{
		Name:    name,
		Status:  StatusUnhealthy,
		Message: message,
		Error:   err.Error(),
	}
}
