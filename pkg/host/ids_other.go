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

//go:build !unix

package host

import (
	"errors"
	"fmt"
)

func lookupUserID(name string) (int, error) {
	return 0, fmt.Errorf("user %s: %w", name, errors.ErrUnsupported)
}

func lookupGroupID(name string) (int, error) {
	return 0, fmt.Errorf("group %s: %w", name, errors.ErrUnsupported)
}
