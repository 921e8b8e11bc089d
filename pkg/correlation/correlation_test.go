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


package correlation

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestEnsure(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		env  string
		want string // empty means a fresh UUID
	}{
		{"existing ID wins over environment", WithCorrelationID(context.Background(), "existing"), "from-env", "existing"},
		{"inherits ID from environment", context.Background(), "from-env", "from-env"},
		{"generates new ID", context.Background(), "", ""},
		{"empty ID in context is replaced", WithCorrelationID(context.Background(), ""), "from-env", "from-env"},
		{"nil context", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvVar, tt.env)
			got := GetCorrelationID(Ensure(tt.ctx))
			if tt.want != "" {
				if got != tt.want {
					t.Errorf("Ensure() ID = %q, want %q", got, tt.want)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("Ensure() generated invalid UUID %q: %v", got, err)
			}
		})
	}
}

func TestEnsure_FreshIDPerInvocation(t *testing.T) {
	t.Setenv(EnvVar, "")
	first := GetCorrelationID(Ensure(context.Background()))
	second := GetCorrelationID(Ensure(context.Background()))
	if first == second {
		t.Errorf("Ensure() reused ID %q across invocations", first)
	}
}

func TestGetCorrelationID_Missing(t *testing.T) {
	if got := GetCorrelationID(nil); got != "" {
		t.Errorf("GetCorrelationID(nil) = %q, want empty", got)
	}
	if got := GetCorrelationID(context.Background()); got != "" {
		t.Errorf("GetCorrelationID() = %q, want empty", got)
	}
}
