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

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeremyhahn/go-keyctl/pkg/health"
	"github.com/jeremyhahn/go-keyctl/pkg/keyctl"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(strings.ToLower(format)),
		writer: writer,
	}
}

// PrintValue prints the result of a procedure. Text output prints nothing
// for an absent result.
func (p *Printer) PrintValue(procedure string, v keyctl.Value) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"procedure": procedure,
			"kind":      v.Kind().String(),
			"value":     v.Interface(),
		})
	case OutputFormatText:
		if v.IsAbsent() {
			return nil
		}
		fmt.Fprintln(p.writer, v.String())
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintConstants prints the published constants
func (p *Printer) PrintConstants(constants []keyctl.Constant) error {
	switch p.format {
	case OutputFormatJSON:
		list := make([]map[string]interface{}, len(constants))
		for i, c := range constants {
			list[i] = map[string]interface{}{
				"name":  c.Name,
				"value": c.Value.Interface(),
			}
		}
		return p.printJSON(map[string]interface{}{
			"constants": list,
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "%-40s %s\n", "NAME", "VALUE")
		fmt.Fprintln(p.writer, strings.Repeat("-", 60))
		for _, c := range constants {
			value := c.Value.String()
			if n, ok := c.Value.Integer(); ok && isPermName(c.Name) {
				value = fmt.Sprintf("0x%08x", n)
			}
			fmt.Fprintf(p.writer, "%-40s %s\n", c.Name, value)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintChecks prints health check results and the overall status
func (p *Printer) PrintChecks(status health.Status, results []health.CheckResult) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": status,
			"checks": results,
		})
	case OutputFormatText:
		for _, r := range results {
			fmt.Fprintf(p.writer, "%-16s %-10s %s\n", r.Name, r.Status, r.Message)
			if r.Error != "" {
				fmt.Fprintf(p.writer, "%-16s %-10s %s\n", "", "", r.Error)
			}
		}
		fmt.Fprintf(p.writer, "Status: %s\n", status)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error. JSON output adds the errno of kernel failures.
func (p *Printer) PrintError(err error) error {
	var kerr *keyctl.KernelError
	switch p.format {
	case OutputFormatJSON:
		data := map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
		if errors.As(err, &kerr) {
			if errno, ok := kerr.Errno(); ok {
				data["errno"] = int(errno)
			}
		}
		return p.printJSON(data)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// isPermName reports whether a constant is a permission bit or mask
func isPermName(name string) bool {
	for _, prefix := range []string{"KEY_POS_", "KEY_USR_", "KEY_GRP_", "KEY_OTH_"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
