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

package host

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/jeremyhahn/go-keyctl/pkg/metrics"
)

// LineError is a failed script statement.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Run evaluates a script line by line. It stops at the first failing
// statement unless the environment was built WithKeepGoing, in which case
// every failure is collected into a *multierror.Error.
func (e *Environment) Run(ctx context.Context, r io.Reader) error {
	var result *multierror.Error
	if e.limiter.IsEnabled() {
		defer func() {
			e.logger.Debug("script rate limit", "stats", e.limiter.Stats())
		}()
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return multierror.Append(result, err).ErrorOrNil()
		}

		err := e.runLine(ctx, scanner.Text())
		if err == nil {
			continue
		}
		lineErr := &LineError{Line: lineNo, Err: err}
		if !e.keepGoing {
			return lineErr
		}
		e.logger.Warn("statement failed", "line", lineNo, "error", err)
		result = multierror.Append(result, lineErr)
	}
	if err := scanner.Err(); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to read script: %w", err))
	}
	return result.ErrorOrNil()
}

func (e *Environment) runLine(ctx context.Context, line string) error {
	stmt, err := Parse(line)
	if err != nil {
		metrics.RecordStatement(metrics.StatusError)
		return err
	}
	if stmt == nil {
		return nil
	}

	if err := e.limiter.Wait(ctx, stmt.Procedure); err != nil {
		metrics.RecordStatement(metrics.StatusError)
		return fmt.Errorf("%s: rate limit: %w", stmt.Procedure, err)
	}

	v, err := e.Exec(ctx, stmt)
	if err != nil {
		metrics.RecordStatement(metrics.StatusError)
		return err
	}
	metrics.RecordStatement(metrics.StatusSuccess)
	e.logger.Debug("statement evaluated", "procedure", stmt.Procedure, "result", v.Kind().String())

	if e.echo && stmt.Target == "" && !v.IsAbsent() {
		if _, err := fmt.Fprintln(e.out, v.String()); err != nil {
			return err
		}
	}
	return nil
}
