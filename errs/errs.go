// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package errs defines the error kinds raised across the table engine:
// missing columns, dtype mismatches, bad arguments, I/O failures,
// ingest configuration/task failures, join type mismatches, archive
// overwrite refusal, and internal invariant violations.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies which of the error categories an error belongs to.
// Kind itself implements error, so callers check a failure's category
// with errors.Is(err, errs.KeyMissing) rather than comparing Kind
// values directly (an *Error's Is method matches on Kind, ignoring the
// message/cause).
type Kind uint8

const (
	KeyMissing Kind = iota
	TypeMismatch
	ArgumentInvalid
	IoFailure
	IngestConfig
	IngestTaskFailure
	JoinTypeMismatch
	ArchiveExists
	InternalInvariant
)

// Error implements the error interface so a bare Kind can be used as
// an errors.Is target.
func (k Kind) Error() string { return k.String() }

func (k Kind) String() string {
	switch k {
	case KeyMissing:
		return "KeyMissing"
	case TypeMismatch:
		return "TypeMismatch"
	case ArgumentInvalid:
		return "ArgumentInvalid"
	case IoFailure:
		return "IoFailure"
	case IngestConfig:
		return "IngestConfig"
	case IngestTaskFailure:
		return "IngestTaskFailure"
	case JoinTypeMismatch:
		return "JoinTypeMismatch"
	case ArchiveExists:
		return "ArchiveExists"
	case InternalInvariant:
		return "InternalInvariant"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type every constructor below returns.
// It names the kind plus the column/file/operation the failure is
// about, and optionally wraps an underlying cause.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, errs.KeyMissing) style checks by
// treating a bare Kind value on the right-hand side as "any *Error
// with this Kind".
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e.Kind == k
}

func newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func wrapf(k Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// KeyMissingf reports an unknown column name or archive key.
func KeyMissingf(format string, args ...any) error { return newf(KeyMissing, format, args...) }

// TypeMismatchf reports a value/column dtype incompatibility.
func TypeMismatchf(format string, args ...any) error { return newf(TypeMismatch, format, args...) }

// ArgumentInvalidf reports a malformed argument (negative limit,
// duplicate keys, zero step, etc).
func ArgumentInvalidf(format string, args ...any) error {
	return newf(ArgumentInvalid, format, args...)
}

// IoFailuref wraps a disk read/write error with the path/operation
// that failed.
func IoFailuref(cause error, format string, args ...any) error {
	return wrapf(IoFailure, cause, format, args...)
}

// IngestConfigf reports a bad encoding/delimiter/option combination
// supplied to Import.
func IngestConfigf(format string, args ...any) error { return newf(IngestConfig, format, args...) }

// JoinTypeMismatchf reports that a join's key columns have no
// compatible observed type between the two sides.
func JoinTypeMismatchf(format string, args ...any) error {
	return newf(JoinTypeMismatch, format, args...)
}

// ArchiveExistsf reports a refusal to overwrite an existing archive
// path.
func ArchiveExistsf(format string, args ...any) error { return newf(ArchiveExists, format, args...) }

// InternalInvariantf reports a broken internal invariant: a bug, not a
// user-facing condition.
func InternalInvariantf(format string, args ...any) error {
	return newf(InternalInvariant, format, args...)
}

// TaskFailure is one worker task's outcome inside an IngestTaskFailure.
type TaskFailure struct {
	Column string
	Start  int
	End    int
	Err    error
}

// IngestTaskFailures aggregates one or more failed ingest worker tasks
// into a single error. Partial pages already written by other,
// successful tasks are left on disk for workspace shutdown to clean
// up, per spec.
type IngestTaskFailures struct {
	Failures []TaskFailure
}

func (e *IngestTaskFailures) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d task(s) failed", IngestTaskFailure, len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&sb, "; column %q rows [%d,%d): %v", f.Column, f.Start, f.End, f.Err)
	}
	return sb.String()
}

func (e *IngestTaskFailures) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

func (e *IngestTaskFailures) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == IngestTaskFailure
}

// NewIngestTaskFailures builds an *IngestTaskFailures from the
// collected per-task failures, or returns nil if failures is empty.
func NewIngestTaskFailures(failures []TaskFailure) error {
	if len(failures) == 0 {
		return nil
	}
	return &IngestTaskFailures{Failures: failures}
}

// Join is a small convenience re-export so callers that need to
// combine unrelated errors (e.g. a save error and a later cleanup
// error) don't need a separate import.
func Join(errs ...error) error { return errors.Join(errs...) }
