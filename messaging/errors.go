// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
)

// MatrixError is the errcode/error body a homeserver returns with a
// non-2xx status. Client methods wrap it, so match it with errors.As
// or [IsMatrixError].
type MatrixError struct {
	Code       string `json:"errcode"`
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("matrix: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Error codes the bot distinguishes.
const (
	// ErrCodeForbidden rejects a login or a membership change the bot
	// lacks power for.
	ErrCodeForbidden = "M_FORBIDDEN"

	// ErrCodeNotFound answers state lookups for absent events, such as
	// the name of an unnamed room.
	ErrCodeNotFound = "M_NOT_FOUND"
)

// IsMatrixError reports whether err wraps a *MatrixError with code.
func IsMatrixError(err error, code string) bool {
	var matrixErr *MatrixError
	return errors.As(err, &matrixErr) && matrixErr.Code == code
}
