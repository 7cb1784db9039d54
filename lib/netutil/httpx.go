// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP response helpers shared by the
// Matrix client and the build-feed poller.
//
// Every read is capped at MaxResponseSize. A full-state /sync over many
// rooms is the largest body the bot ever reads; the cap only exists so
// a misbehaving server cannot exhaust memory.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxResponseSize is the bound on JSON API response body reads.
const MaxResponseSize int64 = 64 << 20

// maxErrorExcerpt bounds how much of an error body lands in an error
// message or log line.
const maxErrorExcerpt = 512

// ReadResponse reads a response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a response body (up to MaxResponseSize bytes)
// and JSON-decodes it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// ErrorBody reads an error response body and returns a trimmed excerpt
// for diagnostics. Read errors yield whatever was read, possibly "".
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorExcerpt+1))
	excerpt := strings.TrimSpace(string(data))
	if len(data) > maxErrorExcerpt {
		excerpt = strings.TrimSpace(string(data[:maxErrorExcerpt])) + "..."
	}
	return excerpt
}

// StatusError is returned by CheckStatus for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// CheckStatus returns nil for a 2xx response. Otherwise it consumes an
// excerpt of the body and returns a *StatusError. The caller still owns
// closing the body.
func CheckStatus(response *http.Response) error {
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return nil
	}
	statusError := &StatusError{
		StatusCode: response.StatusCode,
		Body:       ErrorBody(response.Body),
	}
	if response.Request != nil {
		statusError.Method = response.Request.Method
		statusError.URL = response.Request.URL.Redacted()
	}
	return statusError
}
