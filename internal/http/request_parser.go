// Package http provides HTTP server and handler implementations.
//
// This file holds the helpers that turn query strings and JSON bodies into
// domain values.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tracker/internal/core"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks a malformed request: undecodable body or query value.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// decodeJSON reads a single JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("empty request body")
		}
		return badRequest("invalid JSON: %v", err)
	}
	if dec.More() {
		return badRequest("body must contain a single JSON object")
	}
	return nil
}

// optionalInt parses key from query; absent or blank yields nil.
func optionalInt(query url.Values, key string) (*int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, badRequest("%s must be an integer", key)
	}
	return &n, nil
}

func intOr(query url.Values, key string, def int) (int, error) {
	n, err := optionalInt(query, key)
	if err != nil || n == nil {
		return def, err
	}
	return *n, nil
}

func optionalTime(query url.Values, key string) (*time.Time, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil, nil
	}
	t, err := core.ParseTimestamp(v)
	if err != nil {
		return nil, badRequest("%s must be a date or RFC 3339 timestamp", key)
	}
	return &t, nil
}

// parseTransactionFilter reads transaction_type, category_id, start_date,
// end_date, skip and limit.
func parseTransactionFilter(query url.Values) (core.TransactionFilter, error) {
	var f core.TransactionFilter
	if v := strings.TrimSpace(query.Get("transaction_type")); v != "" {
		typ, err := core.ParseTransactionType(v)
		if err != nil {
			return f, badRequest("transaction_type must be expense or income")
		}
		f.Type = typ
	}
	f.CategoryID = strings.TrimSpace(query.Get("category_id"))

	var err error
	if f.Start, err = optionalTime(query, "start_date"); err != nil {
		return f, err
	}
	if f.End, err = optionalTime(query, "end_date"); err != nil {
		return f, err
	}
	if f.Skip, err = intOr(query, "skip", 0); err != nil {
		return f, err
	}
	if f.Limit, err = intOr(query, "limit", 0); err != nil {
		return f, err
	}
	if f.Skip < 0 || f.Limit < 0 {
		return f, badRequest("skip and limit must not be negative")
	}
	return f, nil
}
