package utils

import (
	"errors"
	"net/http"
	"strconv"
)

// UserIDHeader carries the authenticated caller's id, injected by the edge
// gateway after it validates the session. This service trusts the header;
// it never sees credentials.
const UserIDHeader = "X-User-ID"

var ErrMissingIdentity = errors.New("missing or invalid user identity")

func UserIDFromRequest(r *http.Request) (int64, error) {
	raw := r.Header.Get(UserIDHeader)
	if raw == "" {
		return 0, ErrMissingIdentity
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrMissingIdentity
	}
	return id, nil
}

// PathInt64 parses a positive int64 URL parameter value.
func PathInt64(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid numeric path parameter")
	}
	return id, nil
}

// QueryInt reads an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func QueryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
