package auth

import (
	"encoding/base64"
	"errors"
	"strings"
)

// Authorization header parse errors.
var (
	ErrMissingCredentials = errors.New("missing authorization header")
	ErrMalformedHeader    = errors.New("malformed authorization header")
)

// ParseBearer extracts the token from "Bearer <token>".
// The scheme is matched case-insensitively.
func ParseBearer(header string) (string, error) {
	token, ok, err := cutScheme(header, "Bearer")
	if err != nil {
		return "", err
	}
	if !ok || token == "" {
		return "", ErrMalformedHeader
	}
	return token, nil
}

// ParseBasic extracts the username and password from "Basic <base64>".
func ParseBasic(header string) (username, password string, err error) {
	encoded, ok, err := cutScheme(header, "Basic")
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", ErrMalformedHeader
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", ErrMalformedHeader
	}
	username, password, ok = strings.Cut(string(raw), ":")
	if !ok || username == "" {
		return "", "", ErrMalformedHeader
	}
	return username, password, nil
}

// HasScheme reports whether header uses the given authentication scheme.
func HasScheme(header, scheme string) bool {
	_, ok, _ := cutScheme(header, scheme)
	return ok
}

// cutScheme splits header into scheme and credentials. ok is false when the
// scheme differs from want.
func cutScheme(header, want string) (string, bool, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false, ErrMissingCredentials
	}
	scheme, rest, found := strings.Cut(header, " ")
	if !found {
		return "", false, ErrMalformedHeader
	}
	if !strings.EqualFold(scheme, want) {
		return "", false, nil
	}
	return strings.TrimSpace(rest), true, nil
}
