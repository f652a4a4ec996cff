// Package handle converts internal ids into the opaque strings clients see.
// Handles are obfuscation only: anyone can decode them, so nothing may treat
// a successful decode as proof of access.
package handle

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindHouse  Kind = "house"
	KindUser   Kind = "user"
	KindSearch Kind = "search"
)

var ErrDecode = errors.New("invalid handle")

var kinds = []Kind{KindHouse, KindUser, KindSearch}

// Encode returns "{kind}_" followed by the URL-safe base64 of id.
func Encode(id string, kind Kind) string {
	return string(kind) + "_" + base64.URLEncoding.EncodeToString([]byte(id))
}

// EncodeAll encodes every id with the same kind. A nil slice stays nil.
func EncodeAll(ids []string, kind Kind) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = Encode(id, kind)
	}
	return out
}

// Decode splits a handle into its kind and id. Both the URL-safe and the
// standard base64 alphabets are accepted, padded or not.
func Decode(h string) (Kind, string, error) {
	for _, k := range kinds {
		prefix := string(k) + "_"
		if !strings.HasPrefix(h, prefix) {
			continue
		}
		raw, err := decodeBase64(strings.TrimPrefix(h, prefix))
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		if len(raw) == 0 {
			return "", "", fmt.Errorf("%w: empty id", ErrDecode)
		}
		return k, string(raw), nil
	}
	return "", "", fmt.Errorf("%w: unknown prefix", ErrDecode)
}

// DecodeKind decodes h and requires it to be of the given kind.
func DecodeKind(h string, want Kind) (string, error) {
	k, id, err := Decode(h)
	if err != nil {
		return "", err
	}
	if k != want {
		return "", fmt.Errorf("%w: expected %s handle, got %s", ErrDecode, want, k)
	}
	return id, nil
}

func decodeBase64(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	trimmed := strings.TrimRight(s, "=")
	if strings.ContainsAny(trimmed, "+/") {
		return base64.RawStdEncoding.DecodeString(trimmed)
	}
	return base64.RawURLEncoding.DecodeString(trimmed)
}
