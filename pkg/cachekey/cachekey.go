// Package cachekey derives the digest used to address a CacheStore entry
// for a given request, per spec.md §3: a 16-byte digest of
// `METHOD | absolute-url | canonical(query) | canonical(body)`.
package cachekey

import (
	"crypto/md5" //nolint:gosec // content-addressing digest, not a security boundary
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Key is a 16-byte digest addressing a cache entry. The zero Key never
// results from Derive and is reserved for "no key computed".
type Key [16]byte

// String renders the digest as 32 lowercase hex characters.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// MarshalText implements encoding.TextMarshaler so a Key can be used as a
// map key representation or logged safely.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Derive computes the cache key for a request described by its method,
// base URL, path, query parameters, and body. A query value is a scalar
// (string, number, bool), a list ([]any), or a nested object
// (map[string]any); a scalar and a one-element list canonicalize
// differently.
func Derive(method, baseURL, path string, query map[string]any, body []byte) (Key, error) {
	absoluteURL, err := joinURL(baseURL, path)
	if err != nil {
		return Key{}, fmt.Errorf("cachekey: %w", err)
	}
	return DeriveFromMaterializedRequest(method, absoluteURL, query, body)
}

// DeriveFromMaterializedRequest computes the cache key from an
// already-joined absolute URL, skipping base/path concatenation.
func DeriveFromMaterializedRequest(method, absoluteURL string, query map[string]any, body []byte) (Key, error) {
	var sb strings.Builder
	sb.WriteString(strings.ToUpper(method))
	sb.WriteByte('|')
	sb.WriteString(absoluteURL)
	sb.WriteByte('|')
	sb.WriteString(canonicalizeQuery(query))
	sb.WriteByte('|')

	canonicalBody, err := canonicalizeBody(body)
	if err != nil {
		return Key{}, fmt.Errorf("cachekey: canonicalize body: %w", err)
	}
	sb.Write(canonicalBody)

	return md5.Sum([]byte(sb.String())), nil //nolint:gosec
}

func joinURL(baseURL, path string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// canonicalizeQuery sorts keys ascending and recursively canonicalizes
// nested maps/lists with sorted keys and stable array order, per
// spec.md §3.
func canonicalizeQuery(query map[string]any) string {
	if len(query) == 0 {
		return ""
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(canonicalizeValue(query[k]))
	}
	return sb.String()
}

func canonicalizeValue(v any) string {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(url.QueryEscape(k))
			sb.WriteByte(':')
			sb.WriteString(canonicalizeValue(val[k]))
		}
		sb.WriteByte('}')
		return sb.String()
	case []any:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(canonicalizeValue(item))
		}
		sb.WriteByte(']')
		return sb.String()
	case nil:
		return ""
	case string:
		return url.QueryEscape(val)
	default:
		return url.QueryEscape(fmt.Sprint(val))
	}
}

// canonicalizeBody re-serializes a structured body with sorted field
// names and no forward-slash escaping, per spec.md §3. Bodies that don't
// parse as JSON are hashed as opaque bytes; nil/empty is equivalent to
// absent.
func canonicalizeBody(body []byte) ([]byte, error) {
	if len(body) == 0 {
		return nil, nil
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Not structured JSON: hash the raw bytes as opaque content.
		return body, nil
	}

	return json.MarshalWithOption(parsed, json.DisableHTMLEscape())
}
