package executor

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/goccy/go-json"
)

// buildURL joins baseURL and path and appends query, encoding scalars and
// lists as repeated parameters and falling back to a JSON-encoded value
// for nested objects. Key order is sorted for determinism, though the
// wire query string's order has no bearing on CacheKey equality (that's
// computed separately, see pkg/cachekey).
func buildURL(baseURL, path string, query map[string]any) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("executor: invalid base URL: %w", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("executor: invalid path: %w", err)
	}
	full := base.ResolveReference(ref)

	if len(query) == 0 {
		return full.String(), nil
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := full.Query()
	for _, k := range keys {
		switch v := query[k].(type) {
		case []any:
			for _, item := range v {
				values.Add(k, fmt.Sprint(item))
			}
		case nil:
			// absent
		case string, int, int64, float64, bool:
			values.Add(k, fmt.Sprint(v))
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", fmt.Errorf("executor: encode query param %q: %w", k, err)
			}
			values.Add(k, string(encoded))
		}
	}
	full.RawQuery = values.Encode()
	return full.String(), nil
}
