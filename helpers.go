package inkwell

import (
	"net/url"
	"sort"
	"strings"
)

// joinTags serializes tags as a comma-delimited string with sentinel commas
// (e.g. ",go,web,"). Tags are normalized to lowercase.
func joinTags(tags []string) string {
	cleaned := FilterEmpty(tags)
	if len(cleaned) == 0 {
		return ","
	}
	for i := range cleaned {
		cleaned[i] = strings.ToLower(cleaned[i])
	}
	return "," + strings.Join(cleaned, ",") + ","
}

// parseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func parseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CacheKey normalizes a request path plus raw query into a stable cache key.
// Query parameters are sorted so equivalent URLs share an entry.
func CacheKey(path, rawQuery string) string {
	key := strings.TrimRight(path, "/")
	if key == "" {
		key = "/"
	}
	if rawQuery == "" {
		return key
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return key + "?" + rawQuery
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(key)
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		vs := values[k]
		sort.Strings(vs)
		for j, v := range vs {
			if j > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
