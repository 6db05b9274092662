package sites

import (
	"net/http"
	"strings"
)

const (
	HeaderAcceptKey         = "accept"
	HeaderAcceptLanguageKey = "accept_language"
	HeaderCacheControlKey   = "cache_control"
	HeaderRefererKey        = "referer"
)

var headerAliases = map[string]string{
	HeaderAcceptKey:         "Accept",
	HeaderAcceptLanguageKey: "Accept-Language",
	HeaderCacheControlKey:   "Cache-Control",
	HeaderRefererKey:        "Referer",
}

// RequestHeaders builds the extra request headers for a site (skips empty values).
// The user agent travels separately in Site.UserAgent.
func RequestHeaders(s Site) map[string]string {
	headers := make(map[string]string, len(s.Headers))
	for k, v := range s.Headers {
		headers[k] = v
	}
	return headers
}

// sanitizeHeaders trims entries, drops empties and maps snake_case aliases onto canonical names.
func sanitizeHeaders(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		if alias, ok := headerAliases[strings.ToLower(key)]; ok {
			key = alias
		} else {
			key = http.CanonicalHeaderKey(key)
		}
		if strings.EqualFold(key, "User-Agent") {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
