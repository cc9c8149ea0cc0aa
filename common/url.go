package common

import (
	"net/url"
	"strings"
)

func JoinURLPath(baseURL string, paths ...string) string {
	baseURL = strings.TrimSuffix(baseURL, "/")
	cleanPaths := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.Trim(p, "/"); p != "" {
			cleanPaths = append(cleanPaths, p)
		}
	}

	if len(cleanPaths) > 0 {
		return baseURL + "/" + strings.Join(cleanPaths, "/")
	}

	return baseURL
}

// WithQuery appends query parameters to rawURL, keeping any it already has.
func WithQuery(rawURL string, params map[string]string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
