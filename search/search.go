// Package search builds job search URLs and reads job IDs back out of them.
package search

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// listingIDPattern matches the job listing id in Glassdoor job links,
// e.g. "...-JV_IC1147401_KO0,15_KE16,25.htm?jl=1009393213424"
var listingIDPattern = regexp.MustCompile(`[?&]jl=(\d+)`)

// BuildURL returns the search landing page for keyword and location.
// The query only prefills the search form; the browser still submits it.
func BuildURL(baseURL, searchPath, keyword, location string) (string, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	if searchPath != "" {
		parsedURL.Path = path.Join("/", parsedURL.Path, searchPath)
	}

	query := parsedURL.Query()
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		query.Set("sc.keyword", keyword)
	}
	if location = strings.TrimSpace(location); location != "" {
		query.Set("locKeyword", location)
	}
	parsedURL.RawQuery = query.Encode()

	return parsedURL.String(), nil
}

// JobIDFromURL extracts the listing id from a job link, or "" if absent
func JobIDFromURL(link string) string {
	m := listingIDPattern.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return m[1]
}
