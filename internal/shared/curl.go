// Utilities for lifting browser request headers out of a "Copy as cURL" command.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderPattern = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookiePattern = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// forwardedPrefixes lists the header prefixes YouTube checks on browse requests.
var forwardedPrefixes = []string{"x-goog-", "x-youtube-", "x-origin", "authorization", "user-agent", "origin"}

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(path string) (*CurlHeaders, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts headers.
//
// A cookie passed with -b wins over a "cookie:" header.
func ParseCurlCommand(data []byte) (*CurlHeaders, error) {
	cmd := strings.ReplaceAll(string(data), "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	parsed := &CurlHeaders{Headers: make(map[string]string)}
	var headerCookie string

	for _, match := range curlHeaderPattern.FindAllStringSubmatch(cmd, -1) {
		key, value, ok := strings.Cut(firstGroup(match), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		parsed.Headers[key] = value
	}

	if match := curlCookiePattern.FindStringSubmatch(cmd); match != nil {
		parsed.Cookie = firstGroup(match)
	}
	if parsed.Cookie == "" {
		parsed.Cookie = headerCookie
	}

	if len(parsed.Headers) == 0 && parsed.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	return parsed, nil
}

// Forwarded returns the subset of headers worth replaying on scrape requests, cookie included.
//
// Keys are lowercased so the result can be stored in the config file.
func (c *CurlHeaders) Forwarded() map[string]string {
	out := make(map[string]string)
	for key, value := range c.Headers {
		lower := strings.ToLower(key)
		for _, prefix := range forwardedPrefixes {
			if strings.HasPrefix(lower, prefix) {
				out[lower] = value
				break
			}
		}
	}
	if c.Cookie != "" {
		out["cookie"] = c.Cookie
	}
	return out
}

func firstGroup(match []string) string {
	for _, group := range match[1:] {
		if group != "" {
			return group
		}
	}
	return ""
}
