package samples

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultAllowedDomains are the hosts sample data may be fetched from.
var DefaultAllowedDomains = []string{"raw.githubusercontent.com", "github.com"}

// githubBlobPattern matches https://github.com/{owner}/{repo}/{blob|tree}/{ref}/{path...}
var githubBlobPattern = regexp.MustCompile(`^/([^/]+)/([^/]+)/(blob|tree|raw)/([^/]+)(?:/(.*))?$`)

// ConvertToRawURL rewrites a GitHub blob URL to its raw.githubusercontent.com form.
// Anything else is returned unchanged.
func ConvertToRawURL(githubURL string) string {
	parsed, err := url.Parse(githubURL)
	if err != nil {
		return githubURL
	}
	if parsed.Host != "github.com" && parsed.Host != "www.github.com" {
		return githubURL
	}

	m := githubBlobPattern.FindStringSubmatch(parsed.Path)
	if m == nil {
		return githubURL
	}
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/refs/heads/%s/%s", m[1], m[2], m[4], m[5])
}

// ValidateURL checks the scheme and, when allowedDomains is non-empty, the host.
func ValidateURL(rawURL string, allowedDomains []string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid scheme %q: only http and https allowed", parsed.Scheme)
	}
	if len(allowedDomains) == 0 {
		return nil
	}

	host := strings.ToLower(parsed.Hostname())
	for _, domain := range allowedDomains {
		domain = strings.ToLower(domain)
		if host == domain || host == "www."+domain {
			return nil
		}
	}
	return fmt.Errorf("domain %q not in allowed list", host)
}
