package vault

import (
	"regexp"
	"strings"
)

// secretNameFragments are case-insensitive substrings of env or header
// names that mark a value as credential-bearing regardless of its shape.
var secretNameFragments = []string{
	"token",
	"secret",
	"password",
	"passwd",
	"apikey",
	"api_key",
	"api-key",
	"credential",
	"auth",
	"private_key",
	"access_key",
}

// secretValuePatterns match well-known credential formats. Shape-based
// detection backstops name-based detection for generically named vars.
var secretValuePatterns = []*regexp.Regexp{
	// Anthropic and OpenAI style keys.
	regexp.MustCompile(`^sk-ant-[A-Za-z0-9_-]{32,}$`),
	regexp.MustCompile(`^sk-[A-Za-z0-9_-]{20,}$`),
	// GitHub tokens, classic and fine-grained.
	regexp.MustCompile(`^gh[pousr]_[A-Za-z0-9]{36,}$`),
	regexp.MustCompile(`^github_pat_[A-Za-z0-9_]{22,}$`),
	// AWS access key ID.
	regexp.MustCompile(`^(AKIA|ASIA)[A-Z0-9]{16}$`),
	// Slack tokens.
	regexp.MustCompile(`^xox[baprs]-[A-Za-z0-9-]{10,}$`),
	// GitLab personal access token.
	regexp.MustCompile(`^glpat-[A-Za-z0-9_-]{20,}$`),
	// Google API key.
	regexp.MustCompile(`^AIza[A-Za-z0-9_-]{35}$`),
	// npm token.
	regexp.MustCompile(`^npm_[A-Za-z0-9]{36,}$`),
	// Stripe keys.
	regexp.MustCompile(`^[sr]k_(live|test)_[A-Za-z0-9]{20,}$`),
	// JWT.
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`),
	// Long bare hex, the shape of most signing secrets.
	regexp.MustCompile(`^[0-9a-fA-F]{40,}$`),
}

// pemHeader marks private key material pasted inline.
var pemHeader = regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`)

// IsSecretName reports whether an env or header name suggests its value
// is a credential.
func IsSecretName(name string) bool {
	lower := strings.ToLower(name)
	for _, frag := range secretNameFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// IsSecretValue reports whether a value matches a known credential shape.
func IsSecretValue(value string) bool {
	if value == "" {
		return false
	}
	if pemHeader.MatchString(value) {
		return true
	}
	for _, re := range secretValuePatterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// Classify reports whether a name/value pair should be routed to the
// vault instead of written in cleartext.
func Classify(name, value string) bool {
	return IsSecretName(name) || IsSecretValue(value)
}
