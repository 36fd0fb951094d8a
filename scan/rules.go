package scan

import (
	"context"
	"regexp"
	"strings"

	"github.com/syssam/helix"
)

// Credential patterns with a recognizable prefix. Matching is done on
// the raw content, so generated lockfiles and templates are covered too.
var credentialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),                             // AWS access key id
	regexp.MustCompile(`ghp_[A-Za-z0-9]{36}`),                          // GitHub personal access token
	regexp.MustCompile(`sk_live_[A-Za-z0-9]{24,}`),                     // Stripe live secret key
	regexp.MustCompile(`xox[baprs]-[A-Za-z0-9-]{10,}`),                 // Slack token
	regexp.MustCompile(`eyJhbGciOi[A-Za-z0-9_-]+\.[A-Za-z0-9_-]{20,}`), // signed JWT
}

var privateKeyPattern = regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`)

// assignedSecretPattern matches key/secret/token assignments carrying a
// long literal value, e.g. API_KEY="d41d8cd98f00b204e980".
var assignedSecretPattern = regexp.MustCompile(`(?i)(api[_-]?key|secret|token|password)\s*[:=]\s*["'][A-Za-z0-9/+=_-]{16,}["']`)

var insecureURLPattern = regexp.MustCompile(`http://[a-zA-Z0-9.-]+`)

// DefaultRules returns the scan policy applied when a Scanner is built
// without rules. Binary payloads and env templates are cleared first so
// the detection rules never see them.
func DefaultRules() []FileRule {
	return []FileRule{
		ClearBinaryFiles(),
		ClearEnvTemplates(),
		DetectPrivateKeys(),
		DetectCredentials(),
		DetectAssignedSecrets(),
		FlagInsecureURLs(),
		FlagCurlPipeShell(),
	}
}

// ClearBinaryFiles returns a rule that clears base64-encoded payloads.
// Pattern rules operate on text and would misfire on encoded bytes.
func ClearBinaryFiles() FileRule {
	return FileRuleFunc(func(_ context.Context, f *helix.GeneratedFile) error {
		if f.Encoding == "base64" {
			return Clear
		}
		return Skip
	})
}

// ClearEnvTemplates returns a rule that clears env example files whose
// values are all empty. Templates with filled-in values keep going down
// the chain and trip the secret rules like any other file.
func ClearEnvTemplates() FileRule {
	rule := FileRuleFunc(func(_ context.Context, f *helix.GeneratedFile) error {
		for _, line := range strings.Split(string(f.Content), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if _, value, found := strings.Cut(line, "="); found && strings.TrimSpace(value) != "" {
				return Skip
			}
		}
		return Clearf("env template %s has no values", f.Path)
	})
	return OnPaths(rule, ".env.example", ".env.sample", ".env.template")
}

// DetectPrivateKeys returns a rule reporting embedded private key blocks.
func DetectPrivateKeys() FileRule {
	return FileRuleFunc(func(_ context.Context, f *helix.GeneratedFile) error {
		if privateKeyPattern.Match(f.Content) {
			return Reportf("embedded private key")
		}
		return Skip
	})
}

// DetectCredentials returns a rule reporting provider credentials with a
// recognizable prefix, such as AWS access keys or Stripe live keys.
func DetectCredentials() FileRule {
	return FileRuleFunc(func(_ context.Context, f *helix.GeneratedFile) error {
		for _, pattern := range credentialPatterns {
			if match := pattern.Find(f.Content); match != nil {
				return Reportf("credential matching %q", pattern.String())
			}
		}
		return Skip
	})
}

// DetectAssignedSecrets returns a rule reporting key or token variables
// assigned a long literal value.
func DetectAssignedSecrets() FileRule {
	return FileRuleFunc(func(_ context.Context, f *helix.GeneratedFile) error {
		if match := assignedSecretPattern.Find(f.Content); match != nil {
			name, _, _ := strings.Cut(string(match), "=")
			name, _, _ = strings.Cut(name, ":")
			return Reportf("hardcoded value assigned to %s", strings.TrimSpace(name))
		}
		return Skip
	})
}

// FlagInsecureURLs returns a rule flagging plain-HTTP URLs outside of
// localhost. Local development hosts are routinely plain HTTP.
func FlagInsecureURLs() FileRule {
	return FileRuleFunc(func(_ context.Context, f *helix.GeneratedFile) error {
		for _, match := range insecureURLPattern.FindAll(f.Content, -1) {
			url := string(match)
			if strings.Contains(url, "localhost") || strings.Contains(url, "127.0.0.1") {
				continue
			}
			return Warnf("insecure url %s", url)
		}
		return Skip
	})
}

// FlagCurlPipeShell returns a rule flagging install scripts that pipe a
// download straight into a shell.
func FlagCurlPipeShell() FileRule {
	pattern := regexp.MustCompile(`(curl|wget)[^\n|]*\|\s*(ba)?sh`)
	return FileRuleFunc(func(_ context.Context, f *helix.GeneratedFile) error {
		if pattern.Match(f.Content) {
			return Warnf("download piped into a shell")
		}
		return Skip
	})
}
