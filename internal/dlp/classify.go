// Package dlp classifies outbound-network indicators in skill content: URLs
// by exfiltration shape, domains against a safe allowlist, and network calls
// in code. It shares the scanner's file-walk policy but runs independently.
package dlp

import (
	"net/url"
	"regexp"
	"strings"
)

// Tier is the risk tier of a URL or network-code finding.
type Tier string

const (
	TierCritical Tier = "CRITICAL"
	TierHigh     Tier = "HIGH"
	TierWarning  Tier = "WARNING"
	TierInfo     Tier = "INFO"
	// TierSafe marks allowlisted URLs; they are dropped, never reported.
	TierSafe Tier = "SAFE"
)

// tierRank orders tiers for presentation, most severe first.
func tierRank(t Tier) int {
	switch t {
	case TierCritical:
		return 0
	case TierHigh:
		return 1
	case TierWarning:
		return 2
	case TierInfo:
		return 3
	default:
		return 4
	}
}

// exfilPatterns are URL shapes that indicate likely covert data
// transmission. First match wins and is always Critical.
var exfilPatterns = []struct {
	reason string
	re     *regexp.Regexp
}{
	{"Base64 in URL", regexp.MustCompile(`https?://[^\s]*[?&][^=]*=(?:[A-Za-z0-9+/]{40,}={0,2})`)},
	{"Hex payload in URL", regexp.MustCompile(`(?i)https?://[^\s]*[?&][^=]*=(?:[0-9a-f]{32,})`)},
	{"IP address endpoint", regexp.MustCompile(`https?://\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)},
	{"Webhook/callback URL", regexp.MustCompile(`(?i)https?://[^\s]*/(?:webhook|callback|hook|notify|ping|beacon)[^\s]*`)},
	{"Pastebin/sharing service", regexp.MustCompile(`(?i)https?://(?:pastebin\.com|hastebin\.com|paste\.ee|dpaste\.org|ix\.io|sprunge\.us|0x0\.st|transfer\.sh|file\.io)[^\s]*`)},
	{"Request catcher", regexp.MustCompile(`(?i)https?://(?:[^\s]*\.ngrok\.|requestbin|pipedream|beeceptor|hookbin|requestcatcher)[^\s]*`)},
	{"Dynamic DNS", regexp.MustCompile(`(?i)https?://[^\s]*\.(?:duckdns\.org|no-ip\.com|dynu\.com|freedns)[^\s]*`)},
	{"URL shortener", regexp.MustCompile(`(?i)https?://(?:bit\.ly|tinyurl|t\.co|goo\.gl|is\.gd|v\.gd|rb\.gy|shorturl)[^\s]*`)},
}

// safeDomains is the built-in allowlist; subdomains match too.
var safeDomains = []string{
	"github.com", "raw.githubusercontent.com",
	"docs.anthropic.com", "api.anthropic.com",
	"openclaw.com", "clawhub.ai", "clawhub.com",
	"python.org", "pypi.org",
	"nodejs.org", "npmjs.com",
	"stackoverflow.com", "developer.mozilla.org",
	"wikipedia.org", "example.com",
}

// suspiciousTLDs flag domains whose registries are popular with throwaway
// infrastructure.
var suspiciousTLDs = []string{".xyz", ".tk", ".ml", ".ga", ".cf", ".gq", ".top", ".buzz"}

// Classifier classifies URLs against exfil shapes and the domain allowlist.
type Classifier struct {
	safe []string
}

// NewClassifier builds a classifier, extending the built-in allowlist with
// extraSafe (normalized: lowercase, leading dot stripped).
func NewClassifier(extraSafe []string) *Classifier {
	safe := append([]string(nil), safeDomains...)
	for _, d := range extraSafe {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			safe = append(safe, d)
		}
	}
	return &Classifier{safe: safe}
}

// Classify assigns a risk tier and reason to a URL. Precedence, first match
// wins: exfiltration signature → Critical; allowlisted domain → Safe;
// suspicious TLD → Warning; default → Info. Unparseable URLs are Warning.
func (c *Classifier) Classify(rawURL string) (Tier, string) {
	for _, p := range exfilPatterns {
		if p.re.MatchString(rawURL) {
			return TierCritical, p.reason
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return TierWarning, "Unparseable URL"
	}
	host := strings.ToLower(u.Hostname())

	if c.isSafeHost(host) {
		return TierSafe, "Known safe domain"
	}
	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			return TierWarning, "Suspicious TLD (" + tld + ")"
		}
	}
	return TierInfo, "External endpoint"
}

func (c *Classifier) isSafeHost(host string) bool {
	for _, d := range c.safe {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
