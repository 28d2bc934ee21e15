package validate

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/claimtrace/internal/model"
)

// AuthorityClassifier classifies source URLs into authority tiers
type AuthorityClassifier struct {
	suffixes     []domainRule // longest suffix first
	pathPatterns []pathRule
}

type domainRule struct {
	suffix string
	tier   model.AuthorityTier
}

type pathRule struct {
	pattern *regexp.Regexp
	tier    model.AuthorityTier
}

// institutional suffixes that imply a primary source when nothing more
// specific matches
var primarySuffixes = []string{"gov", "mil", "edu", "ac.uk", "gov.uk", "europa.eu", "int"}

// NewAuthorityClassifier creates a new authority classifier. Explicit
// domain_map entries outrank the primary/secondary lists, and the most
// specific (longest) suffix wins within each.
func NewAuthorityClassifier(config *model.AuthorityConfig) *AuthorityClassifier {
	if config == nil {
		def := model.DefaultConfig().Authority
		config = &def
	}

	c := &AuthorityClassifier{}
	seen := make(map[string]bool)
	addRule := func(domain string, tier model.AuthorityTier) {
		domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "www.")
		if domain == "" || seen[domain] {
			return
		}
		seen[domain] = true
		c.suffixes = append(c.suffixes, domainRule{suffix: domain, tier: tier})
	}

	for domain, tier := range config.DomainMap {
		addRule(domain, ParseTier(tier))
	}
	for _, domain := range config.PrimaryDomains {
		addRule(domain, model.TierPrimary)
	}
	for _, domain := range config.SecondaryDomains {
		addRule(domain, model.TierSecondary)
	}
	sort.SliceStable(c.suffixes, func(i, j int) bool {
		return len(c.suffixes[i].suffix) > len(c.suffixes[j].suffix)
	})

	for _, pp := range config.PathPatterns {
		re, err := regexp.Compile(pp.Pattern)
		if err != nil {
			continue
		}
		c.pathPatterns = append(c.pathPatterns, pathRule{pattern: re, tier: ParseTier(pp.Tier)})
	}

	return c
}

// Classify classifies a URL into an authority tier. URLs without a host
// are TierUnknown.
func (a *AuthorityClassifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Hostname() == "" {
		return model.TierUnknown
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	for _, rule := range a.suffixes {
		if matchesDomain(host, rule.suffix) {
			return rule.tier
		}
	}

	for _, rule := range a.pathPatterns {
		if rule.pattern.MatchString(parsed.Path) {
			return rule.tier
		}
	}

	for _, suffix := range primarySuffixes {
		if matchesDomain(host, suffix) {
			return model.TierPrimary
		}
	}

	return model.TierTertiary
}

func matchesDomain(host, suffix string) bool {
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}

// ParseTier converts a tier name or number to an AuthorityTier.
// Anything unrecognised is tertiary.
func ParseTier(tier string) model.AuthorityTier {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "primary", "1":
		return model.TierPrimary
	case "secondary", "2":
		return model.TierSecondary
	default:
		return model.TierTertiary
	}
}
