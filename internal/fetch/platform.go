package fetch

import (
	"net/url"
	"strings"
)

// Platform is a publishing platform with a known page layout.
type Platform string

// Known platforms.
const (
	PlatformSubstack  Platform = "substack"
	PlatformMedium    Platform = "medium"
	PlatformWordPress Platform = "wordpress"
	PlatformGhost     Platform = "ghost"
	PlatformUnknown   Platform = "unknown"
)

// DetectPlatform identifies the publishing platform from a URL host. Self-hosted
// WordPress and Ghost sites are only recognised on their hosted domains.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case host == "substack.com" || strings.HasSuffix(host, ".substack.com"):
		return PlatformSubstack
	case host == "medium.com" || strings.HasSuffix(host, ".medium.com"):
		return PlatformMedium
	case strings.HasSuffix(host, ".wordpress.com"):
		return PlatformWordPress
	case strings.HasSuffix(host, ".ghost.io"):
		return PlatformGhost
	default:
		return PlatformUnknown
	}
}

// PlatformContentSelectors returns content selectors for a platform, most specific first.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformSubstack:
		return append([]string{".available-content", ".body.markup"}, DefaultTextSelectors()...)
	case PlatformMedium:
		return append([]string{"article section", "article"}, DefaultTextSelectors()...)
	case PlatformWordPress:
		return append([]string{".entry-content", ".post-content"}, DefaultTextSelectors()...)
	case PlatformGhost:
		return append([]string{".gh-content", ".post-full-content"}, DefaultTextSelectors()...)
	default:
		return DefaultTextSelectors()
	}
}

// PlatformNoiseSelectors returns elements to strip before text extraction.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		".social-share",
		".share-buttons",
		".related-posts",
		".comments",
		"#comments",
		".cookie-consent",
		".gdpr-notice",
		".subscribe",
	}

	switch platform {
	case PlatformSubstack:
		return append(common, ".subscription-widget-wrap", ".post-footer", ".button-wrapper")
	case PlatformMedium:
		return append(common, "[aria-label='responses']", ".pw-multi-vote-icon")
	case PlatformWordPress:
		return append(common, ".sharedaddy", ".jp-relatedposts", ".wp-block-buttons")
	case PlatformGhost:
		return append(common, ".gh-post-upgrade-cta", ".footer-cta")
	default:
		return common
	}
}
