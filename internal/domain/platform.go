package domain

import "strings"

// Platform constants - single source of truth
const (
	PlatformYouTube   = "youtube"
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"
	PlatformTikTok    = "tiktok"
	PlatformTwitter   = "twitter"
	PlatformGeneric   = "generic"
)

// Platform represents a supported social platform
type Platform struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	HostPatterns []string `json:"host_patterns"`
}

// platforms is ordered: more specific hosts first so that a substring match
// never routes fb.watch to the generic bucket.
var platforms = []Platform{
	{
		ID:   PlatformYouTube,
		Name: "YouTube",
		HostPatterns: []string{
			"youtube.com",
			"youtu.be",
			"m.youtube.com",
		},
	},
	{
		ID:   PlatformInstagram,
		Name: "Instagram",
		HostPatterns: []string{
			"instagram.com",
			"instagr.am",
		},
	},
	{
		ID:   PlatformFacebook,
		Name: "Facebook",
		HostPatterns: []string{
			"facebook.com",
			"fb.watch",
			"fb.com",
			"m.facebook.com",
		},
	},
	{
		ID:   PlatformTikTok,
		Name: "TikTok",
		HostPatterns: []string{
			"tiktok.com",
			"vm.tiktok.com", // Mobile share short link
		},
	},
	{
		ID:   PlatformTwitter,
		Name: "Twitter",
		HostPatterns: []string{
			"twitter.com",
			"x.com",
			"t.co",
		},
	},
}

// GetPlatforms returns the supported platform table.
func GetPlatforms() []Platform {
	return platforms
}

// GetValidPlatforms returns all platform IDs including the generic bucket.
func GetValidPlatforms() []string {
	ids := make([]string, 0, len(platforms)+1)
	for _, p := range platforms {
		ids = append(ids, p.ID)
	}
	ids = append(ids, PlatformGeneric)
	return ids
}

// DetectPlatformFromHost matches a hostname against the platform table.
// Unrecognized hosts fall into the generic bucket.
func DetectPlatformFromHost(host string) string {
	host = strings.ToLower(host)
	for _, p := range platforms {
		for _, pattern := range p.HostPatterns {
			if host == pattern || strings.HasSuffix(host, "."+pattern) {
				return p.ID
			}
		}
	}
	return PlatformGeneric
}

// SiteNameForHost returns the canonical platform name for a hostname, or the
// hostname itself (www. stripped) when the platform is unknown.
func SiteNameForHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	id := DetectPlatformFromHost(host)
	for _, p := range platforms {
		if p.ID == id {
			return p.Name
		}
	}
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "Unknown site"
	}
	return host
}

// IsValidPlatform checks if an ID names a supported platform.
func IsValidPlatform(id string) bool {
	for _, valid := range GetValidPlatforms() {
		if id == valid {
			return true
		}
	}
	return false
}
