package domain

import "fmt"

// Platform identifies a streaming platform that accounts can be linked to.
type Platform string

const (
	PlatformTwitch  Platform = "twitch"
	PlatformYouTube Platform = "youtube"
	PlatformKick    Platform = "kick"
)

// KnownPlatforms returns every platform the service has an adapter definition for.
func KnownPlatforms() []Platform {
	return []Platform{PlatformTwitch, PlatformYouTube, PlatformKick}
}

// IsKnown reports whether p is one of the known platform identifiers.
func (p Platform) IsKnown() bool {
	for _, known := range KnownPlatforms() {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePlatform converts a raw identifier (usually a path segment) into a Platform.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	if !p.IsKnown() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, s)
	}
	return p, nil
}

// DisplayName returns a human readable platform name.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformTwitch:
		return "Twitch"
	case PlatformYouTube:
		return "YouTube"
	case PlatformKick:
		return "Kick"
	default:
		return string(p)
	}
}

// Profile is the minimal identity a platform returns for a linked account.
type Profile struct {
	PlatformUserID string `json:"platformUserId"`
	Handle         string `json:"handle"`
}
