package platforms

import (
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/streamlink/internal/core/domain"
)

// YouTube returns the YouTube (Google) definition.
// Google only issues a refresh token for offline access with explicit consent.
func YouTube() Definition {
	return Definition{
		Platform: domain.PlatformYouTube,
		Endpoints: Endpoints{
			AuthURL:    "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:   "https://oauth2.googleapis.com/token",
			ProfileURL: "https://www.googleapis.com/youtube/v3/channels?part=snippet&mine=true",
		},
		Scopes:    []string{"https://www.googleapis.com/auth/youtube.readonly"},
		AuthStyle: oauth2.AuthStyleInParams,
		AuthParams: map[string]string{
			"access_type":            "offline",
			"prompt":                 "consent",
			"include_granted_scopes": "true",
		},
		DecodeProfile: decodeYouTubeProfile,
	}
}

type youtubeChannelsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title     string `json:"title"`
			CustomURL string `json:"customUrl"`
		} `json:"snippet"`
	} `json:"items"`
}

func decodeYouTubeProfile(body []byte) (*domain.Profile, error) {
	var resp youtubeChannelsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode channels response: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].ID == "" {
		return nil, fmt.Errorf("channels response has no channel")
	}

	channel := resp.Items[0]
	handle := channel.Snippet.CustomURL
	if handle == "" {
		handle = channel.Snippet.Title
	}
	return &domain.Profile{PlatformUserID: channel.ID, Handle: handle}, nil
}
