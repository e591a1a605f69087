package platforms

import (
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/streamlink/internal/core/domain"
)

// Twitch returns the Twitch definition.
// Helix requires the client ID on every API call besides the bearer token.
func Twitch() Definition {
	return Definition{
		Platform: domain.PlatformTwitch,
		Endpoints: Endpoints{
			AuthURL:    "https://id.twitch.tv/oauth2/authorize",
			TokenURL:   "https://id.twitch.tv/oauth2/token",
			ProfileURL: "https://api.twitch.tv/helix/users",
		},
		Scopes:    []string{"user:read:email"},
		AuthStyle: oauth2.AuthStyleInParams,
		ProfileHeaders: func(h http.Header, creds Credentials) {
			h.Set("Client-Id", creds.ClientID)
		},
		DecodeProfile: decodeTwitchProfile,
	}
}

type twitchUsersResponse struct {
	Data []struct {
		ID          string `json:"id"`
		Login       string `json:"login"`
		DisplayName string `json:"display_name"`
	} `json:"data"`
}

func decodeTwitchProfile(body []byte) (*domain.Profile, error) {
	var resp twitchUsersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode users response: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].ID == "" {
		return nil, fmt.Errorf("users response has no user")
	}

	user := resp.Data[0]
	handle := user.Login
	if handle == "" {
		handle = user.DisplayName
	}
	return &domain.Profile{PlatformUserID: user.ID, Handle: handle}, nil
}
