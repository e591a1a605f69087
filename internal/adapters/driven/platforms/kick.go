package platforms

import (
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/streamlink/internal/core/domain"
)

// Kick returns the Kick definition.
func Kick() Definition {
	return Definition{
		Platform: domain.PlatformKick,
		Endpoints: Endpoints{
			AuthURL:    "https://id.kick.com/oauth/authorize",
			TokenURL:   "https://id.kick.com/oauth/token",
			ProfileURL: "https://api.kick.com/public/v1/users",
		},
		Scopes:        []string{"user:read", "channel:read"},
		AuthStyle:     oauth2.AuthStyleInParams,
		DecodeProfile: decodeKickProfile,
	}
}

type kickUsersResponse struct {
	Data []struct {
		UserID json.Number `json:"user_id"`
		Name   string      `json:"name"`
	} `json:"data"`
}

func decodeKickProfile(body []byte) (*domain.Profile, error) {
	var resp kickUsersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode users response: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].UserID == "" {
		return nil, fmt.Errorf("users response has no user")
	}

	user := resp.Data[0]
	return &domain.Profile{PlatformUserID: user.UserID.String(), Handle: user.Name}, nil
}
