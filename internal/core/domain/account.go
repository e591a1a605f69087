package domain

import "time"

// DefaultRefreshBuffer is how long before expiry an access token is considered due for refresh.
const DefaultRefreshBuffer = 5 * time.Minute

// AccountStatus tracks whether a linked account's credentials are usable.
type AccountStatus string

const (
	// AccountStatusActive means the stored tokens can be used or refreshed.
	AccountStatusActive AccountStatus = "active"

	// AccountStatusReauthorizationRequired means refresh failed permanently and
	// the user has to run the authorization flow again.
	AccountStatusReauthorizationRequired AccountStatus = "reauthorization_required"
)

// PlatformAccount is a persisted link between a user and a platform identity.
// Tokens are stored encrypted; plaintext is only available through the token vault.
type PlatformAccount struct {
	ID             string   `json:"id"`
	UserID         string   `json:"userId"`
	Platform       Platform `json:"platform"`
	Handle         string   `json:"handle"`
	PlatformUserID string   `json:"platformUserId"`

	AccessTokenCiphertext  []byte `json:"-"`
	RefreshTokenCiphertext []byte `json:"-"`

	Scopes []string `json:"scopes"`

	// ExpiresAt is zero when the platform did not advertise an expiry.
	ExpiresAt time.Time `json:"expiresAt"`

	Status       AccountStatus `json:"status"`
	StatusReason string        `json:"statusReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AccountSummary is the safe outbound view of a linked account.
type AccountSummary struct {
	ID        string        `json:"id"`
	Platform  Platform      `json:"platform"`
	Handle    string        `json:"handle"`
	Scopes    []string      `json:"scopes"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
	Status    AccountStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// ToSummary converts PlatformAccount to AccountSummary.
func (a *PlatformAccount) ToSummary() *AccountSummary {
	s := &AccountSummary{
		ID:        a.ID,
		Platform:  a.Platform,
		Handle:    a.Handle,
		Scopes:    a.Scopes,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if s.Scopes == nil {
		s.Scopes = []string{}
	}
	if !a.ExpiresAt.IsZero() {
		expiresAt := a.ExpiresAt
		s.ExpiresAt = &expiresAt
	}
	return s
}

// Key identifies the account by its (user, platform) pair.
func (a *PlatformAccount) Key() string {
	return AccountKey(a.UserID, a.Platform)
}

// AccountKey builds the per-account key used for locking.
func AccountKey(userID string, platform Platform) string {
	return userID + ":" + string(platform)
}

// NeedsRefresh reports whether the access token expires within buffer of now.
// Accounts without an advertised expiry never need a refresh.
func (a *PlatformAccount) NeedsRefresh(now time.Time, buffer time.Duration) bool {
	if a.ExpiresAt.IsZero() {
		return false
	}
	return a.ExpiresAt.Sub(now) < buffer
}

// RequiresReauthorization reports whether the account must be linked again.
func (a *PlatformAccount) RequiresReauthorization() bool {
	return a.Status == AccountStatusReauthorizationRequired
}
