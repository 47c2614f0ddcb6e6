package session

// User is the cached snapshot of the logged-in account as returned by the
// backend. It is not authoritative: access decisions re-check /api/auth/me.
type User struct {
	Username       string `json:"username"`
	Nickname       string `json:"nickname,omitempty"`
	AvatarURL      string `json:"avatarUrl,omitempty"`
	IsAdmin        bool   `json:"isAdmin"`
	GitHubUsername string `json:"githubUsername,omitempty"`
	GitHubURL      string `json:"githubUrl,omitempty"`
}

// DisplayName returns the nickname when set, otherwise the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}
