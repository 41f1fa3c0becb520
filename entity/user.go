package entity

// Identity is the remote account a delegated credential belongs to.
type Identity struct {
	ID          int64  `json:"id,omitempty"`
	Handle      string `json:"login"`
	DisplayName string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	AvatarRef   string `json:"avatar,omitempty"`
}

// Authorization is the read-only view of a session's delegated credential.
type Authorization struct {
	Authorized bool      `json:"authorized"`
	Identity   *Identity `json:"remote_user,omitempty"`
}
