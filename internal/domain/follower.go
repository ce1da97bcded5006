package domain

// Follower records that a remote identity follows a local Entity.
// Identifier always holds the canonical identity produced by discovery.
type Follower struct {
	ID               string          `json:"id"`
	EntityID         string          `json:"-"`
	Identifier       string          `json:"identifier"`
	Permissions      map[string]bool `json:"permissions"`
	Licenses         []string        `json:"licenses"`
	Types            []string        `json:"types"`
	NotificationPath string          `json:"notification_path"`
}

// FollowDetails is the request body of a follow handshake.
type FollowDetails struct {
	Entity           string   `json:"entity"`
	NotificationPath string   `json:"notification_path"`
	Types            []string `json:"types"`
	Licenses         []string `json:"licenses"`
}

// FollowerUpdate carries a partial update; nil fields are left untouched.
type FollowerUpdate struct {
	Entity           *string          `json:"entity,omitempty"`
	Permissions      *map[string]bool `json:"permissions,omitempty"`
	Licenses         *[]string        `json:"licenses,omitempty"`
	Types            *[]string        `json:"types,omitempty"`
	NotificationPath *string          `json:"notification_path,omitempty"`
}

func DefaultPermissions() map[string]bool {
	return map[string]bool{"public": true}
}
