package domain

// Entity is a local identity that can be followed and that owns posts.
type Entity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IdentityURL string `json:"entity"`
}

// Profile is a schema tagged information block attached to an Entity.
type Profile struct {
	EntityID string `json:"-"`
	Schema   string `json:"schema"`
	Content  any    `json:"content"`
}
