package domain

// Post is content owned by an Entity. Updates replace fields in place.
// Entity is the owner's identity URL; EntityID never leaves the server.
type Post struct {
	ID       string `json:"id"`
	EntityID string `json:"-"`
	Entity   string `json:"entity"`
	Schema   string `json:"schema"`
	Content  any    `json:"content"`
}

type PostInput struct {
	Schema  *string `json:"schema"`
	Content any     `json:"content"`
}

// DeliveryFailure describes one follower that did not accept a post.
type DeliveryFailure struct {
	FollowerID string `json:"follower"`
	URL        string `json:"url"`
	Status     int    `json:"status,omitempty"`
	Err        error  `json:"-"`
}

// DeliveryReport aggregates the outcome of a single fan-out.
type DeliveryReport struct {
	PostID    string            `json:"post"`
	Delivered []string          `json:"delivered"`
	Failed    []DeliveryFailure `json:"failed"`
}
