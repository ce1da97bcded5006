package tent

const (
	// CoreProfileSchema is the profile type every discoverable entity must publish.
	CoreProfileSchema string = "https://tent.io/types/info/core/v0.1.0"

	// ProfileRel is the Link relation pointing at an entity's profile document.
	ProfileRel string = "https://tent.io/rels/profile"

	MIMEType string = "application/vnd.tent.v0+json"
)

// CoreProfile is the block stored under CoreProfileSchema.
type CoreProfile struct {
	Entity   string   `json:"entity"`
	Licenses []string `json:"licenses"`
	Servers  []string `json:"servers"`
}

// ProfileDocument maps profile schemas to their raw content.
type ProfileDocument map[string]any

// Core returns the canonical entity URL of the core profile block.
func (p ProfileDocument) Core() (string, bool) {
	block, ok := p[CoreProfileSchema]
	if !ok {
		return "", false
	}
	m, ok := block.(map[string]any)
	if !ok {
		return "", true
	}
	entity, _ := m["entity"].(string)
	return entity, true
}

type Event struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	Body   any    `json:"body"`
}

const (
	EventPostCreated          = "post.created"
	EventNotificationReceived = "notification.received"
)
