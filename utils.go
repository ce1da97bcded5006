package tent

import (
	"fmt"
	"regexp"
	"strings"
)

var linkPattern = regexp.MustCompile(`^<(.+)>; rel="` + regexp.QuoteMeta(ProfileRel) + `"$`)

// ComposeLink builds the Link header value that advertises a profile URL.
func ComposeLink(profileURL string) string {
	return fmt.Sprintf(`<%s>; rel="%s"`, profileURL, ProfileRel)
}

// ParseLink extracts the profile URL from a Link header value. Only a single
// link of the exact form produced by ComposeLink is understood.
func ParseLink(value string) (string, error) {
	match := linkPattern.FindStringSubmatch(value)
	if match == nil {
		return "", fmt.Errorf("unrecognized link header: %q", value)
	}
	return match[1], nil
}

// NotificationURL joins a canonical identity and a follower's notification path.
func NotificationURL(identifier, notificationPath string) string {
	return identifier + "/" + notificationPath
}

func IdentityURL(baseURL, name string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + name
}

func ProfileURL(baseURL, name string) string {
	return IdentityURL(baseURL, name) + "/profile"
}
