// Package notify relays meeting completion notifications and resolves their deep links.
package notify

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	// Scheme is the app's custom URL scheme.
	Scheme = "meetmate"
	// WebHost serves universal links.
	WebHost = "meetmate.app"
)

// Link points at one meeting.
type Link struct {
	MeetingID uuid.UUID
}

// Route returns the in-app route of the meeting screen.
func (l Link) Route() string {
	return "/meeting/" + l.MeetingID.String()
}

// URL returns the custom-scheme deep link.
func (l Link) URL() string {
	return Scheme + "://meeting/" + l.MeetingID.String()
}

// ParseNotification reads the meeting_id of a push notification payload.
func ParseNotification(data map[string]any) (Link, bool) {
	raw, ok := data["meeting_id"].(string)
	if !ok {
		return Link{}, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return Link{}, false
	}
	return Link{MeetingID: id}, true
}

// ParseDeeplink accepts meetmate://meeting/{id} and https://meetmate.app/meeting/{id}.
func ParseDeeplink(raw string) (Link, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return Link{}, false
	}
	var segs []string
	switch {
	case u.Scheme == Scheme:
		// meetmate://meeting/{id} parses "meeting" as the host.
		segs = append([]string{u.Host}, splitPath(u.Path)...)
	case (u.Scheme == "https" || u.Scheme == "http") && u.Host == WebHost:
		segs = splitPath(u.Path)
	default:
		return Link{}, false
	}
	if len(segs) != 2 || segs[0] != "meeting" {
		return Link{}, false
	}
	id, err := uuid.Parse(segs[1])
	if err != nil {
		return Link{}, false
	}
	return Link{MeetingID: id}, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
