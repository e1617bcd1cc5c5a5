package notify

import (
	"fmt"

	"github.com/pronet/realtime/pkg/model"
)

// Render builds the user-facing title and body for a domain event.
// Unknown event types fall back to a generic line rather than being
// dropped, so a newer producer does not silence notifications.
func Render(ev model.DomainEvent) (title, body string) {
	switch ev.Type {
	case model.NotificationPostLiked:
		return "New like", fmt.Sprintf("%s liked your post", ev.ActorName)
	case model.NotificationPostCommented:
		return "New comment", fmt.Sprintf("%s commented on your post", ev.ActorName)
	case model.NotificationConnectionRequested:
		return "Connection request", fmt.Sprintf("%s wants to connect with you", ev.ActorName)
	case model.NotificationNewsletterPublished:
		return "New newsletter edition", fmt.Sprintf("%s published %q", ev.ActorName, ev.Subject)
	default:
		return "New activity", fmt.Sprintf("%s: %s", ev.ActorName, ev.Subject)
	}
}
