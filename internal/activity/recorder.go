// Package activity turns identity and ledger events into a feed of recent
// activity for administrators.
package activity

import (
	"context"
	"fmt"
	"log"

	"github.com/GoldenTiger720/chroma-money-link-44/shared/cqrs"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/events"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/models"
)

const defaultRecentLimit = 50

type Recorder struct {
	feed Feed
}

func NewRecorder(feed Feed) *Recorder {
	return &Recorder{feed: feed}
}

// HandleEvent is the subscriber handler for both event streams.
// Unknown event types are ignored.
func (r *Recorder) HandleEvent(ctx context.Context, event events.Event) error {
	summary, err := summarize(event)
	if err != nil {
		return err
	}
	if summary == "" {
		return nil
	}
	log.Printf("Activity: %s", summary)
	return r.feed.Append(ctx, models.Activity{
		Type:      event.Type,
		Summary:   summary,
		Timestamp: event.Timestamp,
	})
}

func (r *Recorder) RecentActivity(ctx context.Context, q cqrs.RecentActivityQuery) ([]models.Activity, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return r.feed.Recent(ctx, limit)
}

func summarize(event events.Event) (string, error) {
	switch event.Type {
	case events.UserRegistered, events.UserLoggedIn, events.UserLoggedOut, events.UserVerified:
		var data events.UserEvent
		if err := event.Decode(&data); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (%s) %s", data.Name, data.Email, userVerbs[event.Type]), nil
	case events.TransactionCreated:
		var data events.TransactionCreatedEvent
		if err := event.Decode(&data); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s sent %s to %s", data.SenderName, data.Amount.StringFixed(2), data.RecipientName), nil
	}
	return "", nil
}

var userVerbs = map[string]string{
	events.UserRegistered: "registered",
	events.UserLoggedIn:   "logged in",
	events.UserLoggedOut:  "logged out",
	events.UserVerified:   "verified their account",
}
