package notify

import (
	"context"
	"fmt"
	"github.com/mixpanel/mixpanel-go"
)

type MixpanelTracker struct {
	client *mixpanel.ApiClient
}

func NewMixpanelTracker(token string) *MixpanelTracker {
	return &MixpanelTracker{client: mixpanel.NewApiClient(token)}
}

func (t *MixpanelTracker) Track(ctx context.Context, event, distinctID string, props map[string]any) error {
	if props == nil {
		props = map[string]any{}
	}
	if err := t.client.Track(ctx, []*mixpanel.Event{t.client.NewEvent(event, distinctID, props)}); err != nil {
		return fmt.Errorf("mixpanel track %s: %w", event, err)
	}
	return nil
}
