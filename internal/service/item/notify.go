package item

import (
	"context"

	"github.com/freebies-japan/api/internal/service/actor"
	"github.com/freebies-japan/api/internal/service/notification"
)

// WithNotifications wraps svc so that moderation and shipping changes are
// announced through n after they are stored.
func WithNotifications(svc Service, n notification.Notifier) Service {
	return &notifying{Service: svc, notifier: n}
}

type notifying struct {
	Service
	notifier notification.Notifier
}

func (s *notifying) Review(ctx context.Context, a actor.Actor, itemID string, params ReviewParams) (*Item, error) {
	it, err := s.Service.Review(ctx, a, itemID, params)
	if err != nil {
		return nil, err
	}
	kind := notification.KindItemRejected
	if it.Status == StatusAvailable {
		kind = notification.KindItemApproved
	}
	s.notifier.Notify(ctx, notification.Event{
		Kind:      kind,
		UserIDs:   []string{it.DonorID},
		ItemID:    it.ID,
		ItemTitle: it.Title,
		Note:      it.ReviewNote,
	})
	return it, nil
}

func (s *notifying) UpdateDelivery(ctx context.Context, a actor.Actor, itemID string, params DeliveryParams) (*Item, error) {
	it, err := s.Service.UpdateDelivery(ctx, a, itemID, params)
	if err != nil {
		return nil, err
	}
	if it.Status == StatusShipped {
		s.notifier.Notify(ctx, notification.Event{
			Kind:           notification.KindItemShipped,
			UserIDs:        Recipients(it),
			ItemID:         it.ID,
			ItemTitle:      it.Title,
			TrackingNumber: it.TrackingNumber,
		})
	}
	return it, nil
}

// Recipients returns the users who receive a drawn or sold item.
func Recipients(it *Item) []string {
	if it.Kind == KindPremium {
		if it.BuyerID == "" {
			return nil
		}
		return []string{it.BuyerID}
	}
	return it.WinnerIDs
}
