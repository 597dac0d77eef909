package payment

import (
	"context"

	"github.com/freebies-japan/api/internal/platform/metrics"
	"github.com/freebies-japan/api/internal/service/actor"
	"github.com/freebies-japan/api/internal/service/notification"
)

// WithEvents wraps svc so that every successful status change is counted and
// announced through n: admins hear about submissions, buyers about decisions.
func WithEvents(svc Service, n notification.Notifier) Service {
	return &withEvents{Service: svc, notifier: n}
}

type withEvents struct {
	Service
	notifier notification.Notifier
}

func (s *withEvents) Submit(ctx context.Context, a actor.Actor, itemID string, params SubmitParams) (*Payment, error) {
	p, err := s.Service.Submit(ctx, a, itemID, params)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, p, notification.KindPaymentSubmitted)
	return p, nil
}

func (s *withEvents) Approve(ctx context.Context, a actor.Actor, paymentID string) (*Payment, error) {
	p, err := s.Service.Approve(ctx, a, paymentID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, p, notification.KindPaymentApproved)
	return p, nil
}

func (s *withEvents) Reject(ctx context.Context, a actor.Actor, paymentID, reason string) (*Payment, error) {
	p, err := s.Service.Reject(ctx, a, paymentID, reason)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, p, notification.KindPaymentRejected)
	return p, nil
}

func (s *withEvents) Cancel(ctx context.Context, a actor.Actor, paymentID string) (*Payment, error) {
	p, err := s.Service.Cancel(ctx, a, paymentID)
	if err != nil {
		return nil, err
	}
	metrics.ObservePayment(string(p.Status))
	return p, nil
}

func (s *withEvents) emit(ctx context.Context, p *Payment, kind notification.Kind) {
	metrics.ObservePayment(string(p.Status))
	ev := notification.Event{
		Kind:      kind,
		ItemID:    p.ItemID,
		ItemTitle: p.ItemTitle,
		PaymentID: p.ID,
		Amount:    p.Amount,
		Note:      p.Note,
	}
	if kind == notification.KindPaymentSubmitted {
		ev.NotifyAdmin = true
	} else {
		ev.UserIDs = []string{p.BuyerID}
	}
	s.notifier.Notify(ctx, ev)
}
