package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/freebies-japan/api/internal/platform/email"
	applog "github.com/freebies-japan/api/internal/platform/logging"
	"github.com/freebies-japan/api/internal/platform/metrics"
	"github.com/freebies-japan/api/internal/service/profile"
)

// DefaultConcurrency bounds parallel sends for one event.
const DefaultConcurrency = 8

// ProfileGetter resolves a user's contact details.
type ProfileGetter interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
}

// EmailConfig configures an EmailNotifier.
type EmailConfig struct {
	AdminEmail  string
	AppURL      string
	Concurrency int
}

// EmailNotifier sends one email per recipient profile.
type EmailNotifier struct {
	profiles ProfileGetter
	sender   email.Sender
	cfg      EmailConfig
}

// NewEmailNotifier creates a notifier.
func NewEmailNotifier(profiles ProfileGetter, sender email.Sender, cfg EmailConfig) *EmailNotifier {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	return &EmailNotifier{profiles: profiles, sender: sender, cfg: cfg}
}

type recipient struct {
	name    string
	address string
}

type templateData struct {
	Event
	Name    string
	ItemURL string
}

// Notify sends ev to every resolvable recipient. It outlives cancellation of
// ctx so that a client disconnect after commit does not drop emails.
func (n *EmailNotifier) Notify(ctx context.Context, ev Event) {
	ctx = context.WithoutCancel(ctx)
	logger := applog.LoggerFromContext(ctx).With(
		zap.String("notification.kind", string(ev.Kind)),
		zap.String("item_id", ev.ItemID))

	tmpl := templates.Lookup(string(ev.Kind))
	if tmpl == nil {
		logger.Error("no email template for notification kind")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.cfg.Concurrency)
	for _, rcpt := range n.recipients(ctx, ev) {
		g.Go(func() error {
			err := n.send(gctx, tmpl, ev, rcpt)
			metrics.ObserveEmail(string(ev.Kind), err)
			if err != nil {
				logger.Warn("notification email failed", zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (n *EmailNotifier) recipients(ctx context.Context, ev Event) []recipient {
	var out []recipient
	seen := make(map[string]bool)
	add := func(r recipient) {
		if r.address == "" || seen[r.address] {
			return
		}
		seen[r.address] = true
		out = append(out, r)
	}
	for _, uid := range ev.UserIDs {
		p, err := n.profiles.Get(ctx, uid)
		if err != nil {
			if !errors.Is(err, profile.ErrNotFound) {
				applog.LogWarn(ctx, "profile lookup failed", zap.String("user_id", uid), zap.Error(err))
			}
			continue
		}
		add(recipient{name: p.DisplayName, address: p.Email})
	}
	if ev.NotifyAdmin {
		add(recipient{name: "Admin", address: n.cfg.AdminEmail})
	}
	return out
}

func (n *EmailNotifier) send(ctx context.Context, tmpl *template.Template, ev Event, rcpt recipient) error {
	data := templateData{Event: ev, Name: rcpt.name}
	if n.cfg.AppURL != "" && ev.ItemID != "" {
		data.ItemURL = n.cfg.AppURL + "/items/" + ev.ItemID
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render %s: %w", ev.Kind, err)
	}
	return n.sender.Send(ctx, email.Message{
		To:      []string{rcpt.address},
		Subject: Subject(ev),
		HTML:    body.String(),
	})
}

// Subject returns the email subject line for ev.
func Subject(ev Event) string {
	switch ev.Kind {
	case KindItemApproved:
		return "Your item is now listed: " + ev.ItemTitle
	case KindItemRejected:
		return "Your item was not approved: " + ev.ItemTitle
	case KindLotteryWon:
		return "You won: " + ev.ItemTitle
	case KindLotteryLost:
		return "Selection results: " + ev.ItemTitle
	case KindPaymentSubmitted:
		return "New payment awaiting approval: " + ev.ItemTitle
	case KindPaymentApproved:
		return "Payment approved: " + ev.ItemTitle
	case KindPaymentRejected:
		return "Payment rejected: " + ev.ItemTitle
	case KindItemShipped:
		return "Your item has shipped: " + ev.ItemTitle
	default:
		return "Freebies Japan"
	}
}

// formatYen renders amount with thousands separators, e.g. ¥12,000.
func formatYen(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-¥" + b.String()
	}
	return "¥" + b.String()
}

var _ Notifier = (*EmailNotifier)(nil)
