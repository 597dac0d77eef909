// Package draw runs and records lotteries for free items.
//
// A draw reads the pending requests once, shuffles them in memory and
// commits the result in a single transaction keyed by item ID. A second
// draw for the same item returns the stored result instead of drawing again.
package draw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/freebies-japan/api/internal/lottery"
	applog "github.com/freebies-japan/api/internal/platform/logging"
	"github.com/freebies-japan/api/internal/platform/metrics"
	"github.com/freebies-japan/api/internal/service/actor"
	"github.com/freebies-japan/api/internal/service/item"
	"github.com/freebies-japan/api/internal/service/notification"
)

// Service errors
var (
	ErrNotFound            = errors.New("lottery result not found")
	ErrForbidden           = errors.New("not allowed to draw this item")
	ErrNotDrawable         = errors.New("item is not open for a draw")
	ErrNoParticipants      = errors.New("item has no pending requests")
	ErrParticipantsChanged = errors.New("requests changed during draw")
)

const (
	// Collection holds one result document per drawn item.
	Collection = "lotteries"
	// PageSize is the page size used to read participants.
	PageSize = 300
	// MaxAttempts bounds retries after ErrParticipantsChanged.
	MaxAttempts = 3
)

// Result is a committed draw. DonorID is copied from the item so readers can
// tell who may see the winners.
type Result struct {
	ItemID           string
	DonorID          string
	Winners          []string
	ParticipantCount int
	Seed             string
	DrawnAt          time.Time
	DrawnBy          string
	Replayed         bool
}

// Params for a draw. Zero Winners uses the configured default; a nil Seed
// draws a random one.
type Params struct {
	Winners int
	Seed    *string
}

// Service defines draw operations.
type Service interface {
	Draw(ctx context.Context, a actor.Actor, itemID string, params Params) (*Result, error)
	Get(ctx context.Context, itemID string) (*Result, error)
}

// Store is the persistence a draw needs.
type Store interface {
	GetItem(ctx context.Context, itemID string) (*item.Item, error)
	GetResult(ctx context.Context, itemID string) (*Result, error)
	// Participants returns the IDs of users with a pending request.
	Participants(ctx context.Context, itemID string) ([]string, error)
	// Commit stores res, moves the item to drawn and marks the winners'
	// requests selected. If a result already exists it is returned with
	// Replayed set and nothing is written.
	Commit(ctx context.Context, res *Result) (*Result, error)
	// MarkLosers marks the given users' requests not_selected.
	MarkLosers(ctx context.Context, itemID string, userIDs []string) error
}

// Drawer implements Service on top of a Store.
type Drawer struct {
	store          Store
	notifier       notification.Notifier
	defaultWinners int
	now            func() time.Time
}

// NewService creates a Drawer. defaultWinners below 1 is treated as 1.
func NewService(store Store, notifier notification.Notifier, defaultWinners int) *Drawer {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Drawer{
		store:          store,
		notifier:       notifier,
		defaultWinners: max(defaultWinners, 1),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the committed result for itemID. Results stored without a
// donor take it from the item.
func (d *Drawer) Get(ctx context.Context, itemID string) (*Result, error) {
	res, err := d.store.GetResult(ctx, itemID)
	if err != nil || res.DonorID != "" {
		return res, err
	}
	it, err := d.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	res.DonorID = it.DonorID
	return res, nil
}

// Draw picks winners for itemID, retrying when requests change between the
// participant read and the commit.
func (d *Drawer) Draw(ctx context.Context, a actor.Actor, itemID string, params Params) (*Result, error) {
	start := time.Now()
	trigger := "manual"
	if a.UID == actor.SystemUID {
		trigger = "scheduled"
	}

	var (
		res *Result
		err error
	)
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		res, err = d.attempt(ctx, a, itemID, params)
		if !errors.Is(err, ErrParticipantsChanged) {
			break
		}
		applog.LogWarn(ctx, "participants changed during draw, retrying",
			zap.String("item_id", itemID), zap.Int("attempt", attempt))
	}

	metrics.ObserveDraw(trigger, outcome(res, err), time.Since(start))
	details := map[string]any{"trigger": trigger}
	if res != nil {
		details["winners"] = len(res.Winners)
		details["participants"] = res.ParticipantCount
		details["replayed"] = res.Replayed
	}
	applog.AuditResult(ctx, applog.AuditEvent{
		Action:       "draw",
		ActorID:      a.UID,
		ResourceType: "lottery",
		ResourceID:   itemID,
		Details:      details,
	}, err, categorizeError)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (d *Drawer) attempt(ctx context.Context, a actor.Actor, itemID string, params Params) (*Result, error) {
	it, err := d.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !a.CanManage(it.DonorID) {
		return nil, ErrForbidden
	}

	existing, err := d.store.GetResult(ctx, itemID)
	switch {
	case err == nil:
		return d.replay(ctx, it, existing)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	if it.Kind != item.KindFree || it.Status != item.StatusAvailable {
		return nil, ErrNotDrawable
	}

	participants, err := d.store.Participants(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("read participants: %w", err)
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	seed, err := resolveSeed(params.Seed)
	if err != nil {
		return nil, err
	}
	k := params.Winners
	if k <= 0 {
		k = d.defaultWinners
	}
	winners := lottery.Draw(participants, k, seed)

	committed, err := d.store.Commit(ctx, &Result{
		ItemID:           itemID,
		Winners:          winners,
		ParticipantCount: len(participants),
		Seed:             lottery.FormatSeed(seed),
		DrawnAt:          d.now(),
		DrawnBy:          a.UID,
	})
	if err != nil {
		return nil, err
	}
	if committed.Replayed {
		return d.replay(ctx, it, committed)
	}

	losers := without(participants, winners)
	if !d.markLosers(ctx, itemID, losers) {
		losers = nil
	}
	d.announce(ctx, it, winners, losers)
	return committed, nil
}

// replay finishes a draw that was committed earlier: requests still pending
// lost and are marked as such.
func (d *Drawer) replay(ctx context.Context, it *item.Item, res *Result) (*Result, error) {
	res.Replayed = true
	if res.DonorID == "" {
		res.DonorID = it.DonorID
	}
	pending, err := d.store.Participants(ctx, it.ID)
	if err != nil {
		applog.LogError(ctx, "read unmarked losers", err, zap.String("item_id", it.ID))
		return res, nil
	}
	losers := without(pending, res.Winners)
	if len(losers) > 0 && d.markLosers(ctx, it.ID, losers) {
		d.announce(ctx, it, nil, losers)
	}
	return res, nil
}

// Loser updates happen after the commit. Failures are logged and reported
// as false; losers are only told once their requests are marked, and the
// next call for the item replays whatever is still pending.
func (d *Drawer) markLosers(ctx context.Context, itemID string, losers []string) bool {
	if len(losers) == 0 {
		return true
	}
	if err := d.store.MarkLosers(ctx, itemID, losers); err != nil {
		applog.LogError(ctx, "mark lottery losers", err,
			zap.String("item_id", itemID), zap.Int("losers", len(losers)))
		return false
	}
	return true
}

func (d *Drawer) announce(ctx context.Context, it *item.Item, winners, losers []string) {
	if len(winners) > 0 {
		d.notifier.Notify(ctx, notification.Event{
			Kind:      notification.KindLotteryWon,
			UserIDs:   winners,
			ItemID:    it.ID,
			ItemTitle: it.Title,
		})
	}
	if len(losers) > 0 {
		d.notifier.Notify(ctx, notification.Event{
			Kind:      notification.KindLotteryLost,
			UserIDs:   losers,
			ItemID:    it.ID,
			ItemTitle: it.Title,
		})
	}
}

func resolveSeed(s *string) (uint64, error) {
	if s != nil && *s != "" {
		return lottery.SeedFromString(*s), nil
	}
	seed, err := lottery.RandomSeed()
	if err != nil {
		return 0, fmt.Errorf("random seed: %w", err)
	}
	return seed, nil
}

func without(all, remove []string) []string {
	skip := make(map[string]struct{}, len(remove))
	for _, id := range remove {
		skip[id] = struct{}{}
	}
	out := make([]string, 0, len(all))
	for _, id := range all {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func outcome(res *Result, err error) string {
	switch {
	case err == nil && res.Replayed:
		return "replayed"
	case err == nil:
		return "drawn"
	case errors.Is(err, ErrNoParticipants):
		return "no_participants"
	case errors.Is(err, ErrParticipantsChanged):
		return "conflict"
	default:
		return "error"
	}
}

func categorizeError(err error) string {
	switch {
	case errors.Is(err, item.ErrNotFound), errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotDrawable), errors.Is(err, item.ErrInvalidTransition):
		return "not_drawable"
	case errors.Is(err, ErrNoParticipants):
		return "no_participants"
	case errors.Is(err, ErrParticipantsChanged):
		return "participants_changed"
	default:
		return "internal_error"
	}
}

var _ Service = (*Drawer)(nil)
