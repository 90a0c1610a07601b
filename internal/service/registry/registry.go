// Package registry owns the ordered collection of alarms: CRUD plus the
// bulk operations used by multi-select.
//
// Bulk operations are all-or-nothing. An unknown id or an alarm that
// would fail validation rejects the whole call and nothing changes.
package registry

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/logger"
	"github.com/yoruboku/alarm2/internal/repository/state"
)

// Registry is the sole owner of Alarm records. It is not safe for
// concurrent use.
type Registry struct {
	store  state.Store
	newID  func() string
	alarms []domain.Alarm
}

// Option configures a Registry.
type Option func(*Registry)

// WithIDGenerator overrides uuid-based alarm ids.
func WithIDGenerator(f func() string) Option {
	return func(r *Registry) { r.newID = f }
}

// New loads the persisted alarms. Records that no longer validate are dropped.
func New(ctx context.Context, store state.Store, opts ...Option) *Registry {
	r := &Registry{store: store, newID: uuid.NewString}

	for _, opt := range opts {
		opt(r)
	}

	var recovered []domain.Alarm
	if !state.LoadJSON(ctx, store, state.KeyAlarms, &recovered) {
		return r
	}

	seen := make(map[string]struct{}, len(recovered))

	for i := range recovered {
		a := &recovered[i]

		_, duplicate := seen[a.ID]
		if a.ID == "" || duplicate {
			logger.WarnKV(ctx, "Alarm record without a unique id dropped", "index", i)
			continue
		}

		if err := a.Validate(); err != nil {
			logger.WarnKV(ctx, "Invalid alarm record dropped", "alarm_id", a.ID, "error", err)
			continue
		}

		seen[a.ID] = struct{}{}
		r.alarms = append(r.alarms, *a)
	}

	return r
}

// List returns copies of all alarms in registry order.
func (r *Registry) List() []domain.Alarm {
	result := make([]domain.Alarm, 0, len(r.alarms))
	for i := range r.alarms {
		result = append(result, *r.alarms[i].Clone())
	}

	return result
}

// Get returns a copy of one alarm.
func (r *Registry) Get(id string) (domain.Alarm, error) {
	i := r.indexOf(id)
	if i < 0 {
		return domain.Alarm{}, fmt.Errorf("alarm %q: %w", id, domain.ErrNotFound)
	}

	return *r.alarms[i].Clone(), nil
}

// Create validates a, assigns it a fresh id and appends it.
func (r *Registry) Create(ctx context.Context, a domain.Alarm) (domain.Alarm, error) {
	created := a.Clone()
	created.ID = r.newID()

	if err := created.Validate(); err != nil {
		return domain.Alarm{}, err
	}

	r.commit(ctx, append(r.List(), *created))
	logger.InfoKV(ctx, "Alarm created", "alarm_id", created.ID, "time", created.Time)

	return *created.Clone(), nil
}

// Update replaces the alarm with the same id. Changing the time clears
// a pending skip date.
func (r *Registry) Update(ctx context.Context, a domain.Alarm) (domain.Alarm, error) {
	i := r.indexOf(a.ID)
	if i < 0 {
		return domain.Alarm{}, fmt.Errorf("alarm %q: %w", a.ID, domain.ErrNotFound)
	}

	updated := a.Clone()
	if updated.Time != r.alarms[i].Time {
		updated.SkipDate = ""
	}

	if err := updated.Validate(); err != nil {
		return domain.Alarm{}, err
	}

	next := r.List()
	next[i] = *updated
	r.commit(ctx, next)

	return *updated.Clone(), nil
}

// Delete removes every alarm in ids.
func (r *Registry) Delete(ctx context.Context, ids []string) error {
	if err := r.checkIDs(ids); err != nil {
		return err
	}

	next := slices.DeleteFunc(r.List(), func(a domain.Alarm) bool {
		return slices.Contains(ids, a.ID)
	})
	r.commit(ctx, next)
	logger.InfoKV(ctx, "Alarms deleted", "alarm_ids", ids)

	return nil
}

// SetEnabled switches every alarm in ids on or off and clears skip dates.
func (r *Registry) SetEnabled(ctx context.Context, ids []string, enabled bool) error {
	return r.apply(ctx, ids, func(a *domain.Alarm) {
		a.Enabled = enabled
		a.SkipDate = ""
	})
}

// SkipToday makes every alarm in ids skip the calendar date of today,
// which must already be in the scheduling zone.
func (r *Registry) SkipToday(ctx context.Context, ids []string, today time.Time) error {
	date := today.Format(time.DateOnly)

	return r.apply(ctx, ids, func(a *domain.Alarm) {
		a.SkipDate = date
	})
}

// Retag sets tone and/or volume on every alarm in ids. Nil leaves the field as is.
func (r *Registry) Retag(ctx context.Context, ids []string, tone *domain.Tone, volume *int) error {
	return r.apply(ctx, ids, func(a *domain.Alarm) {
		if tone != nil {
			a.Tone = *tone
			if *tone != domain.ToneCustom {
				a.CustomAudioReference = ""
			}
		}

		if volume != nil {
			a.Volume = *volume
		}
	})
}

// Duplicate appends a copy with a fresh id for every alarm in ids and
// returns the copies in ids order.
func (r *Registry) Duplicate(ctx context.Context, ids []string) ([]domain.Alarm, error) {
	if err := r.checkIDs(ids); err != nil {
		return nil, err
	}

	next := r.List()
	copies := make([]domain.Alarm, 0, len(ids))

	for _, id := range ids {
		duplicate := r.alarms[r.indexOf(id)].Clone()
		duplicate.ID = r.newID()
		copies = append(copies, *duplicate)
	}

	r.commit(ctx, append(next, copies...))

	return copies, nil
}

// apply runs mutate on copies of the selected alarms and commits only if
// all of them still validate.
func (r *Registry) apply(ctx context.Context, ids []string, mutate func(*domain.Alarm)) error {
	if err := r.checkIDs(ids); err != nil {
		return err
	}

	next := r.List()

	for i := range next {
		if !slices.Contains(ids, next[i].ID) {
			continue
		}

		mutate(&next[i])

		if err := next[i].Validate(); err != nil {
			return fmt.Errorf("alarm %q: %w", next[i].ID, err)
		}
	}

	r.commit(ctx, next)

	return nil
}

func (r *Registry) checkIDs(ids []string) error {
	for _, id := range ids {
		if r.indexOf(id) < 0 {
			return fmt.Errorf("alarm %q: %w", id, domain.ErrNotFound)
		}
	}

	return nil
}

func (r *Registry) indexOf(id string) int {
	return slices.IndexFunc(r.alarms, func(a domain.Alarm) bool { return a.ID == id })
}

func (r *Registry) commit(ctx context.Context, next []domain.Alarm) {
	r.alarms = next

	//nolint:errcheck // SaveJSON logs; in-memory state stays authoritative.
	state.SaveJSON(ctx, r.store, state.KeyAlarms, r.alarms)
}
