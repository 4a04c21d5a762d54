package trial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Store is one server-side copy of trial state.
type Store interface {
	Name() string
	Load(ctx context.Context, fingerprint string) (*Status, error)
	Save(ctx context.Context, s *Status) error
}

type Service struct {
	stores []Store
	cookie *CookieCodec
	limit  int
	ttl    time.Duration
	now    func() time.Time
}

// NewService mirrors state across stores in the given order.
func NewService(limit int, ttl time.Duration, cookie *CookieCodec, stores ...Store) *Service {
	if limit <= 0 {
		limit = 3
	}
	return &Service{stores: stores, cookie: cookie, limit: limit, ttl: ttl, now: time.Now}
}

func (s *Service) Limit() int { return s.limit }

func (s *Service) fresh(fingerprint string) *Status {
	now := s.now()
	return &Status{
		Fingerprint: fingerprint,
		Remaining:   s.limit,
		Limit:       s.limit,
		Actions:     []Action{},
		Version:     Version,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
}

// Resolve reads every copy and returns the newest usable one, or a fresh
// trial. The cookie copy only counts when it belongs to fingerprint.
func (s *Service) Resolve(ctx context.Context, fingerprint, cookie string) *Status {
	now := s.now()
	var best *Status
	consider := func(st *Status, source string) {
		if st == nil || st.Fingerprint != fingerprint {
			return
		}
		if !st.Usable(now) {
			slog.Debug("discarding stale trial copy", "source", source, "version", st.Version)
			return
		}
		if best == nil || st.UpdatedAt.After(best.UpdatedAt) {
			best = st
		}
	}

	for _, store := range s.stores {
		st, err := store.Load(ctx, fingerprint)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				slog.Warn("trial store read failed", "store", store.Name(), "error", err)
			}
			continue
		}
		consider(st, store.Name())
	}
	if cookie != "" && s.cookie != nil {
		if st, err := s.cookie.Decode(cookie); err == nil {
			// The cookie never carries the action log.
			if best != nil {
				st.Actions = best.Actions
			}
			consider(st, "cookie")
		}
	}

	if best == nil {
		return s.fresh(fingerprint)
	}
	if best.Actions == nil {
		best.Actions = []Action{}
	}
	return best
}

// Save writes st to every store. It fails only when no store accepted it.
func (s *Service) Save(ctx context.Context, st *Status) error {
	var errs []error
	for _, store := range s.stores {
		if err := store.Save(ctx, st); err != nil {
			slog.Warn("trial store write failed", "store", store.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
		}
	}
	if len(s.stores) > 0 && len(errs) == len(s.stores) {
		return fmt.Errorf("failed to persist trial: %w", errors.Join(errs...))
	}
	return nil
}

// Consume spends one trial action.
func (s *Service) Consume(ctx context.Context, fingerprint, cookie, action, resource string) (*Status, error) {
	if !ValidAction(action) {
		return nil, ErrInvalidAction
	}
	st := s.Resolve(ctx, fingerprint, cookie)
	if st.ConvertedUserID != nil {
		return st, ErrConverted
	}
	if st.Exhausted() {
		return st, ErrExhausted
	}

	now := s.now()
	st.Remaining--
	st.Actions = append(st.Actions, Action{Type: action, At: now, Resource: resource})
	st.UpdatedAt = now

	if err := s.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Claim links the trial to a freshly signed-in account. Claiming twice for
// the same user is a no-op.
func (s *Service) Claim(ctx context.Context, fingerprint, cookie string, userID uuid.UUID) (*Status, error) {
	st := s.Resolve(ctx, fingerprint, cookie)
	if st.ConvertedUserID != nil {
		if *st.ConvertedUserID == userID {
			return st, nil
		}
		return st, ErrConverted
	}
	st.ConvertedUserID = &userID
	st.UpdatedAt = s.now()
	if err := s.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Reset overwrites every copy with a fresh trial. The new record is newer
// than any cookie the visitor holds, so it wins on the next Resolve.
func (s *Service) Reset(ctx context.Context, fingerprint string) (*Status, error) {
	st := s.fresh(fingerprint)
	if err := s.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Cookie encodes st for the Set-Cookie header.
func (s *Service) Cookie(st *Status) (string, error) {
	if s.cookie == nil {
		return "", nil
	}
	return s.cookie.Encode(st)
}
