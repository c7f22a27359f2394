package db

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zhaksylykov/wistep/internal/models"
)

// SessionFeed delivers an operator's session list whenever it changes.
// The store behind it can vary (this package polls local sqlite; a push
// store would implement the same interface).
type SessionFeed interface {
	Subscribe(operatorID string) *Subscription
}

// Subscription is a single-owner handle on a live session feed. Sessions
// carries the full current list on every change, most recent activity
// first; Errors carries classified store failures. Both close on
// Unsubscribe.
type Subscription struct {
	Sessions <-chan []models.WorkSession
	Errors   <-chan error

	sessions chan []models.WorkSession
	errs     chan error
	stop     chan struct{}
	once     sync.Once
	done     sync.WaitGroup
}

// Unsubscribe tears the feed down. Idempotent: safe to call from both view
// cleanup and logout.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() { close(s.stop) })
	s.done.Wait()
}

// PollingFeed implements SessionFeed by polling the local store.
type PollingFeed struct {
	Interval time.Duration
}

// NewPollingFeed returns a feed polling at the given interval (1s when
// zero).
func NewPollingFeed(interval time.Duration) *PollingFeed {
	if interval <= 0 {
		interval = time.Second
	}
	return &PollingFeed{Interval: interval}
}

// Subscribe starts delivering the operator's sessions. The first snapshot
// arrives immediately; later ones only when something changed.
func (f *PollingFeed) Subscribe(operatorID string) *Subscription {
	sub := &Subscription{
		sessions: make(chan []models.WorkSession, 1),
		errs:     make(chan error, 1),
		stop:     make(chan struct{}),
	}
	sub.Sessions = sub.sessions
	sub.Errors = sub.errs

	sub.done.Add(1)
	go func() {
		defer sub.done.Done()
		defer close(sub.sessions)
		defer close(sub.errs)

		ticker := time.NewTicker(f.Interval)
		defer ticker.Stop()

		var lastSig string
		for {
			snapshot, err := querySessions(operatorID)
			if err != nil {
				deliverErr(sub.errs, err)
				// Permission failures are terminal for this view; keep
				// polling through anything transient.
				if KindOf(err) == FailurePermission {
					return
				}
			} else if sig := signature(snapshot); sig != lastSig {
				lastSig = sig
				deliver(sub.sessions, snapshot)
			}

			select {
			case <-sub.stop:
				return
			case <-ticker.C:
			}
		}
	}()
	return sub
}

// ListSessions returns a one-shot snapshot of an operator's sessions,
// newest activity first. Same contract as a feed delivery.
func ListSessions(operatorID string) ([]models.WorkSession, error) {
	return querySessions(operatorID)
}

// querySessions runs the primary (index-backed) query and falls back to
// the simple single-condition query with client-side sorting when the
// index is not ready. Both paths produce the same contract: deduped,
// sorted by last activity then creation time, both descending.
func querySessions(operatorID string) ([]models.WorkSession, error) {
	sessions, err := primaryQuery(operatorID)
	if err != nil {
		if KindOf(err) != FailureIndexNotReady {
			return nil, err
		}
		sessions, err = fallbackQuery(operatorID)
		if err != nil {
			return nil, err
		}
	}

	// The store can hand the same row back twice around a write; keep the
	// first occurrence only.
	seen := make(map[uint]bool, len(sessions))
	out := sessions[:0]
	for i := range sessions {
		if seen[sessions[i].ID] {
			continue
		}
		seen[sessions[i].ID] = true
		normalize(&sessions[i])
		out = append(out, sessions[i])
	}
	sortSessions(out)
	return out, nil
}

func primaryQuery(operatorID string) ([]models.WorkSession, error) {
	var sessions []models.WorkSession
	err := DB.
		Table("work_sessions INDEXED BY idx_sessions_operator_activity").
		Where("operator_id = ? OR created_by = ? OR user_id = ?", operatorID, operatorID, operatorID).
		Where("deleted_at IS NULL").
		Order("last_updated DESC, created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, Classify(err)
	}
	return sessions, nil
}

func fallbackQuery(operatorID string) ([]models.WorkSession, error) {
	var sessions []models.WorkSession
	err := DB.
		Where("operator_id = ? OR created_by = ? OR user_id = ?", operatorID, operatorID, operatorID).
		Find(&sessions).Error
	if err != nil {
		return nil, Classify(err)
	}
	return sessions, nil
}

func sortSessions(sessions []models.WorkSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].LastUpdated.Equal(sessions[j].LastUpdated) {
			return sessions[i].LastUpdated.After(sessions[j].LastUpdated)
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
}

// signature fingerprints a snapshot so unchanged polls stay silent.
func signature(sessions []models.WorkSession) string {
	var b strings.Builder
	for i := range sessions {
		fmt.Fprintf(&b, "%d:%d;", sessions[i].ID, sessions[i].LastUpdated.UnixNano())
	}
	return b.String()
}

// deliver pushes the latest snapshot, displacing an unconsumed older one:
// a slow consumer sees the newest list, not a backlog.
func deliver(ch chan []models.WorkSession, snapshot []models.WorkSession) {
	for {
		select {
		case ch <- snapshot:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func deliverErr(ch chan error, err error) {
	select {
	case ch <- err:
	default:
	}
}
