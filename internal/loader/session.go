// Package loader owns the dashboard's session state: the newsletter and
// recommendation lists fetched once from the backend, the current search
// term, and the outcome of the load cycle.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"newsletter_dashboard/internal/logger"
	"newsletter_dashboard/internal/metrics"
	"newsletter_dashboard/internal/models"

	"golang.org/x/sync/errgroup"
)

// Backend is the remote surface the session reads from and writes to.
type Backend interface {
	ListNewsletters(ctx context.Context) ([]models.Newsletter, error)
	ListRecommendations(ctx context.Context) ([]models.Recommendation, error)
	DeleteNewsletter(ctx context.Context, id models.ID) error
	CreateNewsletter(ctx context.Context, n models.NewNewsletter) (*models.Newsletter, error)
}

// Status is the position of the session in its single load cycle.
type Status int

const (
	NotLoaded Status = iota
	Loading
	Ready
	Errored
)

func (s Status) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Collection names used in errors, logs and metrics.
const (
	CollectionNewsletters     = "newsletters"
	CollectionRecommendations = "recommendations"
)

var ErrAlreadyLoaded = errors.New("load cycle already ran")

// Snapshot is a consistent copy of the session state. A nil list means the
// collection was never loaded; an empty list means it loaded with no rows.
type Snapshot struct {
	Status          Status
	Newsletters     []models.Newsletter
	Recommendations []models.Recommendation
	Search          string
	FetchErrors     []*FetchError
}

// Loading reports whether the load cycle is still in flight.
func (s Snapshot) Loading() bool {
	return s.Status == Loading
}

// Session is the single owner of the dashboard state. All mutations are
// whole replacements under mu, so readers never see a partial update.
type Session struct {
	backend Backend
	metrics *metrics.Metrics
	log     *logger.Entry

	mu        sync.RWMutex
	state     Snapshot
	observers []func(Snapshot)
}

// NewSession creates an unloaded session. m may be nil.
func NewSession(b Backend, m *metrics.Metrics) *Session {
	return &Session{
		backend: b,
		metrics: m,
		log:     logger.Component("loader"),
	}
}

// Observe registers fn to receive a snapshot after every state change.
// Observers run synchronously on the mutating goroutine.
func (s *Session) Observe(fn func(Snapshot)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Load runs the load cycle: both collections are requested concurrently and
// the call returns once both have settled. A collection that fails stays
// unset and is recorded as a FetchError; the other keeps its result. The
// session ends Ready when both succeed and Errored otherwise.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Status != NotLoaded {
		s.mu.Unlock()
		return ErrAlreadyLoaded
	}
	s.state.Status = Loading
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	start := time.Now()
	var (
		newsletters     []models.Newsletter
		recommendations []models.Recommendation
		newslettersErr  error
		recommendErr    error
	)

	// A plain Group: one failed read must not cancel the other, so each
	// goroutine records its failure and reports nil to the group.
	var g errgroup.Group
	g.Go(func() error {
		list, err := s.backend.ListNewsletters(ctx)
		if err != nil {
			newslettersErr = &FetchError{Collection: CollectionNewsletters, Err: err}
			return nil
		}
		newsletters = ensureNewsletters(list)
		return nil
	})
	g.Go(func() error {
		list, err := s.backend.ListRecommendations(ctx)
		if err != nil {
			recommendErr = &FetchError{Collection: CollectionRecommendations, Err: err}
			return nil
		}
		recommendations = ensureRecommendations(list)
		return nil
	})
	g.Wait()

	var fetchErrs []*FetchError
	for _, err := range []error{newslettersErr, recommendErr} {
		var fe *FetchError
		if errors.As(err, &fe) {
			fetchErrs = append(fetchErrs, fe)
			s.log.WithFields(logger.Fields{
				"collection": fe.Collection,
				"error":      fe.Err.Error(),
			}).Error("Backend read failed")
			if s.metrics != nil {
				s.metrics.FetchFailures.WithLabelValues(fe.Collection).Inc()
			}
		}
	}

	s.mu.Lock()
	s.state.Newsletters = newsletters
	s.state.Recommendations = recommendations
	s.state.FetchErrors = fetchErrs
	if len(fetchErrs) == 0 {
		s.state.Status = Ready
	} else {
		s.state.Status = Errored
	}
	snap = s.snapshotLocked()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	}
	s.log.WithFields(logger.Fields{
		"status":          snap.Status.String(),
		"newsletters":     len(snap.Newsletters),
		"recommendations": len(snap.Recommendations),
		"duration":        time.Since(start).String(),
	}).Info("Load cycle settled")
	s.notify(snap)

	return errors.Join(newslettersErr, recommendErr)
}

// Delete removes a newsletter remotely and, only once the backend confirms,
// drops the first local entry with that id. An id that is not held locally
// leaves the list unchanged.
func (s *Session) Delete(ctx context.Context, id models.ID) error {
	log := s.log.WithField("id", id.String())

	if err := s.backend.DeleteNewsletter(ctx, id); err != nil {
		log.WithField("error", err.Error()).Error("Delete rejected")
		if s.metrics != nil {
			s.metrics.Deletes.WithLabelValues("failed").Inc()
		}
		return &DeleteError{ID: id, Err: err}
	}
	if s.metrics != nil {
		s.metrics.Deletes.WithLabelValues("ok").Inc()
	}

	s.mu.Lock()
	list, removed := without(s.state.Newsletters, id)
	s.state.Newsletters = list
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.WithField("removed", removed).Info("Newsletter deleted")
	s.notify(snap)
	return nil
}

// Add validates the form, creates the newsletter remotely and appends the
// stored record to the local list if the list is loaded and the id is new.
func (s *Session) Add(ctx context.Context, n models.NewNewsletter) (*models.Newsletter, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	created, err := s.backend.CreateNewsletter(ctx, n)
	if err != nil {
		s.log.WithFields(logger.Fields{
			"name":  n.Name,
			"error": err.Error(),
		}).Error("Create rejected")
		return nil, &AddError{Name: n.Name, Err: err}
	}

	s.mu.Lock()
	if s.state.Newsletters != nil && !contains(s.state.Newsletters, created.ID) {
		list := make([]models.Newsletter, 0, len(s.state.Newsletters)+1)
		list = append(list, s.state.Newsletters...)
		s.state.Newsletters = append(list, *created)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.WithField("id", created.ID.String()).Info("Newsletter added")
	s.notify(snap)
	return created, nil
}

// SetSearch replaces the search term.
func (s *Session) SetSearch(term string) {
	s.mu.Lock()
	s.state.Search = term
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Session) snapshotLocked() Snapshot {
	snap := s.state
	if s.state.Newsletters != nil {
		snap.Newsletters = append([]models.Newsletter{}, s.state.Newsletters...)
	}
	if s.state.Recommendations != nil {
		snap.Recommendations = append([]models.Recommendation{}, s.state.Recommendations...)
	}
	if s.state.FetchErrors != nil {
		snap.FetchErrors = append([]*FetchError{}, s.state.FetchErrors...)
	}
	return snap
}

func (s *Session) notify(snap Snapshot) {
	s.mu.RLock()
	observers := append([]func(Snapshot){}, s.observers...)
	s.mu.RUnlock()
	for _, fn := range observers {
		fn(snap)
	}
}

func without(list []models.Newsletter, id models.ID) ([]models.Newsletter, bool) {
	for i, n := range list {
		if n.ID == id {
			out := make([]models.Newsletter, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...), true
		}
	}
	return list, false
}

func contains(list []models.Newsletter, id models.ID) bool {
	for _, n := range list {
		if n.ID == id {
			return true
		}
	}
	return false
}

func ensureNewsletters(list []models.Newsletter) []models.Newsletter {
	if list == nil {
		return []models.Newsletter{}
	}
	return list
}

func ensureRecommendations(list []models.Recommendation) []models.Recommendation {
	if list == nil {
		return []models.Recommendation{}
	}
	return list
}
