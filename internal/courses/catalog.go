package courses

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appLog "studycal/internal/log"
	"studycal/internal/model"
	"studycal/internal/schedule"
)

// DefaultQuote is served when no quote source is configured or it fails.
var DefaultQuote = model.Quote{
	Text:   "El futuro pertenece a aquellos que creen en la belleza de sus sueños.",
	Author: "Eleanor Roosevelt",
}

type snapshot struct {
	courses  []model.Course
	subjects map[string][]schedule.Subject
	loadedAt time.Time
}

// Catalog is an in-memory view over a Source. Refresh replaces the whole
// snapshot at once; readers never observe a half-loaded catalog.
type Catalog struct {
	src Source

	mu   sync.RWMutex
	snap *snapshot

	// refreshMu serializes Refresh calls.
	refreshMu sync.Mutex
}

func NewCatalog(src Source) *Catalog {
	return &Catalog{src: src}
}

// Refresh reloads all courses and subjects. Courses that load are committed
// even when others fail; a failed course keeps its entry from the previous
// snapshot, if it had one. When nothing loads the previous snapshot stays in
// place. The returned error joins every failure.
func (c *Catalog) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	start := time.Now()
	c.mu.RLock()
	prev := c.snap
	c.mu.RUnlock()

	var errs []error
	list, listErr := c.src.Courses(ctx)
	if listErr != nil {
		errs = append(errs, listErr)
	}

	next := &snapshot{subjects: make(map[string][]schedule.Subject, len(list))}
	fresh := 0
	for _, course := range list {
		subs, err := c.src.Subjects(ctx, course.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("course %q: %w", course.ID, err))
			if old, ok := prev.lookup(course.ID); ok {
				next.courses = append(next.courses, course)
				next.subjects[course.ID] = old
			}
			continue
		}
		if err := schedule.ValidateUniqueNames(subs); err != nil {
			appLog.Warn("course has repeated subject names; pins must use the subject index", "course", course.ID, "error", err.Error())
		}
		next.courses = append(next.courses, course)
		next.subjects[course.ID] = subs
		fresh++
	}

	// A source that failed to list its courses would otherwise drop them.
	if listErr != nil && prev != nil {
		for _, course := range prev.courses {
			if _, ok := next.subjects[course.ID]; ok {
				continue
			}
			next.courses = append(next.courses, course)
			next.subjects[course.ID] = prev.subjects[course.ID]
		}
	}

	joined := errors.Join(errs...)
	if fresh == 0 && joined != nil {
		appLog.Error("catalog refresh failed; keeping previous snapshot", joined, "courses", len(list))
		return fmt.Errorf("catalog refresh: %w", joined)
	}
	next.loadedAt = time.Now()

	c.mu.Lock()
	c.snap = next
	c.mu.Unlock()

	if joined != nil {
		appLog.Error("catalog refreshed with failures", joined, "courses", len(next.courses), "fresh", fresh)
		return fmt.Errorf("catalog refresh: %w", joined)
	}
	appLog.Info("catalog refreshed", "courses", len(next.courses), "elapsed", time.Since(start).String())
	return nil
}

func (s *snapshot) lookup(courseID string) ([]schedule.Subject, bool) {
	if s == nil {
		return nil, false
	}
	subs, ok := s.subjects[courseID]
	return subs, ok
}

// current returns the loaded snapshot, loading it on first use. A partial
// load is served even though Refresh reported an error.
func (c *Catalog) current(ctx context.Context) (*snapshot, error) {
	c.mu.RLock()
	s := c.snap
	c.mu.RUnlock()
	if s != nil {
		return s, nil
	}
	err := c.Refresh(ctx)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return nil, err
	}
	return c.snap, nil
}

// LoadedAt reports when the current snapshot was loaded; zero if never.
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return time.Time{}
	}
	return c.snap.loadedAt
}

// Courses loads the catalog on first use.
func (c *Catalog) Courses(ctx context.Context) ([]model.Course, error) {
	s, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Course, len(s.courses))
	copy(out, s.courses)
	return out, nil
}

// Course returns a single course by id.
func (c *Catalog) Course(ctx context.Context, id string) (model.Course, error) {
	s, err := c.current(ctx)
	if err != nil {
		return model.Course{}, err
	}
	for _, course := range s.courses {
		if course.ID == id {
			return course, nil
		}
	}
	return model.Course{}, unknownCourse(id)
}

// Subjects returns a copy of the course's subjects in order.
func (c *Catalog) Subjects(ctx context.Context, courseID string) ([]schedule.Subject, error) {
	s, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	subs, ok := s.subjects[courseID]
	if !ok {
		return nil, unknownCourse(courseID)
	}
	out := make([]schedule.Subject, len(subs))
	copy(out, subs)
	return out, nil
}

// Quote asks the source for a quote and falls back to DefaultQuote.
func (c *Catalog) Quote(ctx context.Context) model.Quote {
	qs, ok := c.src.(QuoteSource)
	if !ok {
		return DefaultQuote
	}
	q, err := qs.Quote(ctx)
	if err != nil || q.Text == "" {
		if err != nil {
			appLog.Debug("quote unavailable, using default", "error", err.Error())
		}
		return DefaultQuote
	}
	return q
}
