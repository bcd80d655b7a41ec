// Package courses loads course lists and their ordered subjects from the
// configured collaborators: static config, a remote JSON catalog and ICS
// feeds.
package courses

import (
	"context"
	"errors"
	"fmt"

	"studycal/internal/config"
	appLog "studycal/internal/log"
	"studycal/internal/model"
	"studycal/internal/schedule"
)

// ErrUnknownCourse is returned when no source knows a course id.
var ErrUnknownCourse = errors.New("courses: unknown course")

// Source provides courses and their subjects in teaching order.
type Source interface {
	Courses(ctx context.Context) ([]model.Course, error)
	Subjects(ctx context.Context, courseID string) ([]schedule.Subject, error)
}

// QuoteSource is implemented by sources that also serve motivational quotes.
type QuoteSource interface {
	Quote(ctx context.Context) (model.Quote, error)
}

func unknownCourse(id string) error {
	return fmt.Errorf("%w: %q", ErrUnknownCourse, id)
}

// Static serves courses defined inline in the config file.
type Static struct {
	courses  []model.Course
	subjects map[string][]schedule.Subject
}

// NewStatic builds a Static source from course configs. Courses with an
// ICS feed are skipped; they belong to an ICS source.
func NewStatic(cfgs []config.CourseConfig) *Static {
	s := &Static{subjects: make(map[string][]schedule.Subject)}
	for _, cc := range cfgs {
		if cc.ICSURL != "" {
			continue
		}
		s.courses = append(s.courses, model.Course{
			ID:          cc.ID,
			Name:        cc.Name,
			Description: cc.Description,
			SourceID:    "static",
		})
		s.subjects[cc.ID] = cc.ScheduleSubjects()
	}
	return s
}

func (s *Static) Courses(ctx context.Context) ([]model.Course, error) {
	out := make([]model.Course, len(s.courses))
	copy(out, s.courses)
	return out, nil
}

func (s *Static) Subjects(ctx context.Context, courseID string) ([]schedule.Subject, error) {
	subs, ok := s.subjects[courseID]
	if !ok {
		return nil, unknownCourse(courseID)
	}
	out := make([]schedule.Subject, len(subs))
	copy(out, subs)
	return out, nil
}

// Multi combines sources. Course lists are concatenated with the first
// occurrence of an id winning; subjects come from the first source that
// knows the course.
type Multi []Source

// Courses skips sources that fail. The courses of the healthy sources are
// returned together with the joined errors of the others.
func (m Multi) Courses(ctx context.Context) ([]model.Course, error) {
	var (
		out  []model.Course
		errs []error
		seen = make(map[string]bool)
	)
	for i, src := range m {
		list, err := src.Courses(ctx)
		if err != nil {
			appLog.Error("course source failed; skipping", err, "source", i)
			errs = append(errs, fmt.Errorf("source %d: %w", i, err))
			continue
		}
		for _, c := range list {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	return out, errors.Join(errs...)
}

func (m Multi) Subjects(ctx context.Context, courseID string) ([]schedule.Subject, error) {
	for _, src := range m {
		subs, err := src.Subjects(ctx, courseID)
		if errors.Is(err, ErrUnknownCourse) {
			continue
		}
		return subs, err
	}
	return nil, unknownCourse(courseID)
}

// Quote asks the first source that serves quotes.
func (m Multi) Quote(ctx context.Context) (model.Quote, error) {
	for _, src := range m {
		if qs, ok := src.(QuoteSource); ok {
			return qs.Quote(ctx)
		}
	}
	return model.Quote{}, errors.New("courses: no quote source")
}

// FromConfig wires the sources described by cfg: static courses first, then
// ICS-backed courses, then the remote catalog when a URL is configured.
func FromConfig(cfg *config.Config, f *Fetcher) Source {
	m := Multi{NewStatic(cfg.Courses)}
	if feeds := NewICS(cfg.Courses, f); feeds.Len() > 0 {
		m = append(m, feeds)
	}
	if cfg.Catalog.URL != "" {
		m = append(m, NewHTTPCatalog(cfg.Catalog.URL, f))
	}
	return m
}
