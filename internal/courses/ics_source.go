package courses

import (
	"context"
	"fmt"

	"studycal/internal/config"
	"studycal/internal/ics"
	"studycal/internal/model"
	"studycal/internal/schedule"
)

type icsFeed struct {
	course model.Course
	url    string
}

// ICS serves courses whose subjects are published as an ICS feed, one
// all-day VEVENT per subject.
type ICS struct {
	fetcher *Fetcher
	feeds   []icsFeed
	byID    map[string]int
}

// NewICS collects every course config with an ics_url.
func NewICS(cfgs []config.CourseConfig, f *Fetcher) *ICS {
	s := &ICS{fetcher: f, byID: make(map[string]int)}
	for _, cc := range cfgs {
		if cc.ICSURL == "" {
			continue
		}
		s.byID[cc.ID] = len(s.feeds)
		s.feeds = append(s.feeds, icsFeed{
			course: model.Course{
				ID:          cc.ID,
				Name:        cc.Name,
				Description: cc.Description,
				SourceID:    "ics:" + cc.ID,
			},
			url: cc.ICSURL,
		})
	}
	return s
}

// Len returns the number of ICS-backed courses.
func (s *ICS) Len() int { return len(s.feeds) }

func (s *ICS) Courses(ctx context.Context) ([]model.Course, error) {
	out := make([]model.Course, 0, len(s.feeds))
	for _, f := range s.feeds {
		out = append(out, f.course)
	}
	return out, nil
}

func (s *ICS) Subjects(ctx context.Context, courseID string) ([]schedule.Subject, error) {
	i, ok := s.byID[courseID]
	if !ok {
		return nil, unknownCourse(courseID)
	}
	feed := s.feeds[i]
	res, err := s.fetcher.Fetch(ctx, Request{ID: "ics-" + courseID, URL: feed.url})
	if err != nil {
		return nil, fmt.Errorf("ics source %q: %w", courseID, err)
	}
	subs, err := ics.ParseSubjects(res.Body)
	if err != nil {
		return nil, fmt.Errorf("ics source %q: %w", courseID, err)
	}
	return subs, nil
}
