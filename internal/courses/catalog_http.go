package courses

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"studycal/internal/model"
	"studycal/internal/schedule"
)

type remoteCourse struct {
	ID          string `json:"id1"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type remoteSubject struct {
	Name         string  `json:"name"`
	DurationDays float64 `json:"duration_days"`
	Color        string  `json:"color"`
}

type subjectsQuery struct {
	Row string `json:"row"`
}

// HTTPCatalog reads courses, subjects and quotes from a webhook-style JSON
// API rooted at a base URL.
type HTTPCatalog struct {
	base    string
	fetcher *Fetcher
}

func NewHTTPCatalog(baseURL string, f *Fetcher) *HTTPCatalog {
	return &HTTPCatalog{base: strings.TrimRight(baseURL, "/"), fetcher: f}
}

func (h *HTTPCatalog) Courses(ctx context.Context) ([]model.Course, error) {
	res, err := h.fetcher.Fetch(ctx, Request{ID: "catalog-courses", URL: h.base + "/courses"})
	if err != nil {
		return nil, fmt.Errorf("catalog: courses: %w", err)
	}
	var raw []remoteCourse
	if err := json.Unmarshal(res.Body, &raw); err != nil {
		return nil, fmt.Errorf("catalog: decode courses: %w", err)
	}
	out := make([]model.Course, 0, len(raw))
	for _, rc := range raw {
		if rc.ID == "" {
			continue
		}
		out = append(out, model.Course{
			ID:          rc.ID,
			Name:        rc.Name,
			Description: rc.Description,
			SourceID:    "catalog",
		})
	}
	return out, nil
}

// Subjects posts {"row": courseID} to /subjects. The course must appear in
// the remote course list.
func (h *HTTPCatalog) Subjects(ctx context.Context, courseID string) ([]schedule.Subject, error) {
	list, err := h.Courses(ctx)
	if err != nil {
		return nil, err
	}
	known := false
	for _, c := range list {
		if c.ID == courseID {
			known = true
			break
		}
	}
	if !known {
		return nil, unknownCourse(courseID)
	}

	body, err := json.Marshal(subjectsQuery{Row: courseID})
	if err != nil {
		return nil, err
	}
	res, err := h.fetcher.Fetch(ctx, Request{
		ID:     "catalog-subjects-" + courseID,
		Method: http.MethodPost,
		URL:    h.base + "/subjects",
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: subjects for %q: %w", courseID, err)
	}
	return decodeSubjects(res.Body)
}

func decodeSubjects(body []byte) ([]schedule.Subject, error) {
	var raw []remoteSubject
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("catalog: decode subjects: %w", err)
	}
	out := make([]schedule.Subject, 0, len(raw))
	for i, rs := range raw {
		d := rs.DurationDays
		if d != math.Trunc(d) || d < 1 || d > math.MaxInt32 {
			return nil, &schedule.ValidationError{
				Index:    i,
				Name:     rs.Name,
				Duration: int(d),
				Reason:   fmt.Sprintf("duration %v is not a positive whole number of days", d),
			}
		}
		out = append(out, schedule.Subject{
			Name:         rs.Name,
			DurationDays: int(d),
			Color:        rs.Color,
			OrderIndex:   i,
		})
	}
	return out, nil
}

func (h *HTTPCatalog) Quote(ctx context.Context) (model.Quote, error) {
	res, err := h.fetcher.Fetch(ctx, Request{ID: "catalog-quote", URL: h.base + "/motivational_quotes"})
	if err != nil {
		return model.Quote{}, fmt.Errorf("catalog: quote: %w", err)
	}
	var q model.Quote
	if err := json.Unmarshal(res.Body, &q); err != nil {
		return model.Quote{}, fmt.Errorf("catalog: decode quote: %w", err)
	}
	return q, nil
}
