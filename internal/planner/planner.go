// Package planner holds the per-course anchors and turns catalog subjects
// into schedules, month grids and pins.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appLog "studycal/internal/log"
	"studycal/internal/model"
	"studycal/internal/notify"
	"studycal/internal/schedule"
)

// Catalog is what the planner needs from the course catalog.
type Catalog interface {
	Course(ctx context.Context, id string) (model.Course, error)
	Subjects(ctx context.Context, courseID string) ([]schedule.Subject, error)
}

// Options configures a Planner. Zero values are usable.
type Options struct {
	Notifier notify.Notifier
	// Clock returns the current instant; Location decides which calendar day
	// that instant falls on. Defaults: time.Now and UTC.
	Clock    func() time.Time
	Location *time.Location
	// DefaultAnchor is the anchor for courses never set or pinned. Nil means
	// the course starts today.
	DefaultAnchor *schedule.Day
	WeekStart     time.Weekday
}

// Planner is safe for concurrent use. Anchors are its only state; schedules
// are recomputed from the catalog on every call.
type Planner struct {
	catalog  Catalog
	notifier notify.Notifier
	clock    func() time.Time
	loc      *time.Location
	def      *schedule.Day
	grid     schedule.GridOptions

	mu      sync.RWMutex
	anchors map[string]schedule.Day
}

func New(catalog Catalog, opts Options) *Planner {
	p := &Planner{
		catalog:  catalog,
		notifier: opts.Notifier,
		clock:    opts.Clock,
		loc:      opts.Location,
		def:      opts.DefaultAnchor,
		grid:     schedule.GridOptions{WeekStart: opts.WeekStart},
		anchors:  make(map[string]schedule.Day),
	}
	if p.notifier == nil {
		p.notifier = notify.Nop{}
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.loc == nil {
		p.loc = time.UTC
	}
	return p
}

// Today is the current calendar day in the planner's location.
func (p *Planner) Today() schedule.Day {
	return schedule.FromTime(p.clock().In(p.loc))
}

// Now returns the current instant from the planner's clock.
func (p *Planner) Now() time.Time { return p.clock() }

// WeekStart returns the configured first grid column.
func (p *Planner) WeekStart() time.Weekday { return p.grid.WeekStart }

// Anchor returns the course's anchor; explicit is false when it was never set
// or pinned and the default applies.
func (p *Planner) Anchor(courseID string) (day schedule.Day, explicit bool) {
	p.mu.RLock()
	d, ok := p.anchors[courseID]
	p.mu.RUnlock()
	if ok {
		return d, true
	}
	if p.def != nil {
		return *p.def, false
	}
	return p.Today(), false
}

// SetAnchor sets the start of the first subject. The course must exist.
func (p *Planner) SetAnchor(ctx context.Context, courseID string, day schedule.Day) error {
	if _, err := p.catalog.Course(ctx, courseID); err != nil {
		return err
	}
	p.mu.Lock()
	p.anchors[courseID] = day
	p.mu.Unlock()
	appLog.Info("anchor set", "course", courseID, "anchor", day.String())
	return nil
}

// Schedule allocates the course's subjects from its current anchor.
func (p *Planner) Schedule(ctx context.Context, courseID string) (schedule.Schedule, error) {
	subs, err := p.catalog.Subjects(ctx, courseID)
	if err != nil {
		return nil, err
	}
	anchor, _ := p.Anchor(courseID)
	return schedule.Allocate(anchor, subs)
}

// Month builds the grid for year/month with today taken from the clock.
func (p *Planner) Month(ctx context.Context, courseID string, year int, month time.Month) (schedule.Month, error) {
	sched, err := p.Schedule(ctx, courseID)
	if err != nil {
		return schedule.Month{}, err
	}
	return schedule.BuildMonthWithOptions(year, month, sched, p.Today(), p.grid), nil
}

// Current returns the subject scheduled today, if any.
func (p *Planner) Current(ctx context.Context, courseID string) (schedule.ScheduledSubject, bool, error) {
	sched, err := p.Schedule(ctx, courseID)
	if err != nil {
		return schedule.ScheduledSubject{}, false, err
	}
	ss, ok := schedule.FindSubjectForTime(sched, p.clock().In(p.loc))
	return ss, ok, nil
}

// PinRequest asserts that a subject starts on Date. The subject is addressed
// by Index when set, otherwise by Name, which must be unique in the course.
type PinRequest struct {
	Name  string
	Index *int
	Date  schedule.Day
}

// PinResult is the committed outcome of a pin.
type PinResult struct {
	Anchor   schedule.Day      `json:"anchor"`
	Schedule schedule.Schedule `json:"schedule"`
	Event    model.PinEvent    `json:"event"`
}

// Pin recomputes the course anchor so that the addressed subject starts on
// req.Date. Nothing changes unless the whole operation succeeds; notifier
// failures are logged and do not undo a committed pin.
func (p *Planner) Pin(ctx context.Context, courseID string, req PinRequest) (PinResult, error) {
	subs, err := p.catalog.Subjects(ctx, courseID)
	if err != nil {
		return PinResult{}, err
	}

	idx := -1
	var anchor schedule.Day
	if req.Index != nil {
		idx = *req.Index
		anchor, err = schedule.AdjustAt(subs, idx, req.Date)
	} else {
		// A repeated name cannot identify one subject; the caller must pin by index.
		if verr := schedule.ValidateUniqueNames(subs); verr != nil {
			return PinResult{}, fmt.Errorf("planner: course %q repeats subject names, pin by index: %w", courseID, verr)
		}
		anchor, err = schedule.Adjust(subs, req.Name, req.Date)
		if err == nil {
			idx = indexOf(subs, req.Name)
		}
	}
	if err != nil {
		return PinResult{}, err
	}

	sched, err := schedule.Allocate(anchor, subs)
	if err != nil {
		return PinResult{}, err
	}
	if sched[idx].Start != req.Date {
		return PinResult{}, fmt.Errorf("planner: pin of %q landed on %s, want %s", subs[idx].Name, sched[idx].Start, req.Date)
	}

	p.mu.Lock()
	prev, ok := p.anchors[courseID]
	if !ok {
		if p.def != nil {
			prev = *p.def
		} else {
			prev = p.Today()
		}
	}
	p.anchors[courseID] = anchor
	p.mu.Unlock()

	ev := model.PinEvent{
		Timestamp:      p.clock(),
		CourseID:       courseID,
		Subject:        subs[idx].Name,
		Index:          idx,
		Date:           req.Date,
		PreviousAnchor: prev,
		Anchor:         anchor,
	}
	appLog.Info("pin committed", "course", courseID, "subject", ev.Subject, "date", req.Date.String(), "anchor", anchor.String())

	if err := p.notifier.Notify(ctx, ev); err != nil {
		appLog.Error("pin notification failed", err, "course", courseID)
	}
	return PinResult{Anchor: anchor, Schedule: sched, Event: ev}, nil
}

func indexOf(subs []schedule.Subject, name string) int {
	for i, s := range subs {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// IsInputError reports whether err was caused by the caller's input rather
// than a failing collaborator.
func IsInputError(err error) bool {
	return errors.Is(err, schedule.ErrValidation) || errors.Is(err, schedule.ErrNotFound)
}
