package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"studycal/internal/ics"
	"studycal/internal/model"
	"studycal/internal/planner"
	"studycal/internal/schedule"
)

const (
	defaultAgendaDays = 14
	maxAgendaDays     = 366

	minYear = 1
	maxYear = 9999
)

type courseDTO struct {
	model.Course
	Anchor         schedule.Day `json:"anchor"`
	AnchorExplicit bool         `json:"anchor_explicit"`
}

type scheduleDTO struct {
	Course         model.Course               `json:"course"`
	Anchor         schedule.Day               `json:"anchor"`
	AnchorExplicit bool                       `json:"anchor_explicit"`
	Today          schedule.Day               `json:"today"`
	Current        *schedule.ScheduledSubject `json:"current,omitempty"`
	TotalDays      int                        `json:"total_days"`
	Schedule       schedule.Schedule          `json:"schedule"`
}

type monthRef struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type subjectRefDTO struct {
	Name  string       `json:"name"`
	Color string       `json:"color"`
	Index int          `json:"index"`
	Start schedule.Day `json:"start"`
	End   schedule.Day `json:"end"`
}

type cellDTO struct {
	Blank   bool           `json:"blank"`
	Date    *schedule.Day  `json:"date,omitempty"`
	Day     int            `json:"day,omitempty"`
	Subject *subjectRefDTO `json:"subject,omitempty"`
	IsToday bool           `json:"is_today"`
}

type monthDTO struct {
	CourseID     string       `json:"course"`
	Year         int          `json:"year"`
	Month        int          `json:"month"`
	MonthName    string       `json:"month_name"`
	DaysInMonth  int          `json:"days_in_month"`
	FirstWeekday int          `json:"first_weekday"`
	WeekStart    int          `json:"week_start"`
	Today        schedule.Day `json:"today"`
	Prev         monthRef     `json:"prev"`
	Next         monthRef     `json:"next"`
	Cells        []cellDTO    `json:"cells"`
}

type anchorRequest struct {
	Anchor string `json:"anchor" validate:"required,day"`
}

type pinRequest struct {
	Name  string `json:"name" validate:"required_without=Index"`
	Index *int   `json:"index" validate:"omitempty,min=0"`
	Date  string `json:"date" validate:"required,day"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Quote(r.Context()))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"loaded_at": s.catalog.LoadedAt()})
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	list, err := s.catalog.Courses(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	out := make([]courseDTO, 0, len(list))
	for _, c := range list {
		anchor, explicit := s.planner.Anchor(c.ID)
		out = append(out, courseDTO{Course: c, Anchor: anchor, AnchorExplicit: explicit})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSubjects(w http.ResponseWriter, r *http.Request) {
	subs, err := s.catalog.Subjects(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) scheduleView(r *http.Request, id string) (scheduleDTO, error) {
	ctx := r.Context()
	course, err := s.catalog.Course(ctx, id)
	if err != nil {
		return scheduleDTO{}, err
	}
	sched, err := s.planner.Schedule(ctx, id)
	if err != nil {
		return scheduleDTO{}, err
	}
	anchor, explicit := s.planner.Anchor(id)
	today := s.planner.Today()
	out := scheduleDTO{
		Course:         course,
		Anchor:         anchor,
		AnchorExplicit: explicit,
		Today:          today,
		TotalDays:      sched.TotalDays(),
		Schedule:       sched,
	}
	if cur, ok := schedule.FindSubjectForDate(sched, today); ok {
		out.Current = &cur
	}
	return out, nil
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	view, err := s.scheduleView(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// resolveMonth reads year, month and nav from the query. Missing values
// default to today's month; nav=prev|next|today moves from there.
func resolveMonth(r *http.Request, today schedule.Day) (int, time.Month, error) {
	q := r.URL.Query()
	year, err := parseIntDefault(q.Get("year"), today.Year())
	if err != nil || year < minYear || year > maxYear {
		return 0, 0, fmt.Errorf("invalid year %q: want %d..%d", q.Get("year"), minYear, maxYear)
	}
	m, err := parseIntDefault(q.Get("month"), int(today.Month()))
	if err != nil || m < -1200 || m > 1200 {
		return 0, 0, fmt.Errorf("invalid month %q", q.Get("month"))
	}
	// Out-of-range months roll over into neighbouring years.
	y, month := schedule.ShiftMonth(year, time.Month(m), 0)

	switch strings.ToLower(q.Get("nav")) {
	case "":
	case "prev":
		y, month = schedule.ShiftMonth(y, month, -1)
	case "next":
		y, month = schedule.ShiftMonth(y, month, 1)
	case "today":
		y, month = today.Year(), today.Month()
	default:
		return 0, 0, fmt.Errorf("invalid nav %q", q.Get("nav"))
	}
	if y < minYear || y > maxYear {
		return 0, 0, fmt.Errorf("month %d-%02d is outside years %d..%d", y, int(month), minYear, maxYear)
	}
	return y, month, nil
}

func toMonthDTO(courseID string, m schedule.Month, today schedule.Day) monthDTO {
	py, pm := schedule.ShiftMonth(m.Year, m.Month, -1)
	ny, nm := schedule.ShiftMonth(m.Year, m.Month, 1)
	out := monthDTO{
		CourseID:     courseID,
		Year:         m.Year,
		Month:        int(m.Month),
		MonthName:    monthNames[m.Month-1],
		DaysInMonth:  m.DaysInMonth,
		FirstWeekday: m.FirstWeekday,
		WeekStart:    m.WeekStart,
		Today:        today,
		Prev:         monthRef{Year: py, Month: int(pm)},
		Next:         monthRef{Year: ny, Month: int(nm)},
		Cells:        make([]cellDTO, 0, len(m.Cells)),
	}
	for _, c := range m.Cells {
		if c.Blank {
			out.Cells = append(out.Cells, cellDTO{Blank: true})
			continue
		}
		d := c.Date
		cell := cellDTO{Date: &d, Day: d.Day(), IsToday: c.IsToday}
		if c.Subject != nil {
			cell.Subject = &subjectRefDTO{
				Name:  c.Subject.Subject.Name,
				Color: c.Subject.Subject.Color,
				Index: c.Subject.Subject.OrderIndex,
				Start: c.Subject.Start,
				End:   c.Subject.End,
			}
		}
		out.Cells = append(out.Cells, cell)
	}
	return out
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	today := s.planner.Today()
	year, month, err := resolveMonth(r, today)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := s.planner.Month(r.Context(), id, year, month)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthDTO(id, m, today))
}

func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	days, err := parseIntDefault(r.URL.Query().Get("days"), defaultAgendaDays)
	if err != nil || days < 1 || days > maxAgendaDays {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", maxAgendaDays))
		return
	}
	sched, err := s.planner.Schedule(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	from := s.planner.Today()
	res, err := ics.ExpandAgenda(sched, from, from.AddDays(days-1), maxAgendaDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	course, err := s.catalog.Course(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	sched, err := s.planner.Schedule(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	body := ics.Export(course.Name, course.ID, sched, s.planner.Now()).Serialize()
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.ics"`, course.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

func (s *Server) handleSetAnchor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req anchorRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := schedule.ParseDay(req.Anchor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.planner.SetAnchor(r.Context(), id, day); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	view, err := s.scheduleView(r, id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req pinRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := schedule.ParseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.planner.Pin(r.Context(), id, planner.PinRequest{Name: req.Name, Index: req.Index, Date: day})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
