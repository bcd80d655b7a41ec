package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	appLog "studycal/internal/log"
	"studycal/internal/model"
	"studycal/internal/schedule"
)

var monthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// dayNames is indexed by time.Weekday.
var dayNames = [7]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}

var pageFuncs = template.FuncMap{
	"css": func(s string) template.CSS { return template.CSS(cssColor(s)) },
}

// cssColor keeps only values that are safe inside a style attribute.
func cssColor(s string) string {
	if s == "" {
		return "transparent"
	}
	for _, r := range s {
		ok := r == '#' || r == '(' || r == ')' || r == ',' || r == '.' || r == '%' || r == ' ' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !ok {
			return "transparent"
		}
	}
	return s
}

type legendItem struct {
	Name  string
	Color string
	Days  int
	Start schedule.Day
	End   schedule.Day
}

type pageData struct {
	Course   model.Course
	Title    string
	Headers  []string
	Weeks    [][]schedule.Cell
	Legend   []legendItem
	Current  *schedule.ScheduledSubject
	Today    schedule.Day
	Quote    model.Quote
	PrevURL  string
	NextURL  string
	TodayURL string
}

func weekdayHeaders(start time.Weekday) []string {
	out := make([]string, 7)
	for i := range out {
		out[i] = dayNames[(int(start)+i)%7]
	}
	return out
}

// handleIndex redirects to the first course's calendar.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	list, err := s.catalog.Courses(r.Context())
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	if len(list) == 0 {
		http.Error(w, "no courses configured", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/calendar/"+list[0].ID, http.StatusFound)
}

// handleCalendarPage renders the month page. The root element carries
// data-ready="true" once rendered so headless capture can wait on it.
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	today := s.planner.Today()

	year, month, err := resolveMonth(r, today)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	course, err := s.catalog.Course(ctx, id)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	sched, err := s.planner.Schedule(ctx, id)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	m := schedule.BuildMonthWithOptions(year, month, sched, today, schedule.GridOptions{WeekStart: s.planner.WeekStart()})

	data := pageData{
		Course:   course,
		Title:    fmt.Sprintf("%s %d", monthNames[m.Month-1], m.Year),
		Headers:  weekdayHeaders(s.planner.WeekStart()),
		Weeks:    m.Weeks(),
		Today:    today,
		Quote:    s.catalog.Quote(ctx),
		PrevURL:  fmt.Sprintf("/calendar/%s?year=%d&month=%d&nav=prev", id, m.Year, m.Month),
		NextURL:  fmt.Sprintf("/calendar/%s?year=%d&month=%d&nav=next", id, m.Year, m.Month),
		TodayURL: fmt.Sprintf("/calendar/%s?nav=today", id),
	}
	for _, ss := range sched {
		data.Legend = append(data.Legend, legendItem{
			Name:  ss.Subject.Name,
			Color: ss.Subject.Color,
			Days:  ss.Subject.DurationDays,
			Start: ss.Start,
			End:   ss.End,
		})
	}
	if cur, ok := schedule.FindSubjectForDate(sched, today); ok {
		data.Current = &cur
	}

	// Render into a buffer so template errors never produce half a page.
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		appLog.Error("calendar page render failed", err, "course", id)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
