package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studycal/internal/config"
	"studycal/internal/courses"
	"studycal/internal/planner"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Courses = []config.CourseConfig{
		{
			ID:   "sci",
			Name: "Science",
			Subjects: []config.SubjectConfig{
				{Name: "Math", DurationDays: 10, Color: "#ff0000"},
				{Name: "Physics", DurationDays: 5, Color: "#00ff00"},
				{Name: "Chemistry", DurationDays: 7, Color: "#0000ff"},
			},
		},
		{
			ID:       "bad",
			Name:     "Broken",
			Subjects: []config.SubjectConfig{{Name: "Zero", DurationDays: 0}},
		},
	}
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, weekStart time.Weekday) *httptest.Server {
	t.Helper()
	now := time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)
	cat := courses.NewCatalog(courses.NewStatic(cfg.Courses))
	pl := planner.New(cat, planner.Options{
		Clock:     func() time.Time { return now },
		WeekStart: weekStart,
	})
	srv := httptest.NewServer(NewServer(cfg, cat, pl, false).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testConfig(), time.Sunday)
	resp, body := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestCoursesAndSchedule(t *testing.T) {
	srv := newTestServer(t, testConfig(), time.Sunday)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/courses", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []courseDTO
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "sci", list[0].ID)
	assert.Equal(t, "2024-01-15", list[0].Anchor.String())
	assert.False(t, list[0].AnchorExplicit)

	resp, body = do(t, http.MethodPut, srv.URL+"/api/courses/sci/anchor", `{"anchor":"2024-01-01"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var view scheduleDTO
	require.NoError(t, json.Unmarshal(body, &view))
	assert.True(t, view.AnchorExplicit)
	assert.Equal(t, 22, view.TotalDays)
	require.NotNil(t, view.Current)
	assert.Equal(t, "Physics", view.Current.Subject.Name)
	assert.Equal(t, "2024-01-16", view.Schedule[2].Start.String())

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/courses/nope/schedule", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/courses/bad/schedule", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/courses/sci/subjects", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"duration_days":5`)
}

func TestMonthEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(), time.Sunday)
	resp, _ := do(t, http.MethodPut, srv.URL+"/api/courses/sci/anchor", `{"anchor":"2024-01-01"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/courses/sci/month", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var m monthDTO
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, 2024, m.Year)
	assert.Equal(t, 1, m.Month)
	assert.Equal(t, "Enero", m.MonthName)
	assert.Equal(t, 1, m.FirstWeekday)
	require.Len(t, m.Cells, 32, "one leading blank then 31 days")
	assert.True(t, m.Cells[0].Blank)
	assert.Equal(t, 1, m.Cells[1].Day)
	assert.Equal(t, "Math", m.Cells[1].Subject.Name)
	assert.True(t, m.Cells[15].IsToday)
	assert.Equal(t, "Physics", m.Cells[15].Subject.Name)
	assert.Nil(t, m.Cells[31].Subject, "Jan 31 is past the last subject")
	assert.Equal(t, monthRef{Year: 2023, Month: 12}, m.Prev)

	tests := []struct {
		query     string
		wantYear  int
		wantMonth int
	}{
		{"?year=2024&month=1&nav=prev", 2023, 12},
		{"?year=2024&month=12&nav=next", 2025, 1},
		{"?year=2030&month=6&nav=today", 2024, 1},
		{"?year=2024&month=13", 2025, 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, body := do(t, http.MethodGet, srv.URL+"/api/courses/sci/month"+tt.query, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var m monthDTO
			require.NoError(t, json.Unmarshal(body, &m))
			assert.Equal(t, tt.wantYear, m.Year)
			assert.Equal(t, tt.wantMonth, m.Month)
		})
	}

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/courses/sci/month?nav=sideways", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, srv.URL+"/api/courses/sci/month?year=abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	for _, q := range []string{
		"?year=1152921504606846976&month=2",
		"?year=0&month=1",
		"?year=10000&month=1",
		"?year=9999&month=12&nav=next",
		"?year=1&month=1&nav=prev",
		"?year=2024&month=99999999999",
	} {
		resp, _ = do(t, http.MethodGet, srv.URL+"/api/courses/sci/month"+q, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
	resp, _ = do(t, http.MethodGet, srv.URL+"/calendar/sci?year=1152921504606846976", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPinEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(), time.Sunday)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/courses/sci/pin", `{"name":"Chemistry","date":"2024-02-11"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var res planner.PinResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "2024-01-27", res.Anchor.String())
	assert.Equal(t, "Chemistry", res.Event.Subject)

	resp, body = do(t, http.MethodPost, srv.URL+"/api/courses/sci/pin", `{"index":1,"date":"2024-03-01"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "2024-02-20", res.Anchor.String())

	tests := []struct {
		name   string
		course string
		body   string
		want   int
	}{
		{"unknown subject", "sci", `{"name":"Biology","date":"2024-02-11"}`, http.StatusNotFound},
		{"index out of range", "sci", `{"index":9,"date":"2024-02-11"}`, http.StatusNotFound},
		{"unknown course", "nope", `{"name":"Math","date":"2024-02-11"}`, http.StatusNotFound},
		{"invalid durations", "bad", `{"name":"Zero","date":"2024-02-11"}`, http.StatusUnprocessableEntity},
		{"bad date", "sci", `{"name":"Math","date":"2024-02-30"}`, http.StatusBadRequest},
		{"no subject", "sci", `{"date":"2024-02-11"}`, http.StatusBadRequest},
		{"negative index", "sci", `{"index":-1,"date":"2024-02-11"}`, http.StatusBadRequest},
		{"malformed", "sci", `{"name":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, srv.URL+"/api/courses/"+tt.course+"/pin", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode, string(body))
			assert.Contains(t, string(body), `"error"`)
		})
	}

	// Failed pins left the last committed anchor alone.
	resp, body = do(t, http.MethodGet, srv.URL+"/api/courses/sci/schedule", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view scheduleDTO
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "2024-02-20", view.Anchor.String())
}

func TestICSAndAgenda(t *testing.T) {
	srv := newTestServer(t, testConfig(), time.Sunday)
	resp, _ := do(t, http.MethodPut, srv.URL+"/api/courses/sci/anchor", `{"anchor":"2024-01-01"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/courses/sci/schedule.ics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/calendar"))
	assert.Equal(t, 3, strings.Count(string(body), "BEGIN:VEVENT"))
	assert.Contains(t, string(body), "SUMMARY:Physics")

	resp, body = do(t, http.MethodGet, srv.URL+"/api/courses/sci/agenda?days=3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var agenda struct {
		Days []struct {
			Date      string `json:"date"`
			DayNumber int    `json:"day_number"`
		} `json:"days"`
	}
	require.NoError(t, json.Unmarshal(body, &agenda))
	require.Len(t, agenda.Days, 3)
	assert.Equal(t, "2024-01-15", agenda.Days[0].Date)
	assert.Equal(t, 5, agenda.Days[0].DayNumber)
	assert.Equal(t, 2, agenda.Days[2].DayNumber)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/courses/sci/agenda?days=0", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuoteDefault(t *testing.T) {
	srv := newTestServer(t, testConfig(), time.Sunday)
	resp, body := do(t, http.MethodGet, srv.URL+"/api/quote", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Eleanor Roosevelt")
}

func TestCalendarPage(t *testing.T) {
	srv := newTestServer(t, testConfig(), time.Monday)

	resp, body := do(t, http.MethodGet, srv.URL+"/calendar/sci?year=2024&month=1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := string(body)
	assert.Contains(t, page, `data-ready="true"`)
	assert.Contains(t, page, "Enero 2024")
	assert.Less(t, strings.Index(page, "<th>Lun</th>"), strings.Index(page, "<th>Dom</th>"), "Monday column first")
	assert.Contains(t, page, "Chemistry · 7 días")
	assert.Contains(t, page, "background: #00ff00")

	resp, _ = do(t, http.MethodGet, srv.URL+"/calendar/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	r, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusFound, r.StatusCode)
	assert.Equal(t, "/calendar/sci", r.Header.Get("Location"))
}

func TestCSSColor(t *testing.T) {
	assert.Equal(t, "#abcdef", cssColor("#abcdef"))
	assert.Equal(t, "rgb(1, 2, 3)", cssColor("rgb(1, 2, 3)"))
	assert.Equal(t, "transparent", cssColor(""))
	assert.Equal(t, "transparent", cssColor("red; background: url(x)"))
}

func TestBasicAuth(t *testing.T) {
	cfg := testConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	srv := newTestServer(t, cfg, time.Sunday)

	resp, _ := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/courses", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "StudyCal")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/courses", nil)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "secret")
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)

	assert.True(t, secureCompare("abc", "abc"))
	assert.False(t, secureCompare("abc", "abd"))
	assert.False(t, secureCompare("abc", "abcd"))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Requests: 2, WindowSeconds: 60}
	srv := newTestServer(t, cfg, time.Sunday)

	for i := 0; i < 2; i++ {
		resp, _ := do(t, http.MethodGet, srv.URL+"/api/quote", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := do(t, http.MethodGet, srv.URL+"/api/quote", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Pages and health are outside the limiter.
	resp, _ = do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
