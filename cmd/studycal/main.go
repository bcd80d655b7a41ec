package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/automaxprocs/maxprocs"

	"studycal/internal/capture"
	"studycal/internal/config"
	"studycal/internal/courses"
	"studycal/internal/ics"
	appLog "studycal/internal/log"
	"studycal/internal/notify"
	"studycal/internal/planner"
	"studycal/internal/schedule"
	"studycal/internal/web"
)

// flagConfig holds CLI flag values; non-empty values override the config file.
type flagConfig struct {
	configPath string
	listen     string
	course     string
	month      string
	once       bool
	icsOut     bool
	snapshot   string
	debug      bool
}

func main() {
	if err := run(); err != nil {
		appLog.Error("studycal failed", err)
		os.Exit(1)
	}
}

func run() error {
	flags := parseFlags()

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		appLog.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		appLog.Warn("failed to set GOMAXPROCS", "error", err.Error())
	}

	// A .env file is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		appLog.Warn("failed to load .env", "error", err.Error())
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", flags.configPath, err)
	}
	if err := config.ApplyEnv(conf); err != nil {
		return err
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.debug {
		conf.LogLevel = "debug"
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	appLog.SetFormat(conf.LogFormat)
	appLog.Info("studycal starting", "version", "0.1.0")
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"catalog", conf.Catalog.URL != "",
		"courses", len(conf.Courses),
		"once", flags.once,
		"ics", flags.icsOut,
		"snapshot", flags.snapshot,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher := courses.NewFetcher(conf.CacheDir, time.Duration(conf.Catalog.TimeoutSeconds)*time.Second)
	catalog := courses.NewCatalog(courses.FromConfig(conf, fetcher))
	// A failed first load is retried lazily and by the refresher.
	_ = catalog.Refresh(ctx)

	notifier, err := buildNotifier(ctx, conf)
	if err != nil {
		return err
	}

	opts := planner.Options{
		Notifier:  notifier,
		Location:  resolveLocation(conf.Timezone),
		WeekStart: weekStart(conf.WeekStart),
	}
	if d, ok, err := conf.Anchor(); err != nil {
		return err
	} else if ok {
		opts.DefaultAnchor = &d
	}
	pl := planner.New(catalog, opts)

	courseID := flags.course
	if courseID == "" && (flags.once || flags.icsOut || flags.snapshot != "") {
		list, err := catalog.Courses(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return errors.New("no courses available")
		}
		courseID = list[0].ID
	}

	switch {
	case flags.once:
		year, month, err := resolveMonthFlag(flags.month, pl.Today())
		if err != nil {
			return err
		}
		m, err := pl.Month(ctx, courseID, year, month)
		if err != nil {
			return err
		}
		course, err := catalog.Course(ctx, courseID)
		if err != nil {
			return err
		}
		printMonth(os.Stdout, course.Name, m)
		if cur, ok, err := pl.Current(ctx, courseID); err != nil {
			return err
		} else if ok {
			fmt.Fprintf(os.Stdout, "Hoy (%s): %s\n", pl.Today(), cur.Subject.Name)
		}
		return nil

	case flags.icsOut:
		course, err := catalog.Course(ctx, courseID)
		if err != nil {
			return err
		}
		sched, err := pl.Schedule(ctx, courseID)
		if err != nil {
			return err
		}
		_, err = io.WriteString(os.Stdout, ics.Export(course.Name, course.ID, sched, pl.Now()).Serialize())
		return err

	case flags.snapshot != "":
		year, month, err := resolveMonthFlag(flags.month, pl.Today())
		if err != nil {
			return err
		}
		return runSnapshot(ctx, conf, catalog, pl, courseID, year, month, flags.snapshot, flags.debug)
	}

	refresher := courses.NewRefresher(catalog, conf.RefreshCron)
	refresher.Start(ctx)
	defer refresher.Stop()

	ln, err := net.Listen("tcp", conf.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", conf.Listen, err)
	}
	return serve(ctx, ln, web.NewServer(conf, catalog, pl, flags.debug).Handler())
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/studycal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.course, "course", "", "Course id for -once, -ics and -snapshot (default: first course)")
	flag.StringVar(&cfg.month, "month", "", "Month as YYYY-MM for -once and -snapshot (default: current month)")
	flag.BoolVar(&cfg.once, "once", false, "Print the month grid and exit")
	flag.BoolVar(&cfg.icsOut, "ics", false, "Write the course schedule as ICS to stdout and exit")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "Capture the month page as PNG to this path and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}

func buildNotifier(ctx context.Context, conf *config.Config) (notify.Notifier, error) {
	var m notify.Multi
	if conf.Notify.WebhookURL != "" {
		m = append(m, notify.NewWebhook(conf.Notify.WebhookURL))
	}
	if conf.Notify.SNSTopicARN != "" {
		s, err := notify.NewSNS(ctx, conf.Notify.SNSTopicARN, conf.Notify.AWSRegion)
		if err != nil {
			return nil, err
		}
		m = append(m, s)
	}
	if len(m) == 0 {
		return notify.Nop{}, nil
	}
	return m, nil
}

// serve runs the HTTP server on ln until ctx is canceled, then shuts it down
// gracefully. The caller binds ln so the address is reachable before serve
// is scheduled.
func serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	appLog.Info("signal received, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	appLog.Info("studycal exiting")
	return nil
}

// runSnapshot serves the UI briefly so headless Chromium can render the month
// page, then writes the PNG to out.
func runSnapshot(ctx context.Context, conf *config.Config, catalog *courses.Catalog, pl *planner.Planner, courseID string, year int, month time.Month, out string, debug bool) error {
	ln, err := net.Listen("tcp", conf.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", conf.Listen, err)
	}

	srvCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- serve(srvCtx, ln, web.NewServer(conf, catalog, pl, debug).Handler()) }()

	u, err := capture.CalendarURL(ln.Addr().String(), courseID, year, month)
	if err != nil {
		return err
	}
	opts := capture.CaptureOptions{
		URL:        u,
		OutputPath: out,
		Width:      conf.Capture.Width,
		Height:     conf.Capture.Height,
		Timeout:    time.Duration(conf.Capture.TimeoutSeconds) * time.Second,
	}
	if conf.BasicAuth != nil {
		opts.Username = conf.BasicAuth.Username
		opts.Password = conf.BasicAuth.Password
	}
	capErr := capture.CaptureCalendarPNG(ctx, opts)

	cancel()
	if err := <-errCh; err != nil && capErr == nil {
		return err
	}
	return capErr
}

func resolveMonthFlag(s string, today schedule.Day) (int, time.Month, error) {
	if s == "" {
		return today.Year(), today.Month(), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid -month %q: want YYYY-MM", s)
	}
	return t.Year(), t.Month(), nil
}

func resolveLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func weekStart(s string) time.Weekday {
	if strings.EqualFold(s, "monday") {
		return time.Monday
	}
	return time.Sunday
}
