package main

import (
	"context"
	"errors"
	"fmt"
	"gonetlist/internal/config"
	"gonetlist/internal/feed"
	"gonetlist/internal/groups"
	"gonetlist/internal/models"
	"gonetlist/internal/netlist"
	"gonetlist/internal/reporting"
	"gonetlist/internal/tracker"
	"gonetlist/internal/tui"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// runner is a capture source.
type runner interface {
	Run(ctx context.Context) error
}

// loadConfig reads --config, if given, then applies the flags that were set.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"interface", &cfg.Capture.Interface},
		{"source", &cfg.Capture.Source},
		{"file", &cfg.Capture.File},
		{"filter", &cfg.Capture.Filter},
		{"lumber-addr", &cfg.Capture.LumberAddr},
		{"groups", &cfg.Groups.Path},
		{"groups-backend", &cfg.Groups.Backend},
		{"sort", &cfg.Display.Sort},
		{"metrics-addr", &cfg.Metrics.Addr},
		{"log-file", &cfg.Log.File},
	}
	for _, o := range overrides {
		if c.IsSet(o.flag) {
			*o.dst = c.String(o.flag)
		}
	}
	// a file given on the command line wins over a configured interface
	if c.IsSet("file") {
		cfg.Capture.Interface = ""
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger sends logs to the configured file. Without one, fallback receives them.
func setupLogger(cfg *config.Config, fallback io.Writer) (*slog.Logger, func(), error) {
	lvl, err := cfg.LogLevel()
	if err != nil {
		return nil, nil, err
	}
	out, closer := fallback, func() {}
	if cfg.Log.File != "" {
		f, err := tea.LogToFile(cfg.Log.File, "gonetlist")
		if err != nil {
			return nil, nil, fmt.Errorf("could not open log file: %w", err)
		}
		out, closer = f, func() { f.Close() }
	}
	log := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(log)
	return log, closer, nil
}

func newSource(cfg *config.Config, coal *feed.Coalescer, updates chan<- models.Update, log *slog.Logger) (runner, error) {
	capture := cfg.Capture
	switch capture.Source {
	case "pcap":
		return feed.NewPcapSource(feed.PcapConfig{
			Interface: capture.Interface,
			File:      capture.File,
			Filter:    capture.Filter,
		}, coal, log.With("source", "pcap"))
	case "tshark":
		return feed.NewTsharkSource(feed.TsharkConfig{
			Interface: capture.Interface,
			File:      capture.File,
			Filter:    capture.Filter,
		}, coal, log.With("source", "tshark"))
	case "lumber":
		return feed.NewLumberSource(capture.LumberAddr, 30*time.Second, updates, log.With("source", "lumber"))
	}
	return nil, fmt.Errorf("unknown capture source %q", capture.Source)
}

func sourceLabel(cfg *config.Config) string {
	switch {
	case cfg.Capture.Source == "lumber":
		return "drones on " + cfg.Capture.LumberAddr
	case cfg.Capture.File != "":
		return cfg.Capture.File
	}
	return cfg.Capture.Interface
}

func openGroups(ctx context.Context, cfg *config.Config) (groups.Store, groups.Mapping, error) {
	store, err := groups.Open(ctx, cfg.Groups.Backend, cfg.Groups.Path)
	if err != nil {
		return nil, groups.Mapping{}, err
	}
	m, err := store.Load(ctx)
	if err != nil {
		store.Close()
		return nil, groups.Mapping{}, err
	}
	return store, m, nil
}

// captureClock ages networks against frame timestamps when replaying a file,
// against the wall clock otherwise.
func captureClock(cfg *config.Config, store *tracker.Store) func() time.Time {
	if cfg.Capture.File != "" && cfg.Capture.Source != "lumber" {
		return store.CaptureClock()
	}
	return time.Now
}

func newList(cfg *config.Config, store *tracker.Store, manual groups.Mapping, now func() time.Time, log *slog.Logger) (*netlist.Netlist, error) {
	d, err := cfg.ResolveDisplay()
	if err != nil {
		return nil, err
	}
	return netlist.New(store, &netlist.Config{
		Columns:     d.Columns,
		Extras:      d.Extras,
		SortMode:    d.Sort,
		ShowExtInfo: d.ShowExtInfo,
		Manual:      manual,
		Now:         now,
		Logger:      log.With("component", "netlist"),
	})
}

func serveMetrics(ctx context.Context, addr string, list *netlist.Netlist, log *slog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		netlist.NewCollector(list),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func runMonitor(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, closeLog, err := setupLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	groupStore, manual, err := openGroups(ctx, cfg)
	if err != nil {
		return err
	}
	defer groupStore.Close()

	store := tracker.NewStore(nil)
	now := captureClock(cfg, store)
	list, err := newList(cfg, store, manual, now, log)
	if err != nil {
		return err
	}

	coal := feed.NewCoalescer()
	updates := make(chan models.Update, 1024)
	src, err := newSource(cfg, coal, updates, log)
	if err != nil {
		return err
	}

	var watcher *config.Watcher
	if path := c.String("config"); path != "" {
		if watcher, err = config.NewWatcher(path); err != nil {
			log.Warn("config hot reload disabled", "err", err)
		} else {
			defer watcher.Close()
		}
	}

	model := tui.NewModel(tui.Options{
		List:        list,
		Store:       store,
		Coalescer:   coal,
		Updates:     updates,
		Groups:      groupStore,
		Source:      sourceLabel(cfg),
		DecayAfter:  cfg.Capture.DecayAfter.Duration,
		ExpireAfter: cfg.Capture.ExpireAfter.Duration,
		ReportDir:   c.String("report"),
		ConfigPath:  c.String("config"),
		Watcher:     watcher,
		Logger:      log.With("component", "tui"),
		Now:         now,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := src.Run(gctx); err != nil {
			log.Error("capture failed", "err", err)
			p.Quit()
			return err
		}
		return nil
	})
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.Metrics.Addr, list, log)
		})
	}

	_, runErr := p.Run()
	stop()
	srcErr := g.Wait()
	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	saveErr := groupStore.Save(saveCtx, list.Manual())

	var reportErr error
	if dir := c.String("report"); dir != "" {
		var path string
		if path, reportErr = reporting.GenerateSessionReport(list, dir, "html"); reportErr == nil {
			fmt.Println("Report written to", path)
		}
	}
	return errors.Join(runErr, srcErr, saveErr, reportErr)
}

func listGroups(c *cli.Context) error {
	cfg, err := loadGroupsConfig(c)
	if err != nil {
		return err
	}
	store, m, err := openGroups(c.Context, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ids := m.IDs()
	if len(ids) == 0 {
		fmt.Println("No manual groups.")
		return nil
	}
	for _, id := range ids {
		name := m.Names[id]
		if name == "" {
			name = "(unnamed)"
		}
		members := m.Members(id)
		addrs := make([]string, len(members))
		for i, addr := range members {
			addrs[i] = addr.String()
		}
		fmt.Printf("%s\t%s\t%s\n", id, name, strings.Join(addrs, ","))
	}
	return nil
}

// loadGroupsConfig reads only what the groups commands need, so no capture
// target is required.
func loadGroupsConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if c.IsSet("groups") {
		cfg.Groups.Path = c.String("groups")
	}
	if c.IsSet("groups-backend") {
		cfg.Groups.Backend = c.String("groups-backend")
	}
	return cfg, nil
}

func offlineReport(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Capture.File == "" || cfg.Capture.Source == "lumber" {
		return errors.New("report needs a pcap or tshark capture file (--file)")
	}
	log, closeLog, err := setupLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	groupStore, manual, err := openGroups(c.Context, cfg)
	if err != nil {
		return err
	}
	defer groupStore.Close()

	store := tracker.NewStore(nil)
	now := captureClock(cfg, store)
	list, err := newList(cfg, store, manual, now, log)
	if err != nil {
		return err
	}
	coal := feed.NewCoalescer()
	src, err := newSource(cfg, coal, nil, log)
	if err != nil {
		return err
	}
	if err := src.Run(c.Context); err != nil {
		return err
	}

	for _, sum := range coal.Flush() {
		store.ApplySummary(sum)
	}
	for _, addr := range store.Touched() {
		list.MarkDirty(addr)
	}
	if err := list.UpdateTrigger(); err != nil {
		log.Warn("malformed networks in capture", "err", err)
	}

	path, err := reporting.GenerateSessionReport(list, c.String("out"), "html")
	if err != nil {
		return err
	}
	fmt.Printf("Report written to %s (%d groups, %d networks)\n", path, list.Len(), store.Len())
	return nil
}
