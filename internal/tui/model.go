package tui

import (
	"gonetlist/internal/config"
	"gonetlist/internal/feed"
	"gonetlist/internal/groups"
	"gonetlist/internal/models"
	"gonetlist/internal/netlist"
	"gonetlist/internal/tracker"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	feedInterval = 250 * time.Millisecond
	drawInterval = time.Second
)

// Options wires a Model to the rest of the program. List, Store and Coalescer
// are required.
type Options struct {
	List      *netlist.Netlist
	Store     *tracker.Store
	Coalescer *feed.Coalescer
	Updates   <-chan models.Update
	Groups    groups.Store

	Source      string
	DecayAfter  time.Duration
	ExpireAfter time.Duration
	ReportDir   string

	ConfigPath string
	Watcher    *config.Watcher
	Logger     *slog.Logger
	Now        func() time.Time
}

// Model is the Bubble Tea program. The netlist, the store and the groups store
// are only touched from Update.
type Model struct {
	list    *netlist.Netlist
	store   *tracker.Store
	coal    *feed.Coalescer
	updates <-chan models.Update
	groups  groups.Store

	source      string
	decayAfter  time.Duration
	expireAfter time.Duration
	reportDir   string
	configPath  string
	watcher     *config.Watcher
	log         *slog.Logger
	now         func() time.Time

	keys  keyMap
	help  help.Model
	input textinput.Model

	renaming netlist.GroupID
	editing  bool
	tagged   map[models.MAC]struct{}

	status   string
	ups, fps float64
	width    int
	height   int
}

func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "group name"
	ti.CharLimit = 64
	ti.Prompt = "Name: "

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	decay := opts.DecayAfter
	if decay <= 0 {
		decay = 3 * time.Second
	}
	dir := opts.ReportDir
	if dir == "" {
		dir = "."
	}

	return Model{
		list:        opts.List,
		store:       opts.Store,
		coal:        opts.Coalescer,
		updates:     opts.Updates,
		groups:      opts.Groups,
		source:      opts.Source,
		decayAfter:  decay,
		expireAfter: opts.ExpireAfter,
		reportDir:   dir,
		configPath:  opts.ConfigPath,
		watcher:     opts.Watcher,
		log:         log,
		now:         now,
		keys:        defaultKeys(),
		help:        help.New(),
		input:       ti,
		tagged:      make(map[models.MAC]struct{}),
	}
}

type feedTickMsg time.Time

type drawTickMsg time.Time

type configChangedMsg struct{}

func (m Model) Init() tea.Cmd {
	return tea.Batch(feedTickCmd(), drawTickCmd(), m.waitForConfig())
}

func feedTickCmd() tea.Cmd {
	return tea.Tick(feedInterval, func(t time.Time) tea.Msg {
		return feedTickMsg(t)
	})
}

func drawTickCmd() tea.Cmd {
	return tea.Tick(drawInterval, func(t time.Time) tea.Msg {
		return drawTickMsg(t)
	})
}

func (m Model) waitForConfig() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	changes := m.watcher.Changes()
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return configChangedMsg{}
	}
}
