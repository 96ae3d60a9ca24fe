// Package shell is the terminal presentation layer: it renders the navigation state and the
// mounted chapter, forwards keys and pointer motion, and wires the services together.
package shell

import (
	"errors"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/unveil/audio"
	"github.com/lixenwraith/unveil/chapter"
	"github.com/lixenwraith/unveil/clock"
	"github.com/lixenwraith/unveil/navigation"
	"github.com/lixenwraith/unveil/policy"
	"github.com/lixenwraith/unveil/sched"
	"github.com/lixenwraith/unveil/status"
	"github.com/lixenwraith/unveil/vmath"
)

const (
	backgroundVolume = 0.15
	pointerStep      = 4.0
	defaultFrame     = time.Second / 30
)

// ErrNoSchedule is returned when the app is built without an unlock schedule
var ErrNoSchedule = errors.New("no unlock schedule")

// Options configure an App
type Options struct {
	Schedule      *policy.Schedule
	Clock         clock.TimeProvider
	Address       *url.URL
	History       navigation.HistoryMode
	Content       *chapter.Content
	Catalog       *chapter.Catalog
	Registry      *status.Registry
	FrameInterval time.Duration
	Muted         bool
	Rand          *vmath.FastRand
}

// App owns navigation, the stage and the audio coordinator for one session
// Everything except Handle's caller, Quit and Done runs on the scheduler
type App struct {
	opts   Options
	sched  sched.Scheduler
	timers *sched.TimerSet
	screen tcell.Screen
	reg    *status.Registry

	history *navigation.MemoryHistory
	nav     *navigation.Navigator
	coord   *audio.Coordinator
	stage   *chapter.Stage
	sampler *clock.Sampler

	background audio.Track
	selected   int
	pointer    vmath.Point
	gestured   bool
	booted     bool

	quit     chan struct{}
	quitOnce sync.Once
}

// NewApp validates options and fills defaults; nothing runs until Boot
func NewApp(s sched.Scheduler, opts Options) (*App, error) {
	if opts.Schedule == nil {
		return nil, ErrNoSchedule
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewSystemProvider()
	}
	if opts.Address == nil {
		opts.Address = &url.URL{}
	}
	if opts.Content == nil {
		content, err := chapter.DefaultContent()
		if err != nil {
			return nil, err
		}
		opts.Content = content
	}
	if opts.Catalog == nil {
		opts.Catalog = chapter.DefaultCatalog()
	}
	if opts.Registry == nil {
		opts.Registry = status.NewRegistry()
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = defaultFrame
	}
	return &App{
		opts:    opts,
		sched:   s,
		reg:     opts.Registry,
		sampler: clock.NewSampler(opts.Clock, s, clock.DefaultSampleInterval, opts.Registry),
		pointer: vmath.Center,
		quit:    make(chan struct{}),
	}, nil
}

// Boot resolves the initial state, mounts it and starts drawing
// A nil screen runs headless
func (a *App) Boot(screen tcell.Screen, backend audio.Backend) {
	if a.booted {
		return
	}
	a.booted = true
	a.screen = screen
	a.timers = sched.NewTimerSet(a.sched)

	if backend == nil {
		backend = audio.NewSilentBackend(false)
	}
	a.coord = audio.NewCoordinator(backend, a.sched,
		audio.WithMuted(a.opts.Muted), audio.WithRegistry(a.reg))
	bg, err := a.coord.NewTrack(audio.Voice{Name: "background", Kind: audio.VoiceDrone},
		audio.TrackOptions{DefaultVolume: backgroundVolume, Background: true, ResumeOnUnmute: true})
	if err == nil {
		a.background = bg
	}

	a.history = navigation.NewMemoryHistory(a.opts.Address)
	a.nav = navigation.NewNavigator(navigation.NewResolver(a.opts.Schedule), a.opts.Clock,
		a.history, a.opts.History, a.reg)

	params := navigation.ParseParams(a.history.Current())
	a.stage = chapter.NewStage(a.opts.Catalog, chapter.Env{
		Scheduler: a.sched,
		Audio:     a.coord,
		Registry:  a.reg,
		Content:   a.opts.Content,
		Fast:      params.Fast,
		Rand:      a.opts.Rand,
		Frame:     a.opts.FrameInterval,
	})
	a.nav.Subscribe(a.stage.OnNavigate)
	a.stage.Show(a.nav.State())

	a.sampler.Subscribe(a.nav.Refresh)

	if a.screen != nil {
		a.timers.Every(a.opts.FrameInterval, a.Draw)
		a.Draw()
	}
}

// Shutdown unmounts everything and releases audio; runs on the scheduler
func (a *App) Shutdown() {
	if !a.booted {
		return
	}
	a.timers.Close()
	a.sampler.Stop()
	a.stage.Close()
	a.coord.Close()
	a.booted = false
	log.Printf("[shell] status at shutdown: %v", a.reg.Snapshot())
}

// Sampler returns the clock sampler driving time-dependent refreshes
func (a *App) Sampler() *clock.Sampler { return a.sampler }

// Navigator returns the navigator, nil before Boot
func (a *App) Navigator() *navigation.Navigator { return a.nav }

// Stage returns the stage, nil before Boot
func (a *App) Stage() *chapter.Stage { return a.stage }

// Coordinator returns the audio coordinator, nil before Boot
func (a *App) Coordinator() *audio.Coordinator { return a.coord }

// Quit requests the session to end; safe from any goroutine
func (a *App) Quit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// Done is closed once Quit was requested
func (a *App) Done() <-chan struct{} {
	return a.quit
}

// Handle processes one terminal event; runs on the scheduler
func (a *App) Handle(ev tcell.Event) {
	if !a.booted {
		return
	}
	switch ev := ev.(type) {
	case *tcell.EventKey:
		a.gesture()
		a.Dispatch(Translate(ev))
		a.Draw()
	case *tcell.EventMouse:
		if a.screen != nil {
			x, y := ev.Position()
			a.movePointer(a.pointerAt(x, y))
		}
		if ev.Buttons()&tcell.Button1 != 0 {
			a.gesture()
		}
	case *tcell.EventResize:
		if a.screen != nil {
			a.screen.Sync()
		}
		a.Draw()
	}
}

// Dispatch applies one intent to the current view
func (a *App) Dispatch(in Intent) {
	st := a.nav.State()
	view := st.View()
	q := a.stage.Question()
	asking := view == navigation.ViewHub && !q.Accepted()

	switch in.Cmd {
	case CmdQuit:
		a.Quit()
	case CmdMute:
		a.coord.ToggleMute()
	case CmdBack:
		a.nav.Back()
	case CmdEnter:
		switch {
		case view == navigation.ViewGate:
			a.nav.Enter()
		case asking:
			q.Yes()
		case view == navigation.ViewHub:
			a.nav.Open(a.selectedID())
		default:
			a.chapterAction()
		}
	case CmdOpen:
		if !asking {
			a.nav.Open(in.Chapter)
		}
	case CmdYes:
		if asking {
			q.Yes()
		}
	case CmdNo:
		if asking {
			q.Dodge()
		}
	case CmdSkip:
		a.stage.Action(chapter.ActionSkip)
	case CmdAction:
		a.chapterAction()
	case CmdUp, CmdDown:
		if view == navigation.ViewHub {
			a.moveSelection(in.Cmd)
			return
		}
		d := pointerStep
		if in.Cmd == CmdUp {
			d = -d
		}
		a.movePointer(vmath.Point{X: a.pointer.X, Y: a.pointer.Y + d})
	case CmdLeft, CmdRight:
		d := pointerStep
		if in.Cmd == CmdLeft {
			d = -d
		}
		a.movePointer(vmath.Point{X: a.pointer.X + d, Y: a.pointer.Y})
	}
}

func (a *App) chapterAction() {
	cur := a.stage.Current()
	if cur == nil {
		return
	}
	if name := cur.View().Action; name != "" {
		cur.Action(name)
	}
}

// pointerAt maps a screen cell to percent space, through the field when a chapter draws one
func (a *App) pointerAt(x, y int) vmath.Point {
	w, h := a.screen.Size()
	if cur := a.stage.Current(); cur != nil && cur.Mounted() {
		if v := cur.View(); v.Meter {
			x0, y0, fw, fh := fieldRect(w, h, len(v.Lines))
			px, py := Percent(x-x0, y-y0, fw, fh)
			return vmath.Point{X: px, Y: py}
		}
	}
	px, py := Percent(x, y, w, h)
	return vmath.Point{X: px, Y: py}
}

func (a *App) movePointer(p vmath.Point) {
	a.pointer = p.Clamp(0, 100)
	a.stage.Pointer(a.pointer.X, a.pointer.Y)
}

func (a *App) moveSelection(cmd Command) {
	ids := a.opts.Catalog.IDs()
	if len(ids) == 0 {
		return
	}
	if cmd == CmdUp {
		a.selected--
	} else {
		a.selected++
	}
	a.selected = (a.selected + len(ids)) % len(ids)
}

func (a *App) selectedID() policy.ChapterID {
	ids := a.opts.Catalog.IDs()
	if len(ids) == 0 {
		return policy.NoChapter
	}
	return ids[a.selected%len(ids)]
}

// gesture lifts autoplay rejection; the first one starts the background track
func (a *App) gesture() {
	a.coord.Backend().Gesture()
	if a.gestured {
		return
	}
	a.gestured = true
	a.coord.PlayBackground()
}
