package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lixenwraith/vi-cue/audio"
	"github.com/lixenwraith/vi-cue/catalog"
	"github.com/lixenwraith/vi-cue/clock"
	"github.com/lixenwraith/vi-cue/cue"
	"github.com/lixenwraith/vi-cue/gesture"
	"github.com/lixenwraith/vi-cue/loop"
	"github.com/lixenwraith/vi-cue/sequencer"
	"github.com/lixenwraith/vi-cue/status"
)

const (
	trackTop    = 3
	trackMargin = 2
	barHeight   = 3
	columnWidth = 5
	linger      = 1500 * time.Millisecond
)

var (
	styleTitle  = tcell.StyleDefault.Bold(true)
	styleDim    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTrack  = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray)
	styleFill   = tcell.StyleDefault.Background(tcell.ColorTeal)
	styleDone   = tcell.StyleDefault.Background(tcell.ColorGreen)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// NewPlayCommand plays a cue interactively in the terminal
func NewPlayCommand(opts *RootOptions) *cobra.Command {
	var mute, watch bool

	cmd := &cobra.Command{
		Use:   "play <cue>",
		Short: "Play a cue in the terminal, drag tracks with the mouse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], mute, watch)
		},
	}
	cmd.Flags().BoolVar(&mute, "mute", false, "disable stage and completion tones")
	cmd.Flags().BoolVar(&watch, "watch", false, "remount the cue when the catalog file changes")
	return cmd
}

func runPlay(opts *RootOptions, name string, mute, watch bool) error {
	logger := opts.log()
	cat, err := opts.loadCatalog()
	if err != nil {
		return err
	}
	def, err := cat.Lookup(name)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	chime := audio.NewChime()
	if !mute {
		if err := chime.Initialize(); err != nil {
			// Non-fatal, cues run without sound
			logger.Warn("audio initialization failed", zap.Error(err))
		}
	}
	defer chime.Cleanup()

	var p *player
	l := loop.New(loop.WithLogger(logger), loop.WithCrashHandler(func(r any) {
		p.quit()
	}))
	p = newPlayer(screen, l, chime, status.NewRegistry(), logger)
	p.muted = mute
	l.Start()
	defer l.Stop()

	var mountErr error
	if err := l.Call(func() { mountErr = p.mount(def) }); err != nil {
		return err
	}
	if mountErr != nil {
		return mountErr
	}

	if watch && opts.Catalog != "" {
		w, err := catalog.NewWatcher(opts.Catalog, func(c *catalog.Catalog) {
			l.Post(func() { p.reload(c) })
		}, catalog.WithWatchLogger(logger))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			if !l.Post(func() { p.handle(ev) }) {
				return
			}
		}
	}()

	<-p.done
	_ = l.Call(p.dispose)
	return nil
}

// tones is the audio feedback the player drives, satisfied by *audio.Chime
type tones interface {
	PlayStage(index int)
	PlayComplete()
	PlayTick()
	SetMuted(muted bool)
}

// player hosts one cue on a terminal screen
// All methods except quit run on the clock's goroutine
type player struct {
	screen tcell.Screen
	clk    clock.Clock
	tones  tones
	reg    *status.Registry
	logger *zap.Logger

	def    cue.Definition
	cue    *cue.Cue
	layout map[string]gesture.Rect
	active string
	exit   clock.Timer
	muted  bool

	done      chan struct{}
	closeOnce sync.Once
}

func newPlayer(screen tcell.Screen, clk clock.Clock, t tones, reg *status.Registry, logger *zap.Logger) *player {
	return &player{
		screen: screen,
		clk:    clk,
		tones:  t,
		reg:    reg,
		logger: logger,
		layout: make(map[string]gesture.Rect),
		done:   make(chan struct{}),
	}
}

// mount swaps in a fresh instance of def
// The current cue stays mounted when def fails to mount
func (p *player) mount(def cue.Definition) error {
	layout := p.layoutFor(def)
	prevExit := p.exit
	p.exit = nil

	opts := []cue.Option{
		cue.WithLogger(p.logger),
		cue.WithStatus(p.reg),
		cue.OnStage(func(st sequencer.Stage) {
			p.tones.PlayStage(def.Plan.Index(st))
			p.draw()
		}),
		cue.OnFinished(func() {
			p.exit = p.clk.AfterFunc(linger, p.quit)
		}),
	}
	for _, name := range def.GestureNames() {
		n := name
		surf := gesture.SurfaceFunc(func() gesture.Rect { return p.layout[n] })
		opts = append(opts, cue.WithSurface(n, surf, nil))
	}

	c, err := cue.Mount(def, p.clk, opts...)
	if err != nil {
		p.exit = prevExit
		return err
	}
	if prevExit != nil {
		prevExit.Stop()
	}
	if p.cue != nil {
		p.cue.Dispose()
	}
	p.def, p.cue, p.layout, p.active = def, c, layout, ""
	p.draw()
	return nil
}

// reload remounts the cue from a changed catalog, keeping the current one if it vanished
func (p *player) reload(cat *catalog.Catalog) {
	def, err := cat.Lookup(p.def.Name)
	if err != nil {
		p.logger.Warn("cue missing after reload", zap.String("cue", p.def.Name), zap.Error(err))
		return
	}
	if err := p.mount(def); err != nil {
		p.logger.Warn("remount failed", zap.String("cue", def.Name), zap.Error(err))
	}
}

func (p *player) dispose() {
	if p.exit != nil {
		p.exit.Stop()
		p.exit = nil
	}
	if p.cue != nil {
		p.cue.Dispose()
		p.cue = nil
	}
	p.active = ""
}

func (p *player) quit() {
	p.closeOnce.Do(func() { close(p.done) })
}

// handle applies one terminal event
func (p *player) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		p.layout = p.layoutFor(p.def)
		p.screen.Sync()

	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
			p.quit()
			return
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'r':
				if err := p.mount(p.def); err != nil {
					p.logger.Warn("restart failed", zap.Error(err))
				}
				return
			case 'm':
				p.muted = !p.muted
				p.tones.SetMuted(p.muted)
			}
		}

	case *tcell.EventMouse:
		col, row := ev.Position()
		p.pointer(ev.Buttons()&tcell.Button1 != 0, float64(col)+0.5, float64(row)+0.5)
	}
	p.draw()
}

// pointer maps button state to gesture press, drag and release
// Cell centres are used so the last cell of a track reaches full progress
func (p *player) pointer(down bool, x, y float64) {
	if p.cue == nil {
		return
	}
	if !down {
		if p.active != "" {
			p.cue.End(p.active)
			p.active = ""
		}
		return
	}
	if p.active == "" {
		name, ok := p.cue.Hit(x, y)
		if !ok || !p.cue.Start(name, x, y) {
			return
		}
		p.active = name
	}

	before, _ := p.cue.Gesture(p.active)
	p.cue.Move(p.active, x, y)
	after, _ := p.cue.Gesture(p.active)
	switch {
	case after.Completed && !before.Completed:
		p.tones.PlayComplete()
	case after.Progress != before.Progress && p.onSnapPoint(p.active, after.Progress):
		p.tones.PlayTick()
	}
}

// onSnapPoint reports whether progress sits exactly on one of the gesture's snap points
func (p *player) onSnapPoint(name string, progress float64) bool {
	for _, g := range p.def.Gestures {
		if g.Name != name {
			continue
		}
		for _, sp := range g.SnapPoints {
			if sp == progress {
				return true
			}
		}
	}
	return false
}

// layoutFor splits the screen into one column per gesture of def
func (p *player) layoutFor(def cue.Definition) map[string]gesture.Rect {
	layout := make(map[string]gesture.Rect)
	names := def.GestureNames()
	if len(names) == 0 {
		return layout
	}
	w, h := p.screen.Size()
	colW := w / len(names)
	avail := h - trackTop - trackMargin

	for i, name := range names {
		left := i*colW + trackMargin
		width := colW - 2*trackMargin
		var x, y, rw, rh int
		switch def.Gestures[i].Axis {
		case gesture.AxisX:
			x, y, rw, rh = left, trackTop+(avail-barHeight)/2, width, barHeight
		case gesture.AxisY:
			x, y, rw, rh = left+(width-columnWidth)/2, trackTop, columnWidth, avail
		default:
			side := min(width, avail)
			x, y, rw, rh = left+(width-side)/2, trackTop, side, side
		}
		r := gesture.Rect{Left: float64(x), Top: float64(y), Width: float64(rw), Height: float64(rh)}
		if r.Empty() {
			r = gesture.Rect{}
		}
		layout[name] = r
	}
	return layout
}

func (p *player) draw() {
	if p.cue == nil {
		return
	}
	p.screen.Clear()
	w, h := p.screen.Size()

	drawText(p.screen, 1, 0, styleTitle, fmt.Sprintf("%s  [%s]", p.def.Name, p.cue.Stage()))
	hint := "waiting"
	switch {
	case p.cue.Finished():
		hint = "done"
	case p.cue.Interactive():
		hint = fmt.Sprintf("drag to unlock (%s)", p.def.Gate)
	}
	drawText(p.screen, 1, 1, styleDim, hint+"   r: restart  m: mute  q: quit")

	for i, name := range p.def.GestureNames() {
		st, _ := p.cue.Gesture(name)
		p.drawTrack(p.layout[name], p.def.Gestures[i].Axis, st)
	}

	drawText(p.screen, 1, h-1, styleStatus, truncate(p.reg.Summary(), w-2))
	p.screen.Show()
}

// drawTrack paints r with the filled share of progress
func (p *player) drawTrack(r gesture.Rect, axis gesture.Axis, st gesture.State) {
	if r.Empty() {
		return
	}
	fill := styleFill
	if st.Completed {
		fill = styleDone
	}
	base := styleTrack
	if !p.cue.Interactive() {
		base = styleDim.Reverse(true)
	}

	left, top := int(r.Left), int(r.Top)
	for row := top; row < top+int(r.Height); row++ {
		for col := left; col < left+int(r.Width); col++ {
			cx, cy := float64(col)+0.5, float64(row)+0.5
			style := base
			if gesture.Normalize(r, axis, cx, cy) <= st.Progress && st.Progress > 0 {
				style = fill
			}
			p.screen.SetContent(col, row, ' ', nil, style)
		}
	}
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
