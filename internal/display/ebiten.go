package display

import (
	"image/color"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/junsooki/FrameFade/internal/clock"
	"github.com/junsooki/FrameFade/internal/config"
	"github.com/junsooki/FrameFade/internal/frame"
	"github.com/junsooki/FrameFade/internal/logger"
	"github.com/junsooki/FrameFade/internal/render"
)

const (
	sidebarW     = 240
	sidebarChars = 36
)

var keyBindings = []struct {
	key    ebiten.Key
	action Action
}{
	{ebiten.KeySpace, ActionPause},
	{ebiten.KeyE, ActionExplain},
	{ebiten.KeyS, ActionExport},
	{ebiten.KeyEscape, ActionQuit},
}

// EbitenDisplay paints the crossfade with Ebitengine. It is also the
// render clock: scheduled callbacks run once per Update on the game
// goroutine.
type EbitenDisplay struct {
	clock.Registry

	src     Source
	conf    config.Player
	actions map[Action]func()
	log     *logger.Logger

	images map[*frame.Frame]*ebiten.Image
	used   map[*frame.Frame]struct{}
	panel  *ebiten.Image
	quit   atomic.Bool
}

// NewEbitenDisplay creates an Ebitengine-based display.
func NewEbitenDisplay(src Source, conf config.Player, log *logger.Logger) *EbitenDisplay {
	if log == nil {
		log = logger.Nop()
	}
	return &EbitenDisplay{
		src:     src,
		conf:    conf,
		actions: make(map[Action]func()),
		log:     log.Component("display"),
		images:  make(map[*frame.Frame]*ebiten.Image),
		used:    make(map[*frame.Frame]struct{}),
	}
}

// Handle binds fn to a user action. Handlers run on the game goroutine.
func (d *EbitenDisplay) Handle(a Action, fn func()) { d.actions[a] = fn }

// Run starts the Ebitengine game loop. Must be called from the main goroutine.
func (d *EbitenDisplay) Run() error {
	ebiten.SetWindowSize(d.conf.Width, d.conf.Height)
	ebiten.SetWindowTitle(d.conf.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(d)
}

// Quit ends the game loop on the next update. Safe from any goroutine.
func (d *EbitenDisplay) Quit() { d.quit.Store(true) }

// --- ebiten.Game interface ---

func (d *EbitenDisplay) Update() error {
	d.Fire(time.Now())
	for _, b := range keyBindings {
		if !inpututil.IsKeyJustPressed(b.key) {
			continue
		}
		d.log.Debug().Stringer("action", b.action).Msg("key")
		if b.action == ActionQuit {
			d.quit.Store(true)
		}
		if fn := d.actions[b.action]; fn != nil {
			fn()
		}
	}
	if d.quit.Load() {
		return ebiten.Termination
	}
	return nil
}

func (d *EbitenDisplay) Draw(screen *ebiten.Image) {
	scene := d.src.Scene()
	sw, sh := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())

	clear(d.used)
	for _, cmd := range scene.Commands {
		f, ok := d.src.Frame(cmd.Index)
		if !ok || f.Image == nil {
			continue
		}
		img := d.image(f)
		fw := float64(f.Width)
		p := render.CoverFit(fw, float64(f.Height), sw, sh)

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(p.Scale(fw), p.Scale(fw))
		op.GeoM.Translate(p.X, p.Y)
		op.ColorScale.ScaleAlpha(float32(cmd.Alpha))
		op.Filter = ebiten.FilterLinear
		screen.DrawImage(img, op)
	}
	d.release()

	if d.conf.Sidebar {
		d.drawSidebar(screen, sidebarText(scene, d.conf.Capacity, sidebarChars))
	}
}

func (d *EbitenDisplay) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// image returns the GPU copy of f, uploading it on first use.
func (d *EbitenDisplay) image(f *frame.Frame) *ebiten.Image {
	d.used[f] = struct{}{}
	if img, ok := d.images[f]; ok {
		return img
	}
	img := ebiten.NewImageFromImage(f.Image)
	d.images[f] = img
	return img
}

// release frees images of frames that were not drawn this refresh. The
// ring buffer may have evicted them already.
func (d *EbitenDisplay) release() {
	for f, img := range d.images {
		if _, ok := d.used[f]; !ok {
			img.Deallocate()
			delete(d.images, f)
		}
	}
}

func (d *EbitenDisplay) drawSidebar(screen *ebiten.Image, text string) {
	if d.panel == nil {
		d.panel = ebiten.NewImage(1, 1)
		d.panel.Fill(color.White)
	}
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	x := sw - sidebarW
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(sidebarW, float64(sh))
	op.GeoM.Translate(float64(x), 0)
	op.ColorScale.Scale(0.07, 0.07, 0.09, 1)
	op.ColorScale.ScaleAlpha(0.75)
	screen.DrawImage(d.panel, op)
	ebitenutil.DebugPrintAt(screen, text, x+12, 12)
}
