// Package terminal is a tcell frontend for a single game session: a top-down
// view of the road, keyboard input and a blocking collision banner.
package terminal

import (
	"fmt"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/race/highway/config"
	"github.com/race/highway/internal/game"
)

// RowDepth is how many world units along z one terminal row covers.
const RowDepth = 2.0

const (
	dashLength     = 4.0 // centre line dash, world units
	maxColsPerUnit = 3.0

	playerRune = '▲'
	carRune    = '█'
)

var (
	roadStyle   = tcell.StyleDefault.Background(tcell.NewHexColor(0x333333)).Foreground(tcell.ColorWhite)
	edgeStyle   = roadStyle.Foreground(tcell.ColorYellow)
	playerStyle = tcell.StyleDefault.Background(tcell.ColorRed).Foreground(tcell.ColorWhite).Bold(true)
	hudStyle    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	alertStyle  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkRed).Bold(true)
)

// Renderer draws frames on a tcell screen. It implements game.FrameSink.
type Renderer struct {
	screen tcell.Screen
	tuning config.Tuning

	mu    sync.Mutex
	frame *game.Frame
	alert string
}

// NewRenderer draws on screen, which must already be initialised.
func NewRenderer(screen tcell.Screen, tuning config.Tuning) *Renderer {
	return &Renderer{screen: screen, tuning: tuning}
}

// Render implements game.FrameSink.
func (r *Renderer) Render(frame game.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frame = &frame
	r.draw()
}

// Redraw repaints the last frame, e.g. after a resize.
func (r *Renderer) Redraw() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draw()
}

// ShowAlert overlays message on the current frame until ClearAlert.
func (r *Renderer) ShowAlert(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.alert = message
	r.draw()
}

// ClearAlert removes the banner.
func (r *Renderer) ClearAlert() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.alert = ""
	r.draw()
}

// Alert returns the banner currently shown, if any.
func (r *Renderer) Alert() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alert
}

// layout is the mapping from world to screen for one screen size.
type layout struct {
	width, height int
	centerCol     int
	playerRow     int
	colsPerUnit   float64
}

func (r *Renderer) layout() layout {
	w, h := r.screen.Size()
	scale := math.Min(maxColsPerUnit, float64(w-2)/r.tuning.RoadWidth)
	if scale <= 0 {
		scale = 1
	}
	return layout{
		width:       w,
		height:      h,
		centerCol:   w / 2,
		playerRow:   h - 1 - h/4,
		colsPerUnit: scale,
	}
}

// project maps a world position relative to the player onto a cell. Larger x
// is further left on screen, as seen from the chase camera.
func (l layout) project(x, dz float64) (col, row int) {
	col = l.centerCol - int(math.Round(x*l.colsPerUnit))
	row = l.playerRow - int(math.Round(dz/RowDepth))
	return col, row
}

func (r *Renderer) draw() {
	r.screen.Clear()
	l := r.layout()
	if r.frame != nil {
		r.drawScene(l, r.frame)
		r.drawHUD(l, r.frame)
	}
	if r.alert != "" {
		r.drawBanner(l, r.alert)
	}
	r.screen.Show()
}

func (r *Renderer) drawScene(l layout, f *game.Frame) {
	backdrop := tcell.StyleDefault.Background(tcell.NewHexColor(int32(f.Backdrop)))
	half := r.tuning.RoadWidth / 2
	leftEdge, _ := l.project(half, 0)
	rightEdge, _ := l.project(-half, 0)

	for row := 1; row < l.height; row++ {
		dz := float64(l.playerRow-row) * RowDepth
		dash := int(math.Floor((dz+f.Road.Offset)/dashLength))%2 == 0

		for col := 0; col < l.width; col++ {
			switch {
			case col < leftEdge || col > rightEdge:
				r.screen.SetContent(col, row, ' ', nil, backdrop)
			case col == leftEdge || col == rightEdge:
				r.screen.SetContent(col, row, '│', nil, edgeStyle)
			case col == l.centerCol && dash:
				r.screen.SetContent(col, row, '┆', nil, roadStyle)
			default:
				r.screen.SetContent(col, row, ' ', nil, roadStyle)
			}
		}
	}

	pz := f.Player.Position.Z()
	for _, car := range f.Traffic {
		style := roadStyle.Foreground(tcell.NewHexColor(int32(car.Color)))
		r.fillBox(l, car.Position.X(), car.Position.Z()-pz, carRune, style)
	}
	r.fillBox(l, f.Player.Position.X(), 0, playerRune, playerStyle)
}

// fillBox draws a car footprint centred on (x, dz).
func (r *Renderer) fillBox(l layout, x, dz float64, ch rune, style tcell.Style) {
	hw, hl := r.tuning.CarWidth/2, r.tuning.CarLength/2
	left, front := l.project(x+hw, dz+hl)
	right, back := l.project(x-hw, dz-hl)

	for row := front; row <= back; row++ {
		if row < 1 || row >= l.height {
			continue
		}
		for col := left; col <= right; col++ {
			if col < 0 || col >= l.width {
				continue
			}
			r.screen.SetContent(col, row, ch, nil, style)
		}
	}
}

func (r *Renderer) drawHUD(l layout, f *game.Frame) {
	for col := 0; col < l.width; col++ {
		r.screen.SetContent(col, 0, ' ', nil, hudStyle)
	}
	near := "    -"
	if i, d := game.Nearest(f.Player, f.Traffic); i >= 0 {
		near = fmt.Sprintf("%5.1f", d)
	}
	text := fmt.Sprintf(" speed %6.1f  heading %+5.2f  near %s  sky %s  tick %d  q quits",
		f.Player.Speed, f.Player.Heading, near, game.HexColor(f.Backdrop), f.Tick)
	r.drawText(0, 0, text, hudStyle)
}

func (r *Renderer) drawBanner(l layout, message string) {
	text := "  " + message + "  "
	width := len([]rune(text))
	col := (l.width - width) / 2
	if col < 0 {
		col = 0
	}
	row := l.height / 2
	for c := col; c < col+width && c < l.width; c++ {
		r.screen.SetContent(c, row-1, ' ', nil, alertStyle)
		r.screen.SetContent(c, row+1, ' ', nil, alertStyle)
	}
	r.drawText(col, row, text, alertStyle)
}

func (r *Renderer) drawText(col, row int, text string, style tcell.Style) {
	for i, ch := range []rune(text) {
		r.screen.SetContent(col+i, row, ch, nil, style)
	}
}
