// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package navigator

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mattn/go-runewidth"

	"codello.dev/berview/ber"
	"codello.dev/berview/render"
)

const helpText = "↑↓ move  →/enter expand  ← collapse  c collapse siblings  / search  q quit"

// Palette maps the kinds of rendered values and the interface elements to
// styles.
type Palette struct {
	Values    map[render.Kind]tcell.Style
	Default   tcell.Style
	Selection tcell.Style
	Status    tcell.Style
}

// ColorPalette returns the default colored palette.
func ColorPalette() Palette {
	return Palette{
		Values: map[render.Kind]tcell.Style{
			render.KindInteger: tcell.StyleDefault.Foreground(tcell.ColorTeal),
			render.KindString:  tcell.StyleDefault.Foreground(tcell.ColorGreen),
			render.KindBoolean: tcell.StyleDefault.Foreground(tcell.ColorPurple),
			render.KindIP:      tcell.StyleDefault.Foreground(tcell.ColorOlive),
			render.KindTime:    tcell.StyleDefault.Foreground(tcell.ColorNavy),
			render.KindHex:     tcell.StyleDefault.Foreground(tcell.ColorGray),
		},
		Default:   tcell.StyleDefault,
		Selection: tcell.StyleDefault.Reverse(true),
		Status:    tcell.StyleDefault.Reverse(true),
	}
}

// MonochromePalette returns a palette that only uses reverse video.
func MonochromePalette() Palette {
	return Palette{
		Default:   tcell.StyleDefault,
		Selection: tcell.StyleDefault.Reverse(true),
		Status:    tcell.StyleDefault.Reverse(true),
	}
}

func (p Palette) value(k render.Kind) tcell.Style {
	if s, ok := p.Values[k]; ok {
		return s
	}
	return p.Default
}

// A Browser displays a Tree on a terminal screen. The last line of the
// screen is a status bar showing the path, type and location of the current
// object.
type Browser struct {
	Palette   Palette
	Formatter *render.Formatter
	Logger    *slog.Logger

	screen tcell.Screen
	tree   *Tree
	view   Viewport

	searching bool
	input     []rune // query being typed
	query     string // last submitted query
	message   string // shown in the status bar until the next key
}

// NewBrowser creates a Browser for roots on screen. The screen must be
// initialized and is not finalized by the Browser.
func NewBrowser(screen tcell.Screen, roots ...*ber.Object) *Browser {
	return &Browser{
		Palette:   ColorPalette(),
		Formatter: &render.Formatter{},
		screen:    screen,
		tree:      NewTree(roots...),
	}
}

// Tree returns the navigation state of b.
func (b *Browser) Tree() *Tree {
	return b.tree
}

// Run draws the tree and processes events until the user quits or the
// screen is finalized.
func (b *Browser) Run() error {
	b.Draw()
	for {
		switch ev := b.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			b.screen.Sync()
		case *tcell.EventKey:
			if b.HandleKey(ev) {
				return nil
			}
		}
		b.Draw()
	}
}

// HandleKey applies the operation bound to ev. It reports whether ev asks to
// quit. While a search query is being typed, keys edit the query instead.
func (b *Browser) HandleKey(ev *tcell.EventKey) (quit bool) {
	b.message = ""
	if b.searching {
		b.handleSearchKey(ev)
		return false
	}
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		b.tree.Prev()
	case tcell.KeyDown:
		b.tree.Next()
	case tcell.KeyRight, tcell.KeyEnter:
		b.tree.Expand()
	case tcell.KeyLeft:
		b.tree.Collapse()
	case tcell.KeyPgUp:
		b.repeat(b.tree.Prev)
	case tcell.KeyPgDn:
		b.repeat(b.tree.Next)
	case tcell.KeyHome:
		b.tree.First()
	case tcell.KeyEnd:
		b.tree.Last()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'k':
			b.tree.Prev()
		case 'j':
			b.tree.Next()
		case 'l':
			b.tree.Expand()
		case 'h':
			b.tree.Collapse()
		case 'c':
			b.tree.CollapseSiblings()
		case '/':
			b.searching = true
			b.input = b.input[:0]
		case 'n':
			b.find()
		}
	}
	if b.Logger != nil {
		b.Logger.Debug("key", slog.String("component", "navigator"),
			slog.String("key", ev.Name()),
			slog.String("current", b.tree.Current().Path()))
	}
	return false
}

// handleSearchKey edits the search query. Enter submits it, Esc abandons it.
func (b *Browser) handleSearchKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		b.searching = false
	case tcell.KeyEnter:
		b.searching = false
		b.query = string(b.input)
		b.find()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(b.input) > 0 {
			b.input = b.input[:len(b.input)-1]
		}
	case tcell.KeyRune:
		b.input = append(b.input, ev.Rune())
	}
}

// find moves the cursor to the next object whose name fuzzily matches the
// last submitted query.
func (b *Browser) find() {
	if b.query == "" {
		return
	}
	found := b.tree.Find(func(o *ber.Object) bool {
		return fuzzy.MatchFold(b.query, o.Name)
	})
	if !found {
		b.message = "not found: " + b.query
	}
}

// repeat calls move once per line of the tree area or until it fails.
func (b *Browser) repeat(move func() bool) {
	_, h := b.screen.Size()
	for range max(h-1, 1) {
		if !move() {
			return
		}
	}
}

// Draw renders the visible part of the tree and the status bar.
func (b *Browser) Draw() {
	b.screen.Clear()
	w, h := b.screen.Size()
	if h < 1 {
		b.screen.Show()
		return
	}

	var lines []*ber.Object
	var depths []int
	cur := 0
	for depth, o := range b.tree.Visible() {
		if o == b.tree.Current() {
			cur = len(lines)
		}
		lines = append(lines, o)
		depths = append(depths, depth)
	}
	b.view.Height = h - 1
	b.view.Follow(cur, len(lines))

	for row := 0; row < b.view.Height && b.view.Top+row < len(lines); row++ {
		i := b.view.Top + row
		b.drawLine(row, w, depths[i], lines[i], i == cur)
	}
	b.drawStatus(h-1, w)
	b.screen.Show()
}

func (b *Browser) drawLine(y, w, depth int, o *ber.Object, selected bool) {
	base := b.Palette.Default
	if selected {
		base = b.Palette.Selection
	}
	marker := "  "
	if o.Compound() {
		marker = "- "
		if o.Collapsed {
			marker = "+ "
		}
	}
	x := b.print(0, y, w, base, strings.Repeat("  ", depth)+marker+o.Name)
	if o.Compound() {
		x = b.print(x, y, w, base, " ("+o.Type.String()+")")
	} else {
		s, kind := b.Formatter.Value(o)
		x = b.print(x, y, w, base, ": ")
		style := b.Palette.value(kind)
		if selected {
			style = style.Reverse(true)
		}
		x = b.print(x, y, w, style, s)
	}
	if selected {
		b.fill(x, y, w, base)
	}
}

func (b *Browser) drawStatus(y, w int) {
	switch {
	case b.searching:
		x := b.print(0, y, w, b.Palette.Status, "/"+string(b.input))
		b.fill(x, y, w, b.Palette.Status)
		return
	case b.message != "":
		x := b.print(0, y, w, b.Palette.Status, b.message)
		b.fill(x, y, w, b.Palette.Status)
		return
	}
	o := b.tree.Current()
	status := o.Path() + " : " + o.Type.String() +
		" @" + strconv.FormatInt(o.Header.Offset, 10) +
		" " + strconv.Itoa(o.Header.Length) + " bytes"
	if env, ok := o.Envelope(); ok {
		status += " in @" + strconv.FormatInt(env.Offset, 10)
	}
	x := b.print(0, y, w, b.Palette.Status, status)
	if pad := w - x - runewidth.StringWidth(helpText) - 2; pad > 0 {
		x = b.print(x, y, w, b.Palette.Status, strings.Repeat(" ", pad+1)+helpText)
	}
	b.fill(x, y, w, b.Palette.Status)
}

// print draws s at (x, y), clipped at w, and returns the column after it.
func (b *Browser) print(x, y, w int, style tcell.Style, s string) int {
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if x+rw > w {
			break
		}
		b.screen.SetContent(x, y, r, nil, style)
		x += rw
	}
	return x
}

func (b *Browser) fill(x, y, w int, style tcell.Style) {
	for ; x < w; x++ {
		b.screen.SetContent(x, y, ' ', nil, style)
	}
}
