// Package preview renders an editor state as styled terminal text.
package preview

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/schema"
	"github.com/dshills/blockstorm/internal/engine/selection"
	"github.com/dshills/blockstorm/internal/engine/state"
)

// Selection markers.
const (
	CursorMark     = "│"
	RangeStartMark = "«"
	RangeEndMark   = "»"
	GapMark        = "_"
	NodeMark       = ">"
)

const defaultRuleWidth = 24

// Renderer turns editor states into text.
type Renderer struct {
	r         *lipgloss.Renderer
	styles    Styles
	width     int
	ids       bool
	selection bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithWidth wraps text to width columns. Zero disables wrapping.
func WithWidth(width int) Option {
	return func(r *Renderer) { r.width = width }
}

// WithBlockIDs prefixes each block with its id.
func WithBlockIDs(show bool) Option {
	return func(r *Renderer) { r.ids = show }
}

// WithSelection draws the cursor, selected ranges and node selections.
func WithSelection(show bool) Option {
	return func(r *Renderer) { r.selection = show }
}

// WithStyles replaces the default styles.
func WithStyles(s Styles) Option {
	return func(r *Renderer) { r.styles = s }
}

// New creates a renderer whose color profile matches w.
func New(w io.Writer, opts ...Option) *Renderer {
	if w == nil {
		w = os.Stdout
	}
	lr := lipgloss.NewRenderer(w)
	r := &Renderer{r: lr, styles: DefaultStyles(lr), selection: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type line struct {
	id     model.BlockID
	marker string
	text   string
}

// frame carries the per-render selection layout.
type frame struct {
	st        *state.EditorState
	cursor    selection.Position
	hasCursor bool
	rng       selection.Range
	hasRange  bool
	ranges    map[model.BlockID]selection.Segment
	node      model.BlockID
	gap       selection.GapCursor
	hasGap    bool
	idWidth   int
}

// Render returns st's document as text, one line per rendered row.
func (r *Renderer) Render(st *state.EditorState) string {
	f := r.layout(st)
	var lines []line
	for _, b := range st.Doc().Children {
		lines = append(lines, r.block(f, b, r.width)...)
	}

	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if r.ids {
			sb.WriteString(r.styles.Gutter.Render(fmt.Sprintf("%-*s", f.idWidth, l.id)))
			sb.WriteByte(' ')
		}
		if f.node != "" {
			marker := " "
			if l.marker != "" {
				marker = r.styles.Selected.Render(l.marker)
			}
			sb.WriteString(marker)
			sb.WriteByte(' ')
		}
		sb.WriteString(l.text)
	}
	return sb.String()
}

func (r *Renderer) layout(st *state.EditorState) *frame {
	f := &frame{
		st:     st,
		ranges: make(map[model.BlockID]selection.Segment),
	}
	model.Walk(st.Doc(), func(b *model.Block, _ model.Path, _ *model.Block) bool {
		if n := utf8.RuneCountInString(string(b.ID)); n > f.idWidth {
			f.idWidth = n
		}
		return true
	})
	if !r.selection || st.Selection() == nil {
		return f
	}
	switch sel := st.Selection().(type) {
	case selection.TextSelection:
		if sel.IsCollapsed() {
			f.cursor, f.hasCursor = sel.Head, true
			break
		}
		rng, ok := selection.ToRange(sel, st)
		if !ok {
			break
		}
		f.rng, f.hasRange = rng, true
		for _, seg := range selection.Segments(rng, st.GetBlockOrder(), st.BlockLength) {
			f.ranges[seg.BlockID] = seg
		}
	case selection.NodeSelection:
		f.node = sel.NodeID
	case selection.GapCursor:
		f.gap, f.hasGap = sel, true
	}
	return f
}

func (r *Renderer) block(f *frame, b *model.Block, width int) []line {
	var lines []line
	switch {
	case b.Type == schema.Blockquote:
		lines = r.prefixed(f, b.Children, r.styles.Quote.Render("│ "), "", width)
	case b.Type == schema.List:
		lines = r.list(f, b, width)
	case b.Type == schema.Table:
		lines = r.table(f, b)
	case b.Type == schema.HorizontalRule:
		w := width
		if w <= 0 {
			w = defaultRuleWidth
		}
		lines = []line{{id: b.ID, text: r.styles.Rule.Render(strings.Repeat("─", w))}}
	case f.st.Schema().IsVoid(b.Type):
		lines = []line{{id: b.ID, text: r.styles.Void.Render(voidLabel(b))}}
	case !b.IsLeaf():
		lines = r.prefixed(f, b.Children, "", "", width)
	default:
		lines = r.leaf(f, b, width)
	}

	if b.ID == f.node {
		for i := range lines {
			lines[i].marker = NodeMark
		}
	}
	if f.hasGap && f.gap.BlockID == b.ID {
		gap := line{id: b.ID, text: r.styles.Cursor.Render(GapMark)}
		if f.gap.Side == selection.Before {
			lines = append([]line{gap}, lines...)
		} else {
			lines = append(lines, gap)
		}
	}
	return lines
}

// prefixed renders block children with first on the first line and rest on
// the following ones.
func (r *Renderer) prefixed(f *frame, children []model.Node, first, rest string, width int) []line {
	if rest == "" {
		rest = first
	}
	inner := width
	if width > 0 {
		inner = max(width-lipgloss.Width(first), 1)
	}
	var lines []line
	for _, c := range children {
		child, ok := c.(*model.Block)
		if !ok {
			continue
		}
		for _, l := range r.block(f, child, inner) {
			if len(lines) == 0 {
				l.text = first + l.text
			} else {
				l.text = rest + l.text
			}
			lines = append(lines, l)
		}
	}
	return lines
}

func (r *Renderer) list(f *frame, b *model.Block, width int) []line {
	ordered, _ := b.Attrs["ordered"].(bool)
	var lines []line
	n := 0
	for _, c := range b.Children {
		item, ok := c.(*model.Block)
		if !ok {
			continue
		}
		n++
		bullet := "• "
		if ordered {
			bullet = fmt.Sprintf("%d. ", n)
		}
		pad := strings.Repeat(" ", lipgloss.Width(bullet))
		var itemLines []line
		if item.IsLeaf() {
			itemLines = r.leaf(f, item, width)
			if len(itemLines) > 0 {
				itemLines[0].text = bullet + itemLines[0].text
			}
		} else {
			itemLines = r.prefixed(f, item.Children, bullet, pad, width)
		}
		if item.ID == f.node {
			for i := range itemLines {
				itemLines[i].marker = NodeMark
			}
		}
		lines = append(lines, itemLines...)
	}
	return lines
}

// table renders each row on one line with cells separated by bars. Cell
// content is flattened.
func (r *Renderer) table(f *frame, b *model.Block) []line {
	bar := r.styles.Table.Render("|")
	var lines []line
	for _, rc := range b.Children {
		row, ok := rc.(*model.Block)
		if !ok {
			continue
		}
		cells := []string{}
		for _, cc := range row.Children {
			cell, ok := cc.(*model.Block)
			if !ok {
				continue
			}
			var parts []string
			for _, l := range r.block(f, cell, 0) {
				parts = append(parts, l.text)
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		lines = append(lines, line{
			id:   row.ID,
			text: bar + " " + strings.Join(cells, " "+bar+" ") + " " + bar,
		})
	}
	return lines
}

func (r *Renderer) leaf(f *frame, b *model.Block, width int) []line {
	base := r.styles.Paragraph
	prefix := ""
	switch b.Type {
	case schema.Heading:
		base = r.styles.Heading
		level, ok := b.Attrs.Int("level")
		if !ok || level < 1 {
			level = 1
		}
		prefix = base.Render(strings.Repeat("#", level) + " ")
	case schema.CodeBlock:
		base = r.styles.Code
	}

	text := prefix + r.inline(f, b, base)
	if width > 0 && b.Type != schema.CodeBlock {
		text = lipgloss.NewStyle().Width(width).Render(text)
	}
	rows := strings.Split(text, "\n")
	lines := make([]line, len(rows))
	for i, row := range rows {
		lines[i] = line{id: b.ID, text: strings.TrimRight(row, " ")}
		if i > 0 {
			lines[i].id = ""
		}
	}
	return lines
}

// inline renders leaf content with marks and selection markers. Offsets
// count UTF-16 units.
func (r *Renderer) inline(f *frame, b *model.Block, base lipgloss.Style) string {
	seg, hasRange := f.ranges[b.ID]
	selected := func(off int) bool {
		return hasRange && off >= seg.From && off < seg.To
	}

	var sb strings.Builder
	offset := 0
	for _, c := range b.Children {
		switch n := c.(type) {
		case *model.Text:
			style := r.styles.markStyle(base, n.Marks)
			var run strings.Builder
			runSelected := selected(offset)
			flush := func() {
				if run.Len() == 0 {
					return
				}
				s := style
				if runSelected {
					s = r.styles.Selection.Inherit(style)
				}
				sb.WriteString(s.Render(run.String()))
				run.Reset()
			}
			for _, ch := range n.Text {
				if m := r.markers(f, b.ID, offset); m != "" {
					flush()
					sb.WriteString(m)
				}
				if selected(offset) != runSelected {
					flush()
					runSelected = !runSelected
				}
				run.WriteRune(ch)
				offset += model.UTF16Len(string(ch))
			}
			flush()
		case *model.InlineNode:
			sb.WriteString(r.markers(f, b.ID, offset))
			style := r.styles.Inline
			if selected(offset) {
				style = r.styles.Selection.Inherit(style)
			}
			sb.WriteString(style.Render(inlineLabel(n)))
			offset++
		}
	}
	sb.WriteString(r.markers(f, b.ID, offset))
	return sb.String()
}

// markers returns the selection markers that sit at offset in block id.
func (r *Renderer) markers(f *frame, id model.BlockID, offset int) string {
	var out string
	at := func(p selection.Position) bool { return p.BlockID == id && p.Offset == offset }
	if f.hasCursor && at(f.cursor) {
		out += r.styles.Cursor.Render(CursorMark)
	}
	if f.hasRange && at(f.rng.From) {
		out += r.styles.Cursor.Render(RangeStartMark)
	}
	if f.hasRange && at(f.rng.To) {
		out += r.styles.Cursor.Render(RangeEndMark)
	}
	return out
}

func inlineLabel(n *model.InlineNode) string {
	switch n.InlineType {
	case schema.HardBreak:
		return "↵"
	case schema.Mention:
		for _, key := range []string{"label", "name", "id"} {
			if v := n.Attrs.String(key); v != "" {
				return "@" + v
			}
		}
		return "@"
	case schema.Emoji:
		if v := n.Attrs.String("char"); v != "" {
			return v
		}
		return ":" + n.Attrs.String("name") + ":"
	case schema.InlineImage:
		return "[img " + n.Attrs.String("src") + "]"
	}
	return "{" + string(n.InlineType) + "}"
}

func voidLabel(b *model.Block) string {
	for _, key := range []string{"alt", "src"} {
		if v := b.Attrs.String(key); v != "" {
			return fmt.Sprintf("[%s %s]", b.Type, v)
		}
	}
	return fmt.Sprintf("[%s]", b.Type)
}
