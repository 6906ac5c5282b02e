package preview

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/blockstorm/internal/engine/model"
	"github.com/dshills/blockstorm/internal/engine/schema"
)

// Colors used by the default styles.
var (
	AccentColor    = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	MutedColor     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	CodeColor      = lipgloss.AdaptiveColor{Light: "#B4427A", Dark: "#E88AB4"}
	LinkColor      = lipgloss.AdaptiveColor{Light: "#1F6FEB", Dark: "#58A6FF"}
	SelectionColor = lipgloss.AdaptiveColor{Light: "#D0D7FF", Dark: "#3A3D66"}
)

// Styles holds the lipgloss styles used when rendering a document.
type Styles struct {
	Paragraph lipgloss.Style
	Heading   lipgloss.Style
	Quote     lipgloss.Style
	Code      lipgloss.Style
	Rule      lipgloss.Style
	Void      lipgloss.Style
	Inline    lipgloss.Style
	Table     lipgloss.Style

	Gutter    lipgloss.Style
	Cursor    lipgloss.Style
	Selection lipgloss.Style
	Selected  lipgloss.Style

	// Marks maps a mark type to the style of text carrying it. Marks
	// without an entry render unstyled.
	Marks map[model.MarkType]lipgloss.Style
}

// DefaultStyles builds the default styles on r.
func DefaultStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Paragraph: r.NewStyle(),
		Heading:   r.NewStyle().Bold(true).Foreground(AccentColor),
		Quote:     r.NewStyle().Foreground(MutedColor),
		Code:      r.NewStyle().Foreground(CodeColor),
		Rule:      r.NewStyle().Foreground(MutedColor),
		Void:      r.NewStyle().Foreground(MutedColor).Italic(true),
		Inline:    r.NewStyle().Foreground(AccentColor),
		Table:     r.NewStyle().Foreground(MutedColor),

		Gutter:    r.NewStyle().Foreground(MutedColor),
		Cursor:    r.NewStyle().Foreground(AccentColor).Bold(true),
		Selection: r.NewStyle().Background(SelectionColor),
		Selected:  r.NewStyle().Foreground(AccentColor).Bold(true),

		Marks: map[model.MarkType]lipgloss.Style{
			schema.Bold:      r.NewStyle().Bold(true),
			schema.Italic:    r.NewStyle().Italic(true),
			schema.Underline: r.NewStyle().Underline(true),
			schema.Strike:    r.NewStyle().Strikethrough(true),
			schema.Code:      r.NewStyle().Foreground(CodeColor),
			schema.Link:      r.NewStyle().Foreground(LinkColor).Underline(true),
		},
	}
}

// markStyle combines the styles of marks over base. A color mark sets the
// foreground from its value attribute.
func (s Styles) markStyle(base lipgloss.Style, marks []model.Mark) lipgloss.Style {
	style := base
	for _, m := range marks {
		if m.Type == schema.Color {
			if v := m.Attrs.String("value"); v != "" {
				style = style.Foreground(lipgloss.Color(v))
			}
			continue
		}
		if ms, ok := s.Marks[m.Type]; ok {
			style = ms.Inherit(style)
		}
	}
	return style
}
