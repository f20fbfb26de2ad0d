package xlsxexport

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// StyleTemplate is a declarative cell style, loadable from YAML.
type StyleTemplate struct {
	Font      *FontTemplate      `yaml:"font"`
	Fill      *FillTemplate      `yaml:"fill"`
	Alignment *AlignmentTemplate `yaml:"alignment"`
	NumFmt    string             `yaml:"num_fmt"`
}

type FontTemplate struct {
	Bold  bool   `yaml:"bold"`
	Color string `yaml:"color"` // hex, with or without '#'
}

type FillTemplate struct {
	Color string `yaml:"color"`
}

type AlignmentTemplate struct {
	Horizontal string `yaml:"horizontal"` // left, center, right
	Vertical   string `yaml:"vertical"`   // top, center, bottom
	WrapText   bool   `yaml:"wrap_text"`
}

// DefaultHeaderStyle is bold, wrapped and centered.
func DefaultHeaderStyle() *StyleTemplate {
	return &StyleTemplate{
		Font:      &FontTemplate{Bold: true},
		Alignment: &AlignmentTemplate{Horizontal: "center", Vertical: "top", WrapText: true},
	}
}

// mergeStyle fills the sections base leaves unset from def.
func mergeStyle(base, def *StyleTemplate) *StyleTemplate {
	if base == nil {
		return def
	}
	s := *base
	if def == nil {
		return &s
	}
	if s.Font == nil {
		s.Font = def.Font
	}
	if s.Fill == nil {
		s.Fill = def.Fill
	}
	if s.Alignment == nil {
		s.Alignment = def.Alignment
	}
	if s.NumFmt == "" {
		s.NumFmt = def.NumFmt
	}
	return &s
}

// styleCache registers each distinct template once per workbook.
type styleCache struct {
	file *excelize.File
	ids  map[string]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{file: f, ids: make(map[string]int)}
}

func (c *styleCache) id(tmpl *StyleTemplate) (int, error) {
	if tmpl == nil {
		return 0, nil
	}

	var sb strings.Builder
	if tmpl.Font != nil {
		fmt.Fprintf(&sb, "f:%v:%s|", tmpl.Font.Bold, tmpl.Font.Color)
	}
	if tmpl.Fill != nil {
		fmt.Fprintf(&sb, "i:%s|", tmpl.Fill.Color)
	}
	if tmpl.Alignment != nil {
		fmt.Fprintf(&sb, "a:%s:%s:%v|", tmpl.Alignment.Horizontal, tmpl.Alignment.Vertical, tmpl.Alignment.WrapText)
	}
	fmt.Fprintf(&sb, "n:%s", tmpl.NumFmt)
	key := sb.String()

	if id, ok := c.ids[key]; ok {
		return id, nil
	}

	style := &excelize.Style{}
	if tmpl.Font != nil {
		style.Font = &excelize.Font{
			Bold:  tmpl.Font.Bold,
			Color: strings.TrimPrefix(tmpl.Font.Color, "#"),
		}
	}
	if tmpl.Fill != nil {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{strings.TrimPrefix(tmpl.Fill.Color, "#")},
			Pattern: 1,
		}
	}
	if tmpl.Alignment != nil {
		style.Alignment = &excelize.Alignment{
			Horizontal: tmpl.Alignment.Horizontal,
			Vertical:   tmpl.Alignment.Vertical,
			WrapText:   tmpl.Alignment.WrapText,
		}
	}
	if tmpl.NumFmt != "" {
		numFmt := tmpl.NumFmt
		style.CustomNumFmt = &numFmt
	}

	id, err := c.file.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	c.ids[key] = id
	return id, nil
}
