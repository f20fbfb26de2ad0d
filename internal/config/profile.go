package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/locvowork/sql2xlsx/pkg/xlsxexport"
)

// Profile tunes one export. It is loaded from YAML:
//
//	sheet_name: Orders
//	chunk_size: 5000
//	prefetch: true
//	width:
//	  min: 6
//	  full_length_limit: 25
//	  percentile: 90
//	header:
//	  height: 26
//	  style:
//	    font: {bold: true, color: "#FFFFFF"}
//	    fill: {color: "#4F81BD"}
//	number_format: "#,##0.00"
type Profile struct {
	SheetName    string        `yaml:"sheet_name"`
	ChunkSize    int           `yaml:"chunk_size"`
	Prefetch     bool          `yaml:"prefetch"`
	Width        WidthProfile  `yaml:"width"`
	Header       HeaderProfile `yaml:"header"`
	NumberFormat string        `yaml:"number_format"`
	Freeze       *bool         `yaml:"freeze_header"`
	AutoFilter   *bool         `yaml:"auto_filter"`
}

type WidthProfile struct {
	Min             int `yaml:"min"`
	FullLengthLimit int `yaml:"full_length_limit"`
	Percentile      int `yaml:"percentile"`
}

type HeaderProfile struct {
	Height float64                   `yaml:"height"`
	Style  *xlsxexport.StyleTemplate `yaml:"style"`
}

// ParseProfile decodes a YAML profile.
func ParseProfile(data string) (*Profile, error) {
	var p Profile
	if err := yaml.UnmarshalStrict([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if p.ChunkSize < 0 {
		return nil, fmt.Errorf("chunk_size must not be negative, got %d", p.ChunkSize)
	}
	if p.Width.Percentile < 0 || p.Width.Percentile > 100 {
		return nil, fmt.Errorf("width.percentile must be between 0 and 100, got %d", p.Width.Percentile)
	}
	return &p, nil
}

// LoadProfile reads and decodes the profile at path.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(string(data))
}

// Options converts the profile into sheet options. A nil profile yields none.
func (p *Profile) Options() []xlsxexport.Option {
	if p == nil {
		return nil
	}
	opts := []xlsxexport.Option{
		xlsxexport.WithSheetName(p.SheetName),
		xlsxexport.WithWidthRule(xlsxexport.WidthRule{
			MinWidth:     p.Width.Min,
			FullLenLimit: p.Width.FullLengthLimit,
			Percentile:   p.Width.Percentile,
		}),
		xlsxexport.WithNumberFormat(p.NumberFormat),
		xlsxexport.WithHeaderHeight(p.Header.Height),
	}
	if p.Header.Style != nil {
		opts = append(opts, xlsxexport.WithHeaderStyle(p.Header.Style))
	}
	if p.Freeze != nil {
		opts = append(opts, xlsxexport.WithFreezeHeader(*p.Freeze))
	}
	if p.AutoFilter != nil {
		opts = append(opts, xlsxexport.WithAutoFilter(*p.AutoFilter))
	}
	return opts
}
