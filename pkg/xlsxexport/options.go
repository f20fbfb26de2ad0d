package xlsxexport

const (
	DefaultSheetName    = "Sheet1"
	DefaultNumberFormat = "#,##0.00"
	DefaultHeaderHeight = 26
)

// Option configures a SheetWriter and the Finalizer that styles its output.
type Option func(*config)

type config struct {
	sheetName    string
	widthRule    WidthRule
	numberFormat string
	headerStyle  *StyleTemplate
	headerHeight float64
	freezeHeader bool
	autoFilter   bool
}

func defaultConfig() *config {
	return &config{
		sheetName:    DefaultSheetName,
		widthRule:    DefaultWidthRule,
		numberFormat: DefaultNumberFormat,
		headerStyle:  DefaultHeaderStyle(),
		headerHeight: DefaultHeaderHeight,
		freezeHeader: true,
		autoFilter:   true,
	}
}

func newConfig(opts []Option) *config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSheetName names the single output sheet.
func WithSheetName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.sheetName = name
		}
	}
}

// WithWidthRule overrides the width thresholds. Zero fields keep their defaults.
func WithWidthRule(r WidthRule) Option {
	return func(c *config) {
		if r.MinWidth > 0 {
			c.widthRule.MinWidth = r.MinWidth
		}
		if r.FullLenLimit > 0 {
			c.widthRule.FullLenLimit = r.FullLenLimit
		}
		if r.Percentile > 0 && r.Percentile <= 100 {
			c.widthRule.Percentile = r.Percentile
		}
	}
}

// WithNumberFormat sets the display format for decimal columns.
func WithNumberFormat(format string) Option {
	return func(c *config) {
		if format != "" {
			c.numberFormat = format
		}
	}
}

// WithHeaderStyle merges s over the default header style.
func WithHeaderStyle(s *StyleTemplate) Option {
	return func(c *config) {
		c.headerStyle = mergeStyle(s, DefaultHeaderStyle())
	}
}

// WithHeaderHeight sets the header row height in points.
func WithHeaderHeight(h float64) Option {
	return func(c *config) {
		if h > 0 {
			c.headerHeight = h
		}
	}
}

// WithFreezeHeader toggles freezing the first row. Enabled by default.
func WithFreezeHeader(on bool) Option {
	return func(c *config) { c.freezeHeader = on }
}

// WithAutoFilter toggles the header auto-filter. Enabled by default.
func WithAutoFilter(on bool) Option {
	return func(c *config) { c.autoFilter = on }
}
