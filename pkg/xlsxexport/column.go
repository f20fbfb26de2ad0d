package xlsxexport

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Column describes one result column. It is fixed for the whole export.
type Column struct {
	Index       int
	Name        string
	DisplayName string
}

var separatorReplacer = strings.NewReplacer("_", " ", "-", " ")

// DisplayName turns a raw identifier such as "order_total" into "Order Total".
func DisplayName(raw string) string {
	name := separatorReplacer.Replace(strings.ToValidUTF8(raw, "�"))
	return cases.Title(language.Und).String(name)
}

// NewColumns builds descriptors for the given raw identifiers.
func NewColumns(names []string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Index: i, Name: n, DisplayName: DisplayName(n)}
	}
	return cols
}
