package panel

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/authboard/authboard/internal/admin"
	"github.com/authboard/authboard/internal/registry"
)

// Cell is one rendered table cell: display text plus a CSS class chosen from
// the field's registered render hint.
type Cell struct {
	Text  string
	Class string
}

// Row is one rendered table row.
type Row struct {
	ID    string
	Cells []Cell
}

// buildRows renders the find batch into table rows following the
// descriptor's field order.
func buildRows(desc registry.Descriptor, records []admin.Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := Row{ID: rec.ID(), Cells: make([]Cell, 0, len(desc.Fields))}
		for _, field := range desc.Fields {
			row.Cells = append(row.Cells, renderCell(field, rec[field.Name]))
		}
		rows = append(rows, row)
	}
	return rows
}

// renderCell maps a raw value to its cell presentation. Missing or empty
// values render as a muted dash regardless of kind.
func renderCell(field registry.Field, value any) Cell {
	text := cellText(value)
	if text == "" {
		return Cell{Text: "-", Class: "cell-muted"}
	}

	switch field.Kind {
	case registry.KindID:
		if len(text) > 8 {
			text = text[:8]
		}
		return Cell{Text: text, Class: "cell-id"}
	case registry.KindRole:
		return Cell{Text: text, Class: "cell-badge"}
	case registry.KindBoolean:
		if text == "true" {
			return Cell{Text: "Yes", Class: "cell-bool-true"}
		}
		return Cell{Text: "No", Class: "cell-bool-false"}
	case registry.KindDate:
		if t, ok := value.(time.Time); ok {
			return Cell{Text: t.Format("02 Jan 2006 15:04"), Class: ""}
		}
		return Cell{Text: text, Class: ""}
	case registry.KindEmail:
		return Cell{Text: text, Class: "cell-email"}
	case registry.KindPassword:
		return Cell{Text: "••••••", Class: "cell-muted"}
	default:
		return Cell{Text: text, Class: ""}
	}
}

func cellText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// buildHeaders humanizes the descriptor's camelCase field names for column
// headers, e.g. "createdAt" becomes "Created At".
func buildHeaders(desc registry.Descriptor) []string {
	headers := make([]string, len(desc.Fields))
	for i, f := range desc.Fields {
		headers[i] = humanize(f.Name)
	}
	return headers
}

func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
