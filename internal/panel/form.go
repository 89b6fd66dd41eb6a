package panel

import (
	"time"

	"github.com/authboard/authboard/internal/admin"
	"github.com/authboard/authboard/internal/registry"
)

// Input is one rendered form control, typed by the field's render hint.
type Input struct {
	Name      string
	Label     string
	Type      string
	Value     string
	Options   []string
	Multiline bool
	ReadOnly  bool
}

var roleOptions = []string{"user", "admin", "moderator"}
var boolOptions = []string{"false", "true"}

// buildInputs renders one input per descriptor field, pre-filled from the
// record under edit. An empty record produces a blank create form.
func buildInputs(desc registry.Descriptor, rec admin.Record) []Input {
	inputs := make([]Input, 0, len(desc.Fields))
	for _, field := range desc.Fields {
		in := Input{
			Name:  field.Name,
			Label: humanize(field.Name),
			Type:  "text",
			Value: inputValue(field.Kind, rec[field.Name]),
		}
		switch field.Kind {
		case registry.KindEmail:
			in.Type = "email"
		case registry.KindPassword:
			in.Type = "password"
			in.Value = ""
		case registry.KindDate:
			in.Type = "datetime-local"
		case registry.KindNumber:
			in.Type = "number"
		case registry.KindURL:
			in.Type = "url"
		case registry.KindRole:
			in.Options = roleOptions
		case registry.KindBoolean:
			in.Options = boolOptions
		case registry.KindMultiline:
			in.Multiline = true
		case registry.KindID:
			in.ReadOnly = true
		}
		inputs = append(inputs, in)
	}
	return inputs
}

func inputValue(kind registry.Kind, value any) string {
	if t, ok := value.(time.Time); ok {
		if kind == registry.KindDate {
			return t.Format("2006-01-02T15:04")
		}
		return t.Format(time.RFC3339)
	}
	return cellText(value)
}

// mergeForm layers submitted form values onto the loaded record so an edit
// submits the full field set, not just the changed inputs.
func mergeForm(desc registry.Descriptor, base admin.Record, form map[string][]string) admin.Record {
	merged := make(admin.Record, len(base)+len(desc.Fields))
	for k, v := range base {
		merged[k] = v
	}
	for _, field := range desc.Fields {
		values, ok := form[field.Name]
		if !ok || len(values) == 0 {
			continue
		}
		value := values[0]
		if field.Kind == registry.KindPassword && value == "" {
			// Blank password input on edit means keep the stored hash.
			continue
		}
		merged[field.Name] = value
	}
	return merged
}
