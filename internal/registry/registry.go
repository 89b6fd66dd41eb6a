// Package registry holds the static entity configuration driving the admin
// panel: which tables are exposed, how they are labelled, and which fields
// the table and form render.
package registry

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/authboard/authboard/internal/shared"
)

// Kind is an explicit render hint attached to a field at registration time,
// so the UI never has to guess input types from field name substrings.
type Kind string

const (
	KindText      Kind = "text"
	KindID        Kind = "id"
	KindEmail     Kind = "email"
	KindPassword  Kind = "password"
	KindDate      Kind = "date"
	KindNumber    Kind = "number"
	KindURL       Kind = "url"
	KindRole      Kind = "role"
	KindBoolean   Kind = "boolean"
	KindMultiline Kind = "multiline"
)

// Field describes one displayed/editable field of an entity.
type Field struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Descriptor maps a logical entity name to its storage table and its admin
// panel presentation. Descriptors are configuration, fixed at process start.
type Descriptor struct {
	Name   string  `json:"name"`
	Table  string  `json:"-"`
	Label  string  `json:"label"`
	Icon   string  `json:"icon"`
	Fields []Field `json:"fields"`
}

// FieldNames returns the ordered field name list.
func (d Descriptor) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// HasField reports whether the descriptor displays the named field.
func (d Descriptor) HasField(name string) bool {
	for _, f := range d.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// FieldKind returns the render hint for a field, defaulting to text.
func (d Descriptor) FieldKind(name string) Kind {
	for _, f := range d.Fields {
		if f.Name == name {
			return f.Kind
		}
	}
	return KindText
}

// Registry is the immutable entity configuration. It is built once in main
// and injected wherever entity resolution is needed.
type Registry struct {
	order  []string
	byName map[string]Descriptor
}

// New builds a Registry preserving registration order. Descriptors without a
// label get one derived from the entity name.
func New(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.Name == "" || d.Table == "" {
			return nil, fmt.Errorf("registry: descriptor requires name and table, got %+v", d)
		}
		if _, exists := r.byName[d.Name]; exists {
			return nil, fmt.Errorf("registry: duplicate entity %q", d.Name)
		}
		if d.Label == "" {
			d.Label = DeriveLabel(d.Name)
		}
		r.order = append(r.order, d.Name)
		r.byName[d.Name] = d
	}
	return r, nil
}

// List returns all descriptors in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Resolve returns the descriptor for an entity name.
func (r *Registry) Resolve(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", shared.ErrUnknownEntity, name)
	}
	return d, nil
}

// Names returns the registered entity names in order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

var titleCaser = cases.Title(language.English)

// DeriveLabel produces a display label from an entity name, e.g. "User"
// becomes "Users".
func DeriveLabel(name string) string {
	label := titleCaser.String(name)
	if len(label) > 0 && label[len(label)-1] != 's' {
		label += "s"
	}
	return label
}
