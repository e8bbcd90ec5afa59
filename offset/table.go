package offset

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"cs2mem/session"
)

// Table is one resolved snapshot of signatures, schema field offsets and
// convars. A Table never changes after NewTable returns; every accessor hands
// out copies. Resolving again produces a new Table.
type Table struct {
	signatures map[string]uint64
	schemas    map[string]map[string]uint32
	convars    map[string]ConvarDescriptor

	version    uint64
	backend    session.Backend
	resolvedAt time.Time
}

// NewTable deep copies the three mappings. Nil mappings become empty ones.
func NewTable(signatures map[string]uint64, schemas map[string]map[string]uint32, convars map[string]ConvarDescriptor) *Table {
	t := &Table{
		signatures: make(map[string]uint64, len(signatures)),
		schemas:    make(map[string]map[string]uint32, len(schemas)),
		convars:    make(map[string]ConvarDescriptor, len(convars)),
		resolvedAt: time.Now(),
	}
	maps.Copy(t.signatures, signatures)
	for class, fields := range schemas {
		t.schemas[class] = maps.Clone(fields)
		if t.schemas[class] == nil {
			t.schemas[class] = map[string]uint32{}
		}
	}
	maps.Copy(t.convars, convars)
	return t
}

// Version increases by one for every table a Resolver publishes
func (t *Table) Version() uint64 { return t.version }

func (t *Table) Backend() session.Backend { return t.backend }

func (t *Table) ResolvedAt() time.Time { return t.resolvedAt }

// Signature returns the module relative address of a signature
func (t *Table) Signature(name string) (uint64, error) {
	v, ok := t.signatures[name]
	if !ok {
		return 0, fmt.Errorf("signature %s: %w", name, ErrNotFound)
	}
	return v, nil
}

// Schema returns the byte offset of field inside class
func (t *Table) Schema(class, field string) (uint32, error) {
	fields, ok := t.schemas[class]
	if !ok {
		return 0, fmt.Errorf("schema class %s: %w", class, ErrNotFound)
	}
	v, ok := fields[field]
	if !ok {
		return 0, fmt.Errorf("schema field %s.%s: %w", class, field, ErrNotFound)
	}
	return v, nil
}

// Class returns a copy of every field offset of class
func (t *Table) Class(class string) (map[string]uint32, error) {
	fields, ok := t.schemas[class]
	if !ok {
		return nil, fmt.Errorf("schema class %s: %w", class, ErrNotFound)
	}
	return maps.Clone(fields), nil
}

func (t *Table) Convar(name string) (ConvarDescriptor, error) {
	v, ok := t.convars[name]
	if !ok {
		return ConvarDescriptor{}, fmt.Errorf("convar %s: %w", name, ErrNotFound)
	}
	return v, nil
}

func (t *Table) Signatures() map[string]uint64 {
	return maps.Clone(t.signatures)
}

func (t *Table) Schemas() map[string]map[string]uint32 {
	out := make(map[string]map[string]uint32, len(t.schemas))
	for class, fields := range t.schemas {
		out[class] = maps.Clone(fields)
	}
	return out
}

func (t *Table) Convars() map[string]ConvarDescriptor {
	return maps.Clone(t.convars)
}

// ClassNames returns the resolved class names, sorted
func (t *Table) ClassNames() []string {
	return slices.Sorted(maps.Keys(t.schemas))
}

type tableDocument struct {
	Version    uint64                       `json:"version" yaml:"version"`
	Backend    session.Backend              `json:"backend,omitempty" yaml:"backend,omitempty"`
	ResolvedAt time.Time                    `json:"resolved_at" yaml:"resolved_at"`
	Signatures map[string]uint64            `json:"signatures" yaml:"signatures"`
	Schemas    map[string]map[string]uint32 `json:"schemas" yaml:"schemas"`
	Convars    map[string]ConvarDescriptor  `json:"convars" yaml:"convars"`
}

func (t *Table) document() tableDocument {
	return tableDocument{
		Version:    t.version,
		Backend:    t.backend,
		ResolvedAt: t.resolvedAt,
		Signatures: t.signatures,
		Schemas:    t.schemas,
		Convars:    t.convars,
	}
}

func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.document())
}

// MarshalYAML implements yaml.Marshaler
func (t *Table) MarshalYAML() (interface{}, error) {
	return t.document(), nil
}
