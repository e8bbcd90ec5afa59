// Package schema reads field offsets of engine classes out of the schema
// system's type scopes.
package schema

import (
	"cs2mem/session"
	"cs2mem/signature"
)

// Layout describes where the walker finds things. Offsets are relative to
// the structure named in the field comment.
type Layout struct {
	// System resolves to the schema system instance, or to a pointer to it when Deref is set
	System signature.Definition `yaml:"system"`
	Deref  bool                 `yaml:"deref"`

	ScopeVector  uint64 `yaml:"scope_vector"`  // system: {int32 count; pad; scope **data}
	ScopeName    uint64 `yaml:"scope_name"`    // scope: char[ScopeNameLength]
	ScopeClasses uint64 `yaml:"scope_classes"` // scope: {int32 count; pad; class **data}

	ClassName       uint64 `yaml:"class_name"`        // class info: char *
	ClassFieldCount uint64 `yaml:"class_field_count"` // class info: int16
	ClassFields     uint64 `yaml:"class_fields"`      // class info: field *

	FieldStride uint64 `yaml:"field_stride"` // sizeof field
	FieldName   uint64 `yaml:"field_name"`   // field: char *
	FieldOffset uint64 `yaml:"field_offset"` // field: int32

	MaxScopes  int `yaml:"max_scopes"`
	MaxClasses int `yaml:"max_classes"`
	MaxFields  int `yaml:"max_fields"`
}

const (
	ScopeNameLength = 256
	NameLength      = 256
)

func DefaultLayout() Layout {
	return Layout{
		System: signature.Definition{
			Name:    "SchemaSystem",
			Module:  session.ModuleSchemaSystem,
			Pattern: "48 8D 0D ?? ?? ?? ?? E9 ?? ?? ?? ?? CC CC CC CC 48 8D 0D ?? ?? ?? ?? E9",
			Resolve: signature.ResolveRIP,
		},
		ScopeVector:     0x188,
		ScopeName:       0x8,
		ScopeClasses:    0x560,
		ClassName:       0x8,
		ClassFieldCount: 0x1C,
		ClassFields:     0x28,
		FieldStride:     0x20,
		FieldName:       0x0,
		FieldOffset:     0x10,
		MaxScopes:       64,
		MaxClasses:      1 << 16,
		MaxFields:       1 << 12,
	}
}
