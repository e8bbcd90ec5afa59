// Package convar enumerates the convars registered with the engine's cvar
// system and decodes their default values.
package convar

import (
	"cs2mem/session"
	"cs2mem/signature"
)

// Layout describes the cvar list and a convar entry
type Layout struct {
	// List resolves to the cvar system, or to a pointer to it when Deref is set
	List  signature.Definition `yaml:"list"`
	Deref bool                 `yaml:"deref"`

	ListEntries uint64 `yaml:"list_entries"` // cvar system: entry *
	ListCount   uint64 `yaml:"list_count"`   // cvar system: uint32
	EntryStride uint64 `yaml:"entry_stride"` // sizeof entry, convar * at +0

	Name    uint64 `yaml:"name"`    // convar: char *
	Default uint64 `yaml:"default"` // convar: value *
	Type    uint64 `yaml:"type"`    // convar: int16
	Flags   uint64 `yaml:"flags"`   // convar: uint64

	MaxEntries int `yaml:"max_entries"`
}

// Config is the layout plus the convars that must be present
type Config struct {
	Layout   `yaml:",inline"`
	Required []string `yaml:"required"`
}

func DefaultLayout() Layout {
	return Layout{
		List: signature.Definition{
			Name:    "CCvar",
			Module:  session.ModuleTier0,
			Pattern: "48 8D 0D ?? ?? ?? ?? 48 89 05 ?? ?? ?? ?? 48 8D 05",
			Resolve: signature.ResolveRIP,
		},
		ListEntries: 0x40,
		ListCount:   0xA0,
		EntryStride: 0x10,
		Name:        0x0,
		Default:     0x8,
		Type:        0x28,
		Flags:       0x30,
		MaxEntries:  1 << 16,
	}
}
