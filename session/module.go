package session

import (
	"fmt"

	"cs2mem/process"
)

const (
	ModuleClient       = "client.dll"
	ModuleEngine2      = "engine2.dll"
	ModuleSchemaSystem = "schemasystem.dll"
	ModuleTier0        = "tier0.dll"
)

// RequiredModules must all be loaded for a session to exist
var RequiredModules = [...]string{ModuleClient, ModuleEngine2, ModuleSchemaSystem, ModuleTier0}

// ModuleDescriptor is the normalized view of a loaded module
type ModuleDescriptor struct {
	Name string                       `json:"name" yaml:"name"`
	Base process.ProcessMemoryAddress `json:"base" yaml:"base"`
	Size process.ProcessMemorySize    `json:"size" yaml:"size"`
}

func newModuleDescriptor(rec process.ModuleRecord) ModuleDescriptor {
	return ModuleDescriptor{Name: rec.Name, Base: rec.Base, Size: rec.Size}
}

func (m ModuleDescriptor) End() process.ProcessMemoryAddress {
	return m.Base + process.ProcessMemoryAddress(m.Size)
}

// Contains reports whether addr lies inside the module image
func (m ModuleDescriptor) Contains(addr process.ProcessMemoryAddress) bool {
	return addr >= m.Base && addr < m.End()
}

// RVA converts an absolute address into a module relative one
func (m ModuleDescriptor) RVA(addr process.ProcessMemoryAddress) uint64 {
	return uint64(addr - m.Base)
}

func (m ModuleDescriptor) String() string {
	return fmt.Sprintf("%s->%s", m.Name, m.Base)
}

// Modules holds the four required modules
type Modules struct {
	Client       ModuleDescriptor
	Engine2      ModuleDescriptor
	SchemaSystem ModuleDescriptor
	Tier0        ModuleDescriptor
}

// All returns the modules in RequiredModules order
func (m Modules) All() []ModuleDescriptor {
	return []ModuleDescriptor{m.Client, m.Engine2, m.SchemaSystem, m.Tier0}
}

// ByName looks a required module up by exact name
func (m Modules) ByName(name string) (ModuleDescriptor, bool) {
	for _, d := range m.All() {
		if d.Name == name {
			return d, true
		}
	}
	return ModuleDescriptor{}, false
}

// selectModules picks the required modules out of a backend module list by
// exact, case-sensitive name. It returns every missing name, not just the first.
func selectModules(records []process.ModuleRecord) (Modules, []string) {
	byName := make(map[string]ModuleDescriptor, len(records))
	for _, rec := range records {
		if _, dup := byName[rec.Name]; dup {
			continue
		}
		byName[rec.Name] = newModuleDescriptor(rec)
	}

	var missing []string
	pick := func(name string) ModuleDescriptor {
		d, ok := byName[name]
		if !ok {
			missing = append(missing, name)
		}
		return d
	}

	mods := Modules{
		Client:       pick(ModuleClient),
		Engine2:      pick(ModuleEngine2),
		SchemaSystem: pick(ModuleSchemaSystem),
		Tier0:        pick(ModuleTier0),
	}
	return mods, missing
}
