package offset

import "fmt"

// ConvarType is the value type of a convar, in EConVarType order
type ConvarType int16

const (
	ConvarBool ConvarType = iota
	ConvarInt16
	ConvarUint16
	ConvarInt32
	ConvarUint32
	ConvarInt64
	ConvarUint64
	ConvarFloat32
	ConvarFloat64
	ConvarString
	ConvarColor
	ConvarVector2
	ConvarVector3
	ConvarVector4
	ConvarQAngle
)

var convarTypeNames = [...]string{
	"bool", "int16", "uint16", "int32", "uint32", "int64", "uint64",
	"float32", "float64", "string", "color", "vector2", "vector3", "vector4", "qangle",
}

func (t ConvarType) String() string {
	if t >= 0 && int(t) < len(convarTypeNames) {
		return convarTypeNames[t]
	}
	return fmt.Sprintf("ConvarType(%d)", int16(t))
}

func (t ConvarType) Valid() bool {
	return t >= 0 && int(t) < len(convarTypeNames)
}

func (t ConvarType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ConvarDescriptor locates one convar in the target
type ConvarDescriptor struct {
	Name    string     `json:"name" yaml:"name"`
	Address uint64     `json:"address" yaml:"address"`
	Type    ConvarType `json:"type" yaml:"type"`
	Default string     `json:"default" yaml:"default"`
	Flags   uint64     `json:"flags" yaml:"flags"`
}
