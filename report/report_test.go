package report

import (
	"bytes"
	"strings"
	"testing"

	"cs2mem/offset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAlignment(t *testing.T) {
	tbl := NewTable(Column{Header: "NAME"}, Column{Header: "N", AlignRight: true})
	tbl.AddRow("dwEntityList", "0x10")
	tbl.AddRow("a", "0x1A2B")
	tbl.AddRow("only-name")

	var buf bytes.Buffer
	require.NoError(t, tbl.Render(&buf))

	assert.Equal(t, strings.Join([]string{
		"NAME               N",
		"------------  ------",
		"dwEntityList    0x10",
		"a             0x1A2B",
		"only-name          -",
		"",
	}, "\n"), buf.String())
}

func TestTableIgnoresANSIWidth(t *testing.T) {
	tbl := NewTable(Column{Header: "V", Format: gray}, Column{Header: "X"})
	tbl.AddRow("", "1")
	tbl.AddRow("abc", "2")

	var buf bytes.Buffer
	require.NoError(t, tbl.Render(&buf))
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "\033[90m-\033[0m    1", lines[2])
	assert.Equal(t, "abc  2", lines[3])
}

func TestWriteOffsets(t *testing.T) {
	table := offset.NewTable(
		map[string]uint64{"dwLocalPlayer": 0x1A2B},
		map[string]map[string]uint32{"C_BaseEntity": {"m_iHealth": 0x344}, "C_PlantedC4": {}},
		map[string]offset.ConvarDescriptor{"sv_cheats": {Name: "sv_cheats", Type: offset.ConvarBool, Default: "false", Flags: 0x4000}},
	)

	var buf bytes.Buffer
	require.NoError(t, WriteOffsets(&buf, table, Options{}))
	out := buf.String()

	assert.Contains(t, out, "dwLocalPlayer  0x1A2B")
	assert.Contains(t, out, "m_iHealth      0x344")
	assert.Contains(t, out, "C_PlantedC4")
	assert.Contains(t, out, "sv_cheats  bool  false    0x4000")
	assert.Less(t, strings.Index(out, "C_BaseEntity"), strings.Index(out, "C_PlantedC4"))
}
