package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatTOON, ParseFormat("toon"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat(""))
	assert.Equal(t, FormatText, ParseFormat("unknown"))
}

func fixtureTable() *Table {
	return NewTable(
		"Findings",
		[]string{"Category", "Severity"},
		[][]string{
			{"metadata", "medium"},
			{"comments", "low"},
		},
		nil,
	)
}

func TestOutputTableJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{format: FormatJSON, writer: &buf}
	require.NoError(t, f.Output(fixtureTable()))

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "metadata", rows[0]["Category"])
	assert.Equal(t, "low", rows[1]["Severity"])
}

func TestOutputTableTOON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{format: FormatTOON, writer: &buf}
	require.NoError(t, f.Output(fixtureTable()))

	out := buf.String()
	assert.NotEmpty(t, out)
	assert.Contains(t, out, "metadata")
	assert.Contains(t, out, "comments")
}

func TestOutputTableText(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{format: FormatText, writer: &buf}
	require.NoError(t, f.Output(fixtureTable()))

	out := buf.String()
	assert.Contains(t, out, "Findings")
	assert.Contains(t, out, "metadata")
}
