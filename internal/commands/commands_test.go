package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestMatchFirstDefinitionWins(t *testing.T) {
	d1 := Definition{Triggers: []string{"!a"}, Title: "one"}
	d2 := Definition{Triggers: []string{"!a", "!b"}, Title: "two"}
	table := NewTable(d1, d2)

	got, ok := table.Match("!a")
	assert.True(t, ok)
	assert.Equal(t, "one", got.Title)

	got, ok = table.Match("!b")
	assert.True(t, ok)
	assert.Equal(t, "two", got.Title)
}

func TestMatchIsExact(t *testing.T) {
	table := NewTable(Definition{Triggers: []string{"!help"}, Title: "help"})

	for _, text := range []string{"!HELP", "!help ", " !help", "!hel", "!help me"} {
		_, ok := table.Match(text)
		assert.False(t, ok, "text %q should not match", text)
	}
}

func TestIsCommand(t *testing.T) {
	assert.True(t, IsCommand("!help"))
	assert.True(t, IsCommand("!"))
	assert.False(t, IsCommand("help"))
	assert.False(t, IsCommand(" !help"))
	assert.False(t, IsCommand(""))
}

func TestParse(t *testing.T) {
	table, err := Parse([]byte(`[
		{"commands": ["!help", "!h"], "title": "Help", "description": "Read the FAQ."},
		{"commands": ["!discord"], "title": "Discord", "description": "discord.gg/x"}
	]`))
	assert.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	d, ok := table.Match("!h")
	assert.True(t, ok)
	assert.Equal(t, "Help", d.Title)
	assert.Equal(t, "Read the FAQ.", d.Body)
}

func TestParseRejectsBadFiles(t *testing.T) {
	tests := map[string]string{
		"not json":      `{`,
		"empty list":    `[]`,
		"no triggers":   `[{"commands": [], "title": "x"}]`,
		"blank trigger": `[{"commands": [""], "title": "x"}]`,
		"no title":      `[{"commands": ["!x"]}]`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	err := os.WriteFile(path, []byte(`[{"commands": ["!ip"], "title": "IP", "description": "1.2.3.4"}]`), 0o644)
	assert.NoError(t, err)

	table, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
