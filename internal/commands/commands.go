// Package commands holds the static table of "!" commands the bot answers.
package commands

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Prefix is the sentinel every command text starts with. Messages without it
// never reach the rate limiter or the table.
const Prefix = "!"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Definition is a single canned reply and the exact strings that select it.
type Definition struct {
	Triggers []string `json:"commands" validate:"min=1,dive,required"`
	Title    string   `json:"title" validate:"required"`
	Body     string   `json:"description"`
}

// Has reports whether text is one of the definition's triggers.
func (d Definition) Has(text string) bool {
	for _, t := range d.Triggers {
		if t == text {
			return true
		}
	}
	return false
}

// Table is an ordered, immutable list of definitions.
type Table struct {
	defs []Definition
}

func NewTable(defs ...Definition) *Table {
	cp := make([]Definition, len(defs))
	copy(cp, defs)
	return &Table{defs: cp}
}

// Load reads a commands.json file.
func Load(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read commands")
	}
	t, err := Parse(b)
	if err != nil {
		return nil, errors.Wrapf(err, "commands %s", path)
	}
	return t, nil
}

// Parse decodes and validates a JSON array of definitions.
func Parse(data []byte) (*Table, error) {
	var defs []Definition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if len(defs) == 0 {
		return nil, errors.New("no commands defined")
	}
	for i, d := range defs {
		if err := validate.Struct(d); err != nil {
			return nil, errors.Wrapf(err, "command #%d", i)
		}
	}
	return &Table{defs: defs}, nil
}

// Match returns the first definition, in load order, whose trigger set
// contains text verbatim.
func (t *Table) Match(text string) (Definition, bool) {
	for _, d := range t.defs {
		if d.Has(text) {
			return d, true
		}
	}
	return Definition{}, false
}

func (t *Table) Len() int { return len(t.defs) }

// IsCommand reports whether text carries the command sentinel.
func IsCommand(text string) bool {
	return strings.HasPrefix(text, Prefix)
}
