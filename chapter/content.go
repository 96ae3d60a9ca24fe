package chapter

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/unveil/phase"
)

//go:embed content.yaml
var defaultContent []byte

// ErrUnknownTable is returned when a chapter names a table the content does not define
var ErrUnknownTable = errors.New("unknown phase table")

// Content holds the phase tables and the text shown for each reveal
type Content struct {
	Tables map[string]phase.Table
	Texts  map[string]map[string]string
}

type textFile struct {
	Texts map[string]map[string]string `yaml:"texts"`
}

// DefaultContent decodes the embedded content
func DefaultContent() (*Content, error) {
	return ParseContent(defaultContent)
}

// LoadContentFile reads content from disk
func LoadContentFile(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return ParseContent(data)
}

// ParseContent decodes tables and texts from one YAML document
func ParseContent(data []byte) (*Content, error) {
	tables, err := phase.ParseTables(data)
	if err != nil {
		return nil, err
	}
	var tf textFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("decode texts: %w", err)
	}
	if tf.Texts == nil {
		tf.Texts = make(map[string]map[string]string)
	}
	return &Content{Tables: tables, Texts: tf.Texts}, nil
}

// Table returns a table by name
func (c *Content) Table(name string) (phase.Table, error) {
	t, ok := c.Tables[name]
	if !ok {
		return phase.Table{}, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return t, nil
}

// Text returns the text of a reveal; the id itself when none is defined
func (c *Content) Text(table, id string) string {
	if s, ok := c.Texts[table][id]; ok {
		return s
	}
	return id
}
