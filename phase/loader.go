package phase

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// tableFile is the YAML shape of a table set
type tableFile struct {
	Tables []tableDoc `yaml:"tables"`
}

type tableDoc struct {
	Name      string     `yaml:"name"`
	Skippable bool       `yaml:"skippable"`
	Phases    []phaseDoc `yaml:"phases"`
}

type phaseDoc struct {
	Name    string      `yaml:"name"`
	Reveals []revealDoc `yaml:"reveals"`
	Advance advanceDoc  `yaml:"advance"`
	OnEnter []string    `yaml:"on_enter"`
}

type revealDoc struct {
	ID    string `yaml:"id"`
	Delay string `yaml:"delay"`
}

type advanceDoc struct {
	Kind  string `yaml:"kind"`
	After string `yaml:"after"`
	Name  string `yaml:"name"`
}

// ParseTables decodes and validates a YAML document holding a list of tables
// Delays are Go duration strings ("1.5s", "300ms"); an empty delay is zero
func ParseTables(data []byte) (map[string]Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode phase tables: %w", err)
	}

	out := make(map[string]Table, len(file.Tables))
	for i, doc := range file.Tables {
		t, err := doc.table()
		if err != nil {
			return nil, fmt.Errorf("table %d: %w", i, err)
		}
		if t.Name == "" {
			return nil, fmt.Errorf("table %d: %w", i, ErrMissingName)
		}
		if _, dup := out[t.Name]; dup {
			return nil, fmt.Errorf("table %s: defined twice", t.Name)
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		out[t.Name] = t
	}
	return out, nil
}

// LoadTablesFile reads a YAML table set from disk
func LoadTablesFile(path string) (map[string]Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read phase tables: %w", err)
	}
	return ParseTables(data)
}

func (d tableDoc) table() (Table, error) {
	t := Table{Name: d.Name, Skippable: d.Skippable}
	for _, pd := range d.Phases {
		p := Phase{Name: pd.Name, OnEnter: pd.OnEnter}
		for _, rd := range pd.Reveals {
			delay, err := parseDelay(rd.Delay)
			if err != nil {
				return Table{}, fmt.Errorf("reveal %s: %w", rd.ID, err)
			}
			p.Reveals = append(p.Reveals, Reveal{ID: rd.ID, Delay: delay})
		}

		kind := AdvanceFinal
		if pd.Advance.Kind != "" {
			k, err := ParseAdvanceKind(pd.Advance.Kind)
			if err != nil {
				return Table{}, fmt.Errorf("phase %s: %w", pd.Name, err)
			}
			kind = k
		}
		after, err := parseDelay(pd.Advance.After)
		if err != nil {
			return Table{}, fmt.Errorf("phase %s advance: %w", pd.Name, err)
		}
		p.Advance = Advance{Kind: kind, After: after, Name: pd.Advance.Name}
		t.Phases = append(t.Phases, p)
	}
	return t, nil
}

func parseDelay(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid delay %q: %w", s, err)
	}
	return d, nil
}
