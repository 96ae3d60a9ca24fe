package policy

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/unveil/clock"
)

//go:embed schedule.yaml
var defaultScheduleYAML []byte

// scheduleFile is the YAML shape of a schedule
type scheduleFile struct {
	Start    string        `yaml:"start"`
	End      string        `yaml:"end"`
	Chapters []chapterRule `yaml:"chapters"`
}

type chapterRule struct {
	ID     int    `yaml:"id"`
	Title  string `yaml:"title"`
	Unlock string `yaml:"unlock"`
}

// DefaultSchedule returns the built-in schedule read in loc
func DefaultSchedule(loc *time.Location) *Schedule {
	s, err := ParseSchedule(defaultScheduleYAML, loc)
	if err != nil {
		panic(fmt.Sprintf("policy: embedded schedule: %v", err))
	}
	return s
}

// LoadScheduleFile reads a YAML schedule from disk
func LoadScheduleFile(path string, loc *time.Location) (*Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schedule: %w", err)
	}
	defer f.Close()
	return LoadSchedule(f, loc)
}

// LoadSchedule reads a YAML schedule
func LoadSchedule(r io.Reader, loc *time.Location) (*Schedule, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	return ParseSchedule(data, loc)
}

// ParseSchedule decodes and validates a YAML schedule
func ParseSchedule(data []byte, loc *time.Location) (*Schedule, error) {
	var file scheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}

	start, err := parseInstant("start", file.Start, loc)
	if err != nil {
		return nil, err
	}
	end, err := parseInstant("end", file.End, loc)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(file.Chapters))
	rules := make([]UnlockRule, 0, len(file.Chapters))
	for _, c := range file.Chapters {
		if c.ID <= 0 {
			return nil, fmt.Errorf("chapter id %d: must be positive", c.ID)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateRule, c.ID)
		}
		seen[c.ID] = true

		at, err := parseInstant(fmt.Sprintf("chapter %d unlock", c.ID), c.Unlock, loc)
		if err != nil {
			return nil, err
		}
		rules = append(rules, UnlockRule{Chapter: ChapterID(c.ID), At: at, Title: c.Title})
	}

	s := NewSchedule(start, end, rules)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func parseInstant(field, value string, loc *time.Location) (time.Time, error) {
	t, ok := clock.ParseSimulatedDate(value, loc)
	if !ok {
		return time.Time{}, fmt.Errorf("%s: invalid instant %q", field, value)
	}
	return t, nil
}
