package registry

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/chiller-supervisor/internal/domain/alarm"
)

var (
	// ErrEmpty is returned when a rule file holds no definitions.
	ErrEmpty = errors.New("rulebook is empty")
	// ErrCapacityExceeded is reported when the rulebook is larger than the alarm store.
	ErrCapacityExceeded = errors.New("rulebook exceeds alarm store capacity")
	// ErrUnsupportedOperator is reported for rows the engine cannot evaluate on its own.
	ErrUnsupportedOperator = errors.New("operator is not evaluated by the engine")
	// ErrMissingField is returned when a definition lacks a code or source.
	ErrMissingField = errors.New("required field is missing")
	// ErrLatchedAutoClear is reported for rows that are both latched and auto-clearing.
	ErrLatchedAutoClear = errors.New("definition is both latched and auto-clearing")
)

// file is the YAML layout of a rule file.
type file struct {
	Alarms []alarm.Definition `yaml:"alarms"`
}

// Load reads a rulebook from a YAML rule file.
// An empty path selects the compiled-in rulebook.
func Load(path string) ([]alarm.Definition, error) {
	if path == "" {
		return Default(), nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(contents, &f); err != nil {
		return nil, fmt.Errorf("unmarshal rule file: %w", err)
	}

	if len(f.Alarms) == 0 {
		return nil, ErrEmpty
	}

	for i := range f.Alarms {
		def := &f.Alarms[i]
		if def.Code == "" || def.Source == "" {
			return nil, fmt.Errorf("definition #%d: %w", i, ErrMissingField)
		}
	}

	return f.Alarms, nil
}

// Save writes a rulebook as a YAML rule file.
func Save(path string, defs []alarm.Definition) error {
	data, err := yaml.Marshal(&file{Alarms: defs})
	if err != nil {
		return fmt.Errorf("marshal rule file: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, 0o600); err != nil {
		return fmt.Errorf("write rule file: %w", err)
	}

	return nil
}

// Diagnostics is the result of a startup check of a rulebook.
type Diagnostics struct {
	// Errors make the rulebook unsafe to run strictly.
	Errors []error
	// Warnings are worth logging but do not block startup.
	Warnings []error
}

// Err joins all errors, or returns nil.
func (d *Diagnostics) Err() error {
	return errors.Join(d.Errors...)
}

// Validate checks a rulebook against the alarm store capacity.
//
// Capacity shortfall is an error because definitions past the capacity would
// never be tracked. Band rows, latched auto-clear rows and duplicated codes
// are warnings.
func Validate(defs []alarm.Definition, capacity int) *Diagnostics {
	d := new(Diagnostics)

	if len(defs) > capacity {
		d.Errors = append(d.Errors,
			fmt.Errorf("%d definitions, capacity %d: %w", len(defs), capacity, ErrCapacityExceeded))
	}

	for i := range defs {
		def := &defs[i]

		if !def.Operator.Supported() {
			d.Warnings = append(d.Warnings,
				fmt.Errorf("definition #%d %s (%s): %w", i, def.Code, def.Operator, ErrUnsupportedOperator))
		}

		if def.Latched && def.AutoClear {
			d.Warnings = append(d.Warnings,
				fmt.Errorf("definition #%d %s: %w", i, def.Code, ErrLatchedAutoClear))
		}
	}

	dups := Duplicates(defs)
	for _, code := range slices.Sorted(maps.Keys(dups)) {
		d.Warnings = append(d.Warnings, fmt.Errorf("code %s shared by definitions %v", code, dups[code]))
	}

	return d
}

// Duplicates returns registry indexes grouped by codes used more than once.
func Duplicates(defs []alarm.Definition) map[string][]int {
	byCode := make(map[string][]int, len(defs))
	for i := range defs {
		byCode[defs[i].Code] = append(byCode[defs[i].Code], i)
	}

	for code, indexes := range byCode {
		if len(indexes) < 2 {
			delete(byCode, code)
		}
	}

	return byCode
}
