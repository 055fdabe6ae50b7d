package operator

import (
	"fmt"
	"strings"
)

// Status is the execution state of an operator or a container.
type Status int

const (
	Idle Status = iota
	Running
	Succeeded
	Failed
)

var statusNames = map[Status]string{
	Idle:      "IDLE",
	Running:   "RUNNING",
	Succeeded: "SUCCEEDED",
	Failed:    "FAILED",
}

// String returns the upper-case status name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// IsTerminal reports whether s is SUCCEEDED or FAILED.
func (s Status) IsTerminal() bool {
	return s == Succeeded || s == Failed
}

// ParseStatus parses a status name, case-insensitively.
func ParseStatus(name string) (Status, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for s, n := range statusNames {
		if n == upper {
			return s, nil
		}
	}
	return Idle, fmt.Errorf("operator: unknown status %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("operator: invalid status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DataModel tags whether an operator or container runs in batch or streaming mode.
type DataModel int

const (
	Default DataModel = iota
	Batch
	Streaming
)

var dataModelNames = map[DataModel]string{
	Default:   "DEFAULT",
	Batch:     "BATCH",
	Streaming: "STREAMING",
}

// String returns the upper-case data model name.
func (m DataModel) String() string {
	if name, ok := dataModelNames[m]; ok {
		return name
	}
	return fmt.Sprintf("DataModel(%d)", int(m))
}

// ParseDataModel parses a data model name, case-insensitively.
// The empty string parses as DEFAULT.
func ParseDataModel(name string) (DataModel, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "" {
		return Default, nil
	}
	for m, n := range dataModelNames {
		if n == upper {
			return m, nil
		}
	}
	return Default, fmt.Errorf("operator: unknown data model %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (m DataModel) MarshalText() ([]byte, error) {
	if _, ok := dataModelNames[m]; !ok {
		return nil, fmt.Errorf("operator: invalid data model %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *DataModel) UnmarshalText(text []byte) error {
	parsed, err := ParseDataModel(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
