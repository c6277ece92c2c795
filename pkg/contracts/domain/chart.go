package domain

import (
	"encoding/json"
	"fmt"
)

// ChartType identifies a chart style.
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
)

// ChartConfig describes a chart over one sheet. It is metadata only: the
// server resolves the referenced columns and leaves drawing to the caller
// or to the workbook export.
type ChartConfig struct {
	ChartType ChartType `json:"chart_type"`
	X         string    `json:"x,omitempty"`
	Y         Columns   `json:"y,omitempty"`
	Title     string    `json:"title,omitempty"`
	XLabel    string    `json:"xlabel,omitempty"`
	YLabel    string    `json:"ylabel,omitempty"`
}

// Columns is a list of column names that also accepts a single JSON string.
type Columns []string

// UnmarshalJSON accepts "a" as well as ["a", "b"].
func (c *Columns) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*c = Columns{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("columns must be a string or a list of strings: %w", err)
	}
	*c = many
	return nil
}

// Problems lists what is structurally wrong with the config, before any
// column is looked up. Bar and line charts need both axes; pie charts
// need the values column and use only the first y column.
func (c ChartConfig) Problems() []string {
	var problems []string
	switch c.ChartType {
	case ChartBar, ChartLine:
		if c.X == "" || len(c.Y) == 0 {
			problems = append(problems, fmt.Sprintf("Both x and y must be specified for %s charts", c.ChartType))
		}
	case ChartPie:
		if len(c.Y) == 0 {
			problems = append(problems, "Y must be specified for pie charts")
		}
	default:
		problems = append(problems, fmt.Sprintf("Invalid chart type %q. Must be one of: bar, line, pie", c.ChartType))
	}
	return problems
}

// Series returns the value columns the chart plots.
func (c ChartConfig) Series() []string {
	if c.ChartType == ChartPie && len(c.Y) > 1 {
		return c.Y[:1]
	}
	return []string(c.Y)
}

// Referenced returns every column the chart reads, x first.
func (c ChartConfig) Referenced() []string {
	cols := make([]string, 0, len(c.Y)+1)
	if c.X != "" {
		cols = append(cols, c.X)
	}
	return append(cols, c.Series()...)
}
