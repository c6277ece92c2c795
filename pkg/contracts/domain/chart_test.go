package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartConfigYAcceptsStringOrList(t *testing.T) {
	var single, multi ChartConfig
	require.NoError(t, json.Unmarshal([]byte(`{"chart_type":"bar","x":"region","y":"sales"}`), &single))
	require.NoError(t, json.Unmarshal([]byte(`{"chart_type":"line","x":"month","y":["sales","cost"]}`), &multi))

	assert.Equal(t, Columns{"sales"}, single.Y)
	assert.Equal(t, Columns{"sales", "cost"}, multi.Y)

	var bad ChartConfig
	assert.Error(t, json.Unmarshal([]byte(`{"chart_type":"bar","y":3}`), &bad))
}

func TestChartConfigProblems(t *testing.T) {
	tests := []struct {
		name   string
		config ChartConfig
		want   int
	}{
		{"complete bar", ChartConfig{ChartType: ChartBar, X: "a", Y: Columns{"b"}}, 0},
		{"bar without x", ChartConfig{ChartType: ChartBar, Y: Columns{"b"}}, 1},
		{"line without y", ChartConfig{ChartType: ChartLine, X: "a"}, 1},
		{"pie without labels", ChartConfig{ChartType: ChartPie, Y: Columns{"b"}}, 0},
		{"pie without values", ChartConfig{ChartType: ChartPie, X: "a"}, 1},
		{"unknown type", ChartConfig{ChartType: "scatter", X: "a", Y: Columns{"b"}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.config.Problems(), tt.want)
		})
	}
}

func TestChartConfigReferenced(t *testing.T) {
	pie := ChartConfig{ChartType: ChartPie, X: "label", Y: Columns{"v1", "v2"}}
	assert.Equal(t, []string{"v1"}, pie.Series())
	assert.Equal(t, []string{"label", "v1"}, pie.Referenced())

	bar := ChartConfig{ChartType: ChartBar, X: "x", Y: Columns{"a", "b"}}
	assert.Equal(t, []string{"x", "a", "b"}, bar.Referenced())
}
