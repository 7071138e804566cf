package core

import "strconv"

// MaxChartSeries is how many numeric columns the bar chart renders.
const MaxChartSeries = 2

// defaultColors is the series palette.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// ChartPoint is one bar. Label is the row index.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartSeries is one numeric column.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartConfig is a bar-chart rendering request.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title,omitempty"`
	XAxis      string        `json:"xAxis"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors"`
	ShowLegend bool          `json:"showLegend"`
}

// ExtractChartData returns the first limit numeric columns of t in their
// original order. limit <= 0 means MaxChartSeries. Returns ErrNoNumericData when
// t has no numeric column.
func ExtractChartData(t *Table, limit int) (*Table, error) {
	if limit <= 0 {
		limit = MaxChartSeries
	}
	var names []string
	for _, c := range t.Columns {
		if c.Type == TypeNumeric {
			names = append(names, c.Name)
			if len(names) == limit {
				break
			}
		}
	}
	if len(names) == 0 {
		return nil, ErrNoNumericData
	}
	return Project(t, names)
}

// BuildBarChart turns a numeric table into a chart request. Null cells are
// left out of their series.
func BuildBarChart(t *Table, title string) *ChartConfig {
	cfg := &ChartConfig{
		ChartType:  "bar",
		Title:      title,
		XAxis:      "row",
		ShowLegend: len(t.Columns) > 1,
	}
	for i, c := range t.Columns {
		points := make([]ChartPoint, 0, len(c.Values))
		for r, v := range c.Values {
			if v.Kind != KindNumber {
				continue
			}
			points = append(points, ChartPoint{Label: strconv.Itoa(r), Value: v.Num})
		}
		color := defaultColors[i%len(defaultColors)]
		cfg.Series = append(cfg.Series, ChartSeries{Name: c.Name, Data: points, Color: color})
		cfg.Colors = append(cfg.Colors, color)
	}
	return cfg
}
