// Package templates holds the server-rendered HTML components. The
// components are written in .templ files; run `templ generate` after
// editing them.
package templates

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/a-h/templ"
)

func downloadURL(id string, format core.Format) templ.SafeURL {
	return templ.URL(fmt.Sprintf("/api/files/%s/download?format=%s", id, format))
}

func formatOf(c *core.ConversionResult) core.Format {
	if c.MIMEType == core.FormatXLSX.MIMEType() {
		return core.FormatXLSX
	}
	return core.FormatCSV
}

func columnNames(cols []core.ColumnInfo) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

// barPercent scales v against the largest magnitude in the chart.
func barPercent(c *core.ChartConfig, v float64) string {
	peak := 0.0
	for _, s := range c.Series {
		for _, p := range s.Data {
			peak = math.Max(peak, math.Abs(p.Value))
		}
	}
	if peak == 0 {
		return "0"
	}
	return strconv.FormatFloat(math.Abs(v)/peak*100, 'f', 1, 64)
}
