package charting

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/dnlaql/cls-reporting/analysis"
	"github.com/dnlaql/cls-reporting/config"
	"github.com/dnlaql/cls-reporting/dataset"
)

// ErrNoData means the filtered subset left nothing to draw.
var ErrNoData = errors.New("no data to chart")

var (
	colorPass       = drawing.ColorFromHex("2ecc71")
	colorFail       = drawing.ColorFromHex("e74c3c")
	colorResponse   = drawing.ColorFromHex("3498db")
	colorResolution = drawing.ColorFromHex("f39c12")
	colorBreach     = drawing.ColorFromHex("e74c3c")
)

// Generator renders dashboard aggregates as PNG images.
type Generator struct {
	cfg config.ChartConfig
}

func NewGenerator(cfg config.ChartConfig) *Generator {
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 400
	}
	if cfg.BarWidth <= 0 {
		cfg.BarWidth = 40
	}
	return &Generator{cfg: cfg}
}

// ComplianceByPriority draws paired PASS/FAIL count bars per priority.
func (g *Generator) ComplianceByPriority(table map[string]analysis.StatusCount, field dataset.SLAField) ([]byte, error) {
	return g.statusBars(table, fmt.Sprintf("SLA %s compliance by priority", field))
}

// StatusBySubCategory draws paired PASS/FAIL count bars per sub-category.
func (g *Generator) StatusBySubCategory(table map[string]analysis.StatusCount, field dataset.SLAField) ([]byte, error) {
	return g.statusBars(table, fmt.Sprintf("SLA %s status by sub-category", field))
}

func (g *Generator) statusBars(table map[string]analysis.StatusCount, title string) ([]byte, error) {
	keys := sortedTableKeys(table)

	var bars []chart.Value
	for _, k := range keys {
		c := table[k]
		bars = append(bars,
			chart.Value{
				Value: float64(c.Pass),
				Label: fmt.Sprintf("%s PASS", k),
				Style: chart.Style{FillColor: colorPass, StrokeColor: colorPass},
			},
			chart.Value{
				Value: float64(c.Fail),
				Label: fmt.Sprintf("%s FAIL", k),
				Style: chart.Style{FillColor: colorFail, StrokeColor: colorFail},
			},
		)
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	return g.renderBars(title, bars)
}

// MeanTimesByPriority draws paired response/resolution mean-minute bars per
// priority. Groups with no parseable values for a side get no bar for it.
func (g *Generator) MeanTimesByPriority(table map[string]analysis.MeanTimes) ([]byte, error) {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var bars []chart.Value
	for _, k := range keys {
		mt := table[k]
		if mt.Response != nil {
			bars = append(bars, chart.Value{
				Value: *mt.Response,
				Label: fmt.Sprintf("%s resp", k),
				Style: chart.Style{FillColor: colorResponse, StrokeColor: colorResponse},
			})
		}
		if mt.Resolution != nil {
			bars = append(bars, chart.Value{
				Value: *mt.Resolution,
				Label: fmt.Sprintf("%s resol", k),
				Style: chart.Style{FillColor: colorResolution, StrokeColor: colorResolution},
			})
		}
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	return g.renderBars("Mean response/resolution time by priority (min)", bars)
}

// BreachesByAssignee draws the top breach counts, largest first.
func (g *Generator) BreachesByAssignee(counts map[string]int, limit int) ([]byte, error) {
	type pair struct {
		assignee string
		count    int
	}
	pairs := make([]pair, 0, len(counts))
	for k, v := range counts {
		pairs = append(pairs, pair{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].assignee < pairs[j].assignee
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}

	var bars []chart.Value
	for _, p := range pairs {
		bars = append(bars, chart.Value{
			Value: float64(p.count),
			Label: p.assignee,
			Style: chart.Style{FillColor: colorBreach, StrokeColor: colorBreach},
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	return g.renderBars("SLA breaches by assignee", bars)
}

// StatusDistribution draws the PASS/FAIL split for one SLA field as a pie.
func (g *Generator) StatusDistribution(c analysis.StatusCount, field dataset.SLAField) ([]byte, error) {
	if c.Pass == 0 && c.Fail == 0 {
		return nil, ErrNoData
	}

	var values []chart.Value
	if c.Pass > 0 {
		values = append(values, chart.Value{
			Value: float64(c.Pass),
			Label: fmt.Sprintf("PASS (%d)", c.Pass),
			Style: chart.Style{FillColor: colorPass},
		})
	}
	if c.Fail > 0 {
		values = append(values, chart.Value{
			Value: float64(c.Fail),
			Label: fmt.Sprintf("FAIL (%d)", c.Fail),
			Style: chart.Style{FillColor: colorFail},
		})
	}

	pie := chart.PieChart{
		Title:  fmt.Sprintf("SLA %s status distribution", field),
		Width:  g.cfg.Height, // pies render square
		Height: g.cfg.Height,
		Values: values,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func (g *Generator) renderBars(title string, bars []chart.Value) ([]byte, error) {
	graph := chart.BarChart{
		Title:    title,
		Width:    g.cfg.Width,
		Height:   g.cfg.Height,
		BarWidth: g.cfg.BarWidth,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func sortedTableKeys(table map[string]analysis.StatusCount) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
