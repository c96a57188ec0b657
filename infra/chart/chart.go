// Package chart renders site load reports as standalone HTML pages.
package chart

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/chargehub/core/model"
)

// SiteLoadHTML plots the hub power of every strategy against the price
// series of the first schedule.
func SiteLoadHTML(scenario string, schedules []model.Schedule) (string, error) {
	if len(schedules) == 0 {
		return "", fmt.Errorf("chart %s: no schedules", scenario)
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Site load", Subtitle: scenario}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (min)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Power (kW)"}),
	)
	line.ExtendYAxis(opts.YAxis{Name: "Price (€/MWh)"})

	var xAxis []string
	for _, p := range schedules[0].Site {
		xAxis = append(xAxis, strconv.Itoa(p.TimeMin))
	}
	line.SetXAxis(xAxis)
	for _, s := range schedules {
		data := make([]opts.LineData, 0, len(s.Site))
		for _, p := range s.Site {
			data = append(data, opts.LineData{Value: p.PowerKW})
		}
		line.AddSeries(s.Strategy, data)
	}
	prices := make([]opts.LineData, 0, len(schedules[0].Site))
	for _, p := range schedules[0].Site {
		prices = append(prices, opts.LineData{Value: p.Price})
	}
	line.AddSeries("price", prices, charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %v", err)
	}
	return buf.String(), nil
}

// WriteSiteLoad renders the report to path.
func WriteSiteLoad(path, scenario string, schedules []model.Schedule) error {
	html, err := SiteLoadHTML(scenario, schedules)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(html), 0o644)
}
