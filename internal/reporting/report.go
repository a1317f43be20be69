package reporting

import (
	"fmt"
	"gonetlist/internal/models"
	"gonetlist/internal/netlist"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// maxBars caps the packets chart to the busiest groups.
const maxBars = 25

// GroupLister is the part of the netlist a report reads.
type GroupLister interface {
	Display() []*netlist.Group
}

// GenerateSessionReport writes an HTML page of charts describing the groups
// currently on display into dir, returning the file path.
// Currently supports "html" format.
func GenerateSessionReport(list GroupLister, dir, format string) (string, error) {
	if format != "html" {
		return "", fmt.Errorf("unsupported format: %s", format)
	}

	now := time.Now()
	filename := filepath.Join(dir, fmt.Sprintf("report_%s.html", now.Format("20060102_150405")))

	groups := list.Display()
	page := components.NewPage()
	page.PageTitle = "GoNetList Session Report - " + now.Format(time.RFC1123)
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		packetsChart(groups),
		typesChart(groups),
		channelsChart(groups),
	)

	f, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("could not create report file %s: %w", filename, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return filename, nil
}

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle:       title,
		Width:           "900px",
		Height:          "500px",
		Theme:           types.ThemeVintage,
		BackgroundColor: "transparent",
	})
}

func packetsChart(groups []*netlist.Group) *charts.Bar {
	type row struct {
		name    string
		packets int64
		size    int64
	}
	rows := make([]row, 0, len(groups))
	var total int64
	for _, g := range groups {
		agg := g.Aggregate()
		rows = append(rows, row{g.Name(), agg.Packets(), agg.DataSize})
		total += agg.DataSize
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].packets > rows[j].packets })
	if len(rows) > maxBars {
		rows = rows[:maxBars]
	}

	names := make([]string, len(rows))
	packets := make([]opts.BarData, len(rows))
	sizes := make([]opts.BarData, len(rows))
	for i, r := range rows {
		names[i] = r.name
		packets[i] = opts.BarData{Name: r.name, Value: r.packets}
		sizes[i] = opts.BarData{Name: formatBytes(r.size), Value: r.size / 1024}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Packets per group"),
		charts.WithTitleOpts(opts.Title{
			Title:    "Packets per group",
			Subtitle: fmt.Sprintf("%d groups, %s of data", len(groups), formatBytes(total)),
			Left:     "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: 30}}),
	)
	bar.SetXAxis(names).
		AddSeries("Packets", packets).
		AddSeries("Data (KiB)", sizes)
	return bar
}

func typesChart(groups []*netlist.Group) *charts.Pie {
	counts := make(map[models.NetType]int)
	for _, g := range groups {
		counts[g.Aggregate().Type]++
	}
	keys := make([]models.NetType, 0, len(counts))
	for t := range counts {
		keys = append(keys, t)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	data := make([]opts.PieData, len(keys))
	for i, t := range keys {
		data[i] = opts.PieData{Name: t.String(), Value: counts[t]}
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		initOpts("Network types"),
		charts.WithTitleOpts(opts.Title{Title: "Network types", Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
	)
	pie.AddSeries("Types", data)
	return pie
}

func channelsChart(groups []*netlist.Group) *charts.Bar {
	counts := make(map[int]int)
	for _, g := range groups {
		counts[g.Aggregate().Channel]++
	}
	channels := make([]int, 0, len(counts))
	for ch := range counts {
		channels = append(channels, ch)
	}
	sort.Ints(channels)

	labels := make([]string, len(channels))
	data := make([]opts.BarData, len(channels))
	for i, ch := range channels {
		labels[i] = strconv.Itoa(ch)
		if ch == 0 {
			labels[i] = "unknown"
		}
		data[i] = opts.BarData{Value: counts[ch]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Groups per channel"),
		charts.WithTitleOpts(opts.Title{Title: "Groups per channel", Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Channel"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Groups"}),
	)
	bar.SetXAxis(labels).AddSeries("Groups", data)
	return bar
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
