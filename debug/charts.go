package debug

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"go.uber.org/zap"
)

// Charts 曲线绘制
type Charts struct {
	*Record
	Logger *zap.Logger
}

func legend() charts.GlobalOpts {
	return charts.WithLegendOpts(opts.Legend{
		Type:   "scroll",
		Orient: "vertical",
		Right:  "10",
		Top:    "20",
		Bottom: "20",
	})
}

func line(title, subtitle string, zoom bool) *charts.Line {
	l := charts.NewLine()
	l.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		legend(),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	if zoom {
		l.SetGlobalOptions(
			charts.WithDataZoomOpts(opts.DataZoom{
				Type:       "inside",
				Start:      0,
				End:        100,
				XAxisIndex: []int{0},
			}),
		)
	}
	return l
}

func lineData(v []float64) []opts.LineData {
	items := make([]opts.LineData, len(v))
	for i, x := range v {
		items[i] = opts.LineData{Value: x}
	}
	return items
}

func labels(v []float64) []string {
	out := make([]string, len(v))
	for i, x := range v {
		out[i] = fmt.Sprintf("%.4g", x)
	}
	return out
}

// Render 格式化
func (c *Charts) Render(w io.Writer) error {
	if c.Record == nil || c.Len() == 0 {
		return fmt.Errorf("debug: empty record")
	}
	// 最终剖面
	final := line("最终剖面", fmt.Sprintf("t = %.4g", c.Time[c.Len()-1]), false)
	final.SetXAxis(labels(c.Rho))
	for _, f := range c.Fields() {
		final.AddSeries(f, lineData(c.Final(f)))
	}
	// 中心值随时间变化
	center := line("中心值", "各剖面第一个单元随时间变化曲线", true)
	center.SetXAxis(labels(c.Time))
	for _, f := range c.Fields() {
		rows := c.Profiles[f]
		v := make([]float64, len(rows))
		for i, row := range rows {
			v[i] = row[0]
		}
		center.AddSeries(f, lineData(v))
	}
	// 残差
	residual := line("退出残差", "每个时间步求解结束时的残差", true)
	residual.SetXAxis(labels(c.Time))
	residual.AddSeries("residual", lineData(c.Residual))
	// 迭代次数
	iter := charts.NewBar()
	iter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "迭代次数",
			Subtitle: "每个时间步接受的迭代次数与重试次数",
		}),
		legend(),
	)
	iterations := make([]opts.BarData, c.Len())
	retries := make([]opts.BarData, c.Len())
	for i := range iterations {
		iterations[i] = opts.BarData{Value: c.Iterations[i]}
		retries[i] = opts.BarData{Value: c.Retries[i]}
	}
	iter.SetXAxis(labels(c.Time)).
		AddSeries("iterations", iterations).
		AddSeries("retries", retries)

	page := components.NewPage()
	page.AddCharts(
		final,
		center,
		residual,
		iter,
	)
	return page.Render(w)
}

// Handler 发布到网页面
func (c *Charts) Handler(w http.ResponseWriter, _ *http.Request) {
	if err := c.Render(w); err != nil {
		c.Error(err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (c *Charts) Error(err error) {
	if c.Logger != nil {
		c.Logger.Error("render charts", zap.Error(err))
	}
}
