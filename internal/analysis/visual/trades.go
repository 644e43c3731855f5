// Package visual renders HTML charts of the simulated account.
package visual

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"gridsim/internal/types"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	echartstypes "github.com/go-echarts/go-echarts/v2/types"
)

const (
	colorBackground    = "#060c1b"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"
	colorBuy           = "#34d399"
	colorSell          = "#f87171"
	colorPrice         = "#3b82f6"
	colorEntry         = "#fbbf24"

	chartWidthPx  = 1200
	priceHeightPx = 480
	pnlHeightPx   = 240
)

// TradeChartInput is one market's trade log plus its current cost basis.
type TradeChartInput struct {
	Market            string
	Trades            []types.Trade
	AverageEntryPrice float64
}

// RenderTrades writes an HTML page with the trade price line, buy/sell
// markers and the cumulative realized PnL.
func RenderTrades(w io.Writer, input TradeChartInput) error {
	if strings.TrimSpace(input.Market) == "" {
		return fmt.Errorf("market required for trade chart")
	}
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s trades", input.Market)
	page.SetLayout(components.PageFlexLayout)

	xAxis := buildXAxis(input.Trades)
	price := buildPriceChart(input, xAxis)
	pnl := buildPnLChart(input.Market, xAxis, input.Trades)
	page.AddCharts(price, pnl)
	return page.Render(w)
}

func buildXAxis(trades []types.Trade) []string {
	x := make([]string, len(trades))
	for i, t := range trades {
		x[i] = t.CreatedAt.UTC().Format("01-02 15:04:05")
	}
	return x
}

func buildPriceChart(input TradeChartInput, xAxis []string) *charts.Line {
	subtitle := "no trades yet"
	if n := len(input.Trades); n > 0 {
		subtitle = fmt.Sprintf("%d trades | avg entry %.6g | last %s", n, input.AverageEntryPrice,
			input.Trades[n-1].CreatedAt.UTC().Format(time.RFC3339))
	}
	minPrice, maxPrice := priceBounds(input.Trades)
	padding := (maxPrice - minPrice) * 0.05
	if padding <= 0 {
		padding = math.Max(0.0001, math.Abs(maxPrice)*0.01)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           echartstypes.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", priceHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         strings.ToUpper(input.Market),
			Subtitle:      subtitle,
			Left:          "left",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			Min:       round(minPrice-padding, 6),
			Max:       round(maxPrice+padding, 6),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)

	prices := make([]opts.LineData, len(input.Trades))
	entry := make([]opts.LineData, len(input.Trades))
	for i, t := range input.Trades {
		prices[i] = opts.LineData{Value: t.Price}
		entry[i] = opts.LineData{Value: input.AverageEntryPrice}
	}
	line.SetXAxis(xAxis)
	line.AddSeries("Trade price", prices, charts.WithLineStyleOpts(opts.LineStyle{Color: colorPrice, Width: 2}))
	if input.AverageEntryPrice > 0 {
		line.AddSeries("Avg entry", entry, charts.WithLineStyleOpts(opts.LineStyle{Color: colorEntry, Type: "dashed"}))
	}

	markers := charts.NewScatter()
	markers.SetXAxis(xAxis)
	markers.AddSeries("Buy", sideMarkers(input.Trades, types.SideBuy, "triangle"),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBuy}))
	markers.AddSeries("Sell", sideMarkers(input.Trades, types.SideSell, "diamond"),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorSell}))
	line.Overlap(markers)
	return line
}

// sideMarkers keeps one slot per trade so markers line up with the category
// axis; trades of the other side are left empty.
func sideMarkers(trades []types.Trade, side types.Side, shape string) []opts.ScatterData {
	out := make([]opts.ScatterData, len(trades))
	for i, t := range trades {
		if t.Side != side {
			out[i] = opts.ScatterData{Value: "-"}
			continue
		}
		out[i] = opts.ScatterData{Value: t.Price, Symbol: shape, SymbolSize: 12}
	}
	return out
}

func buildPnLChart(market string, xAxis []string, trades []types.Trade) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           echartstypes.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", pnlHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Realized PnL %s", market), Left: "left", TitleStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Show: opts.Bool(false)}}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.15)}},
		}),
	)
	data := make([]opts.BarData, len(trades))
	cumulative := 0.0
	for i, t := range trades {
		cumulative += t.RealizedPnL
		color := colorSell
		if cumulative >= 0 {
			color = colorBuy
		}
		data[i] = opts.BarData{
			Value:     round(cumulative, 6),
			ItemStyle: &opts.ItemStyle{Color: color, Opacity: opts.Float(0.7)},
		}
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("Realized PnL", data)
	return bar
}

func round(val float64, decimals int) float64 {
	if decimals < 0 {
		return val
	}
	factor := math.Pow10(decimals)
	return math.Round(val*factor) / factor
}

func priceBounds(trades []types.Trade) (minVal, maxVal float64) {
	if len(trades) == 0 {
		return 0, 0
	}
	minVal = trades[0].Price
	maxVal = trades[0].Price
	for _, t := range trades[1:] {
		if t.Price < minVal {
			minVal = t.Price
		}
		if t.Price > maxVal {
			maxVal = t.Price
		}
	}
	return
}
