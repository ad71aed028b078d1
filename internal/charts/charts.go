// Package charts renders the pipeline's PNG chart artifacts: a daily
// temperature line chart, a monthly rainfall bar chart, a humidity versus
// temperature scatter, and a combined two-panel overview.
package charts

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kavery/weatherpipe/internal/metrics"
	"github.com/kavery/weatherpipe/internal/models"
	"github.com/kavery/weatherpipe/internal/stats"
)

const (
	chartWidth  = 1000
	chartHeight = 500

	marginLeft   = 70
	marginRight  = 30
	marginTop    = 40
	marginBottom = 60
)

var (
	white    = color.RGBA{255, 255, 255, 255}
	black    = color.RGBA{0, 0, 0, 255}
	gridGray = color.RGBA{225, 225, 225, 255}
	tempRed  = color.RGBA{200, 60, 50, 255}
	rainBlue = color.RGBA{60, 110, 200, 255}
	dotTeal  = color.RGBA{40, 140, 140, 255}
)

// Artifacts are the fixed output filenames, matching the original
// pipeline's images.
const (
	FileDailyTemperature = "daily_temperature.png"
	FileMonthlyRainfall  = "monthly_rainfall.png"
	FileHumidityTemp     = "humidity_vs_temperature.png"
	FileCombined         = "combined_plots.png"
)

// RenderAll writes the four chart artifacts for a cleaned table into dir.
func RenderAll(dir string, table models.Table) error {
	renders := []struct {
		name string
		img  *image.RGBA
	}{
		{FileDailyTemperature, DailyTemperature(table)},
		{FileMonthlyRainfall, MonthlyRainfall(table)},
		{FileHumidityTemp, HumidityVsTemperature(table)},
		{FileCombined, Combined(table)},
	}

	for _, r := range renders {
		path := filepath.Join(dir, r.name)
		if err := writePNG(path, r.img); err != nil {
			return fmt.Errorf("render %s: %w", r.name, err)
		}
		metrics.ChartsRendered.WithLabelValues(r.name).Inc()
	}
	return nil
}

func writePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// DailyTemperature renders the per-day temperature trend as a line chart.
func DailyTemperature(table models.Table) *image.RGBA {
	img := newCanvas(chartWidth, chartHeight, "Daily Temperature Trend")
	daily := stats.Aggregate(table, stats.Daily, stats.Temperature)
	drawTemperatureLine(img, image.Rect(0, 0, chartWidth, chartHeight), daily)
	return img
}

// MonthlyRainfall renders summed rainfall per month as a bar chart.
func MonthlyRainfall(table models.Table) *image.RGBA {
	img := newCanvas(chartWidth, chartHeight, "Monthly Rainfall Totals")
	monthly := stats.Aggregate(table, stats.Monthly, stats.Rainfall)
	drawRainfallBars(img, image.Rect(0, 0, chartWidth, chartHeight), monthly)
	return img
}

// HumidityVsTemperature renders the paired series as a scatter plot.
func HumidityVsTemperature(table models.Table) *image.RGBA {
	img := newCanvas(chartWidth, chartHeight, "Humidity vs Temperature")

	plot := plotArea(image.Rect(0, 0, chartWidth, chartHeight))
	var temps, hums []float64
	for _, rec := range table {
		temps = append(temps, rec.Temperature.Float64)
		hums = append(hums, rec.Humidity.Float64)
	}
	tMin, tMax := valueRange(temps)
	hMin, hMax := valueRange(hums)

	drawFrame(img, plot)
	drawYTicks(img, plot, hMin, hMax)
	drawXValueTicks(img, plot, tMin, tMax)

	for i := range temps {
		x := scaleX(temps[i], tMin, tMax, plot)
		y := scaleY(hums[i], hMin, hMax, plot)
		fillRect(img, image.Rect(x-2, y-2, x+2, y+2), dotTeal)
	}

	drawText(img, "Temperature", (plot.Min.X+plot.Max.X)/2-35, plot.Max.Y+35, black)
	drawTextVerticalHint(img, "Humidity", plot.Min.Y-8, black)
	return img
}

// Combined renders the daily temperature line above the monthly rainfall
// bars on one canvas.
func Combined(table models.Table) *image.RGBA {
	const h = 2 * chartHeight
	img := image.NewRGBA(image.Rect(0, 0, chartWidth, h))
	fillRect(img, img.Bounds(), white)
	drawText(img, "Temperature and Rainfall Overview", chartWidth/2-120, 20, black)

	daily := stats.Aggregate(table, stats.Daily, stats.Temperature)
	monthly := stats.Aggregate(table, stats.Monthly, stats.Rainfall)

	drawTemperatureLine(img, image.Rect(0, 30, chartWidth, chartHeight), daily)
	drawRainfallBars(img, image.Rect(0, chartHeight, chartWidth, h), monthly)
	return img
}

func drawTemperatureLine(img *image.RGBA, bounds image.Rectangle, daily []stats.Bucket) {
	plot := plotArea(bounds)
	vals := make([]float64, len(daily))
	for i, b := range daily {
		vals[i] = b.Summary.Mean
	}
	lo, hi := valueRange(vals)

	drawFrame(img, plot)
	drawYTicks(img, plot, lo, hi)
	drawDateTicks(img, plot, daily, stats.Daily)

	var prevX, prevY int
	for i, v := range vals {
		x := indexX(i, len(vals), plot)
		y := scaleY(v, lo, hi, plot)
		if i > 0 {
			drawLine(img, prevX, prevY, x, y, tempRed)
		}
		prevX, prevY = x, y
	}
}

func drawRainfallBars(img *image.RGBA, bounds image.Rectangle, monthly []stats.Bucket) {
	plot := plotArea(bounds)
	vals := make([]float64, len(monthly))
	for i, b := range monthly {
		vals[i] = b.Summary.Sum
	}
	_, hi := valueRange(vals)
	lo := 0.0 // rainfall bars always start at zero

	drawFrame(img, plot)
	drawYTicks(img, plot, lo, hi)
	drawDateTicks(img, plot, monthly, stats.Monthly)

	if len(vals) == 0 {
		return
	}
	slot := plot.Dx() / len(vals)
	barW := slot * 3 / 4
	if barW < 1 {
		barW = 1
	}
	for i, v := range vals {
		x := plot.Min.X + i*slot + (slot-barW)/2
		y := scaleY(v, lo, hi, plot)
		fillRect(img, image.Rect(x, y, x+barW, plot.Max.Y), rainBlue)
	}
}

// newCanvas creates a white chart canvas with a centered title.
func newCanvas(w, h int, title string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fillRect(img, img.Bounds(), white)
	drawText(img, title, w/2-len(title)*7/2, 20, black)
	return img
}

func plotArea(bounds image.Rectangle) image.Rectangle {
	return image.Rect(
		bounds.Min.X+marginLeft,
		bounds.Min.Y+marginTop,
		bounds.Max.X-marginRight,
		bounds.Max.Y-marginBottom,
	)
}

func drawFrame(img *image.RGBA, plot image.Rectangle) {
	drawLine(img, plot.Min.X, plot.Min.Y, plot.Min.X, plot.Max.Y, black)
	drawLine(img, plot.Min.X, plot.Max.Y, plot.Max.X, plot.Max.Y, black)
}

const yTickCount = 5

func drawYTicks(img *image.RGBA, plot image.Rectangle, lo, hi float64) {
	for i := 0; i <= yTickCount; i++ {
		v := lo + (hi-lo)*float64(i)/yTickCount
		y := scaleY(v, lo, hi, plot)
		drawLine(img, plot.Min.X, y, plot.Max.X, y, gridGray)
		drawText(img, fmt.Sprintf("%.1f", v), plot.Min.X-55, y+4, black)
	}
}

// drawDateTicks labels up to six evenly spaced buckets along the x axis.
func drawDateTicks(img *image.RGBA, plot image.Rectangle, buckets []stats.Bucket, iv stats.Interval) {
	n := len(buckets)
	if n == 0 {
		return
	}
	step := n / 6
	if step < 1 {
		step = 1
	}
	for i := 0; i < n; i += step {
		x := indexX(i, n, plot)
		label := buckets[i].Label(iv)
		drawText(img, label, x-len(label)*7/2, plot.Max.Y+20, black)
	}
}

func drawXValueTicks(img *image.RGBA, plot image.Rectangle, lo, hi float64) {
	const ticks = 6
	for i := 0; i <= ticks; i++ {
		v := lo + (hi-lo)*float64(i)/ticks
		x := scaleX(v, lo, hi, plot)
		drawText(img, fmt.Sprintf("%.1f", v), x-14, plot.Max.Y+20, black)
	}
}

func indexX(i, n int, plot image.Rectangle) int {
	if n <= 1 {
		return (plot.Min.X + plot.Max.X) / 2
	}
	return plot.Min.X + i*plot.Dx()/(n-1)
}

func scaleX(v, lo, hi float64, plot image.Rectangle) int {
	if hi == lo {
		return (plot.Min.X + plot.Max.X) / 2
	}
	return plot.Min.X + int((v-lo)/(hi-lo)*float64(plot.Dx()))
}

func scaleY(v, lo, hi float64, plot image.Rectangle) int {
	if hi == lo {
		return (plot.Min.Y + plot.Max.Y) / 2
	}
	return plot.Max.Y - int((v-lo)/(hi-lo)*float64(plot.Dy()))
}

// valueRange returns the padded min/max of vals so lines and points stay
// off the plot frame.
func valueRange(vals []float64) (lo, hi float64) {
	if len(vals) == 0 {
		return 0, 1
	}
	lo, hi = vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// drawLine draws a straight segment with integer stepping along the
// longer axis.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	steps := dx
	if dy > dx {
		steps = dy
	}
	if steps == 0 {
		img.SetRGBA(x0, y0, c)
		return
	}
	for i := 0; i <= steps; i++ {
		x := x0 + (x1-x0)*i/steps
		y := y0 + (y1-y0)*i/steps
		if image.Pt(x, y).In(img.Bounds()) {
			img.SetRGBA(x, y, c)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// drawTextVerticalHint places an axis caption above the y axis rather than
// rotating glyphs, which basicfont does not support.
func drawTextVerticalHint(img *image.RGBA, text string, y int, col color.Color) {
	drawText(img, text, 8, y, col)
}
