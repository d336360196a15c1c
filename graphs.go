package main

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/stojg/lstsq/lsq"
)

type xyz struct{ x, y, z []float64 }

func (a xyz) Len() int                { return len(a.x) }
func (a xyz) XY(i int) (x, y float64) { return a.x[i], a.y[i] }

// plotTrace draws the distance to the ground truth after every update.
func plotTrace(p *plot.Plot, r *report, logScale bool) error {
	p.X.Label.Text = "update"
	p.Y.Label.Text = "||truth - x||"

	data := &xyz{}
	for i, v := range r.result.Trace {
		// a log axis can't place zeros
		if logScale && v <= 0 {
			continue
		}
		data.x = append(data.x, float64(i))
		data.y = append(data.y, v)
	}
	if data.Len() == 0 {
		return fmt.Errorf("error trace is empty")
	}

	if logScale {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	line, err := plotter.NewLine(data)
	if err != nil {
		return fmt.Errorf("could not create trace line: %v", err)
	}
	line.Color = color.RGBA{R: 90, G: 180, B: 234, A: 255}
	p.Legend.Add("SGD", line)
	p.Add(line)

	// exp(c + m*i) is the geometric rate fitted to the trace
	if m, c, ok := lsq.ConvergenceRate(r.result.Trace); ok {
		fit, err := addRateLine(p, data, m, c)
		if err != nil {
			return err
		}
		fit.Color = color.RGBA{R: 20, G: 240, B: 80, A: 255}
		fit.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		p.Legend.Add("fitted rate", fit)
	}

	if err := addHorizontalLine(p, data, r.referenceError); err != nil {
		return err
	}

	rows, cols := r.problem.A.Dims()
	addLabel(p, fmt.Sprintf("%d x %d, %d epochs, %d updates", rows, cols, r.result.Epochs, r.result.Updates))
	addLabel(p, fmt.Sprintf("final ||truth - x_sgd||: %0.4g", r.truthDistance))
	addLabel(p, fmt.Sprintf("||x_sgd - x_ref||: %0.4g", r.referenceDistance))
	return nil
}

// plotComparison scatters SGD coefficients against the closed-form
// reference. A perfect fit puts every point on y = x.
func plotComparison(p *plot.Plot, r *report) error {
	p.X.Label.Text = "reference coefficient"
	p.Y.Label.Text = "sgd coefficient"

	data := &xyz{
		x: mat.Col(nil, 0, r.reference),
		y: mat.Col(nil, 0, r.result.X),
		z: mat.Col(nil, 0, r.problem.Truth),
	}

	scatter, err := plotter.NewScatter(data)
	if err != nil {
		return fmt.Errorf("could not create scatter plot: %v", err)
	}
	scatter.GlyphStyle.Shape = draw.CrossGlyph{}
	scatter.Color = color.RGBA{R: 90, G: 180, B: 234, A: 255}
	p.Legend.Add("coefficients", scatter)
	p.Add(scatter)

	truth, err := plotter.NewScatter(xyz{x: data.x, y: data.z})
	if err != nil {
		return fmt.Errorf("could not create scatter plot: %v", err)
	}
	truth.GlyphStyle.Shape = draw.PlusGlyph{}
	truth.Color = color.RGBA{R: 0, G: 240, B: 108, A: 255}
	p.Legend.Add("truth", truth)
	p.Add(truth)

	if data.Len() > 1 {
		// the linear regression line alpha + beta*x
		c, m := stat.LinearRegression(data.x, data.y, nil, false)
		line, err := addRegressionLine(p, scatter, m, c)
		if err != nil {
			return err
		}
		line.Color = color.RGBA{20, 100, 240, 255}
		addLabel(p, fmt.Sprintf("fit: sgd = %0.4f * ref + %0.4g", m, c))
	}

	// a centroid shows the mean of all scatter points and must fall on the regression line
	if err := addCentroid(p, stat.Mean(data.x, nil), stat.Mean(data.y, nil)); err != nil {
		return err
	}
	addLabel(p, fmt.Sprintf("r²: %0.4f", r.rSquared))
	return nil
}

func addLabel(p *plot.Plot, text string) {
	p.Legend.Add(text)
}

func addHorizontalLine(p *plot.Plot, data plotter.XYer, y float64) error {
	if y <= 0 || math.IsNaN(y) {
		return nil
	}
	xMin, xMax, _, _ := plotter.XYRange(data)
	ref, err := plotter.NewLine(plotter.XYs{{X: xMin, Y: y}, {X: xMax, Y: y}})
	if err != nil {
		return fmt.Errorf("could not add reference line: %v", err)
	}
	ref.Color = color.RGBA{R: 255, A: 255}
	ref.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	p.Legend.Add("||truth - x_ref||", ref)
	p.Add(ref)
	return nil
}

func addRateLine(p *plot.Plot, data plotter.XYer, m, c float64) (*plotter.Line, error) {
	xMin, xMax, _, _ := plotter.XYRange(data)
	l, err := plotter.NewLine(plotter.XYs{
		{X: xMin, Y: math.Exp(c + m*xMin)}, {X: xMax, Y: math.Exp(c + m*xMax)},
	})
	if err != nil {
		return l, fmt.Errorf("could not create rate line: %v", err)
	}
	p.Add(l)
	return l, nil
}

func addRegressionLine(p *plot.Plot, s *plotter.Scatter, m, c float64) (*plotter.Line, error) {
	min, max, _, _ := s.DataRange()
	l, err := plotter.NewLine(plotter.XYs{
		{X: min, Y: min*m + c}, {X: max, Y: max*m + c},
	})
	if err != nil {
		return l, fmt.Errorf("could not create regression line: %v", err)
	}
	p.Add(l)
	return l, nil
}

func addCentroid(p *plot.Plot, xMean, yMean float64) error {
	centroidXYs := xyz{
		x: []float64{xMean},
		y: []float64{yMean},
	}
	centroid, err := plotter.NewScatter(centroidXYs)
	if err != nil {
		return fmt.Errorf("could not create scatter: %v", err)
	}
	centroid.GlyphStyle.Shape = draw.CircleGlyph{}
	centroid.GlyphStyle.Radius = 4.0
	p.Add(centroid)
	return nil
}

func createPlot(label string) *plot.Plot {
	p := plot.New()
	p.Title.Text = label
	p.Legend.Left = false
	p.Legend.Top = true
	return p
}

func writePlot(w io.Writer, p *plot.Plot, width, height vg.Length, format string) error {
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return fmt.Errorf("could not create writer: %v", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("could not write plot: %v", err)
	}
	return nil
}
