package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cwbudde/algo-nvdepth/measure/noisefit"
	"github.com/cwbudde/algo-nvdepth/measure/trace"
)

var (
	dataColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	modelColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// Plot saves a PNG of the measured contrast against τ together with the
// fitted model.
func Plot(path string, tr trace.Normalized, rep noisefit.Report) error {
	if tr.Len() == 0 {
		return fmt.Errorf("report: nothing to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("f0 = %.4g MHz, Γ = %.3g kHz", rep.Model.F0/1e6, rep.Model.Gamma/1e3)
	p.X.Label.Text = "τ [ns]"
	p.Y.Label.Text = "contrast y"

	data := make(plotter.XYs, tr.Len())
	for i := range data {
		data[i] = plotter.XY{X: tr.Tau[i] * 1e9, Y: tr.Y[i]}
	}

	points, err := plotter.NewScatter(data)
	if err != nil {
		return fmt.Errorf("report: data points: %w", err)
	}
	points.GlyphStyle.Color = dataColor
	p.Add(points)
	p.Legend.Add("measured", points)

	if len(rep.Predicted) == tr.Len() {
		model := make(plotter.XYs, tr.Len())
		for i := range model {
			model[i] = plotter.XY{X: tr.Tau[i] * 1e9, Y: rep.Predicted[i]}
		}

		line, err := plotter.NewLine(model)
		if err != nil {
			return fmt.Errorf("report: model line: %w", err)
		}
		line.Color = modelColor
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("model", line)
	}

	p.Legend.Top = false
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = 10

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("report: save plot: %w", err)
	}
	return nil
}
