package debug

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Plot 把最终剖面画成 png
func (r *Record) Plot(w io.Writer) error {
	if r.Len() == 0 {
		return fmt.Errorf("debug: empty record")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("profiles at t = %.4g", r.Time[r.Len()-1])
	p.X.Label.Text = "rho"
	p.Add(plotter.NewGrid())
	for i, f := range r.Fields() {
		v := r.Final(f)
		xys := make(plotter.XYs, len(v))
		for j := range v {
			xys[j].X = r.Rho[j]
			xys[j].Y = v[j]
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("debug: %s: %w", f, err)
		}
		l.Color = plotutil.Color(i)
		l.Dashes = plotutil.Dashes(i)
		p.Add(l)
		p.Legend.Add(f, l)
	}
	p.Legend.Top = true
	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
