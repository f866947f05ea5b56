package stats

import (
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"apexline/internal/model"
)

const (
	fitnessPlotFile  = "fitness.png"
	velocityPlotFile = "velocity.png"
	linePlotFile     = "line.png"
)

// WritePlots renders the fitness history, the velocity profile and the
// line overlay into a run directory.
func WritePlots(dir string, artifacts RunArtifacts) error {
	if err := plotFitness(filepath.Join(dir, fitnessPlotFile), artifacts.BestByGeneration); err != nil {
		return err
	}
	if err := plotVelocity(filepath.Join(dir, velocityPlotFile), artifacts.Best.Velocity); err != nil {
		return err
	}
	return plotLine(filepath.Join(dir, linePlotFile), artifacts.Best.Vertices)
}

func plotFitness(path string, history []float64) error {
	p := plot.New()
	p.Title.Text = "Best Fitness"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness (1/s)"

	pts := make(plotter.XYs, len(history))
	for i, f := range history {
		pts[i].X = float64(i + 1)
		pts[i].Y = f
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func plotVelocity(path string, profile []model.VelocityPoint) error {
	p := plot.New()
	p.Title.Text = "Velocity Graph"
	p.X.Label.Text = "Distance (m)"
	p.Y.Label.Text = "Exit Velocity (m/s)"

	pts := make(plotter.XYs, 0, len(profile))
	caps := make(plotter.XYs, 0, len(profile))
	for _, vp := range profile {
		pts = append(pts, plotter.XY{X: vp.DistanceMeters, Y: vp.ExitSpeedMPS})
		if !math.IsInf(vp.CornerCapMPS, 1) {
			caps = append(caps, plotter.XY{X: vp.DistanceMeters, Y: vp.CornerCapMPS})
		}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("Line", line)

	if len(caps) > 0 {
		capLine, err := plotter.NewLine(caps)
		if err != nil {
			return err
		}
		capLine.Width = vg.Points(1)
		capLine.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
		p.Add(capLine)
		p.Legend.Add("Corner cap", capLine)
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func plotLine(path string, vertices []model.Vertex) error {
	p := plot.New()
	p.Title.Text = "Racing Line"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	pts := make(plotter.XYs, 0, len(vertices)+1)
	for _, v := range vertices {
		pts = append(pts, plotter.XY{X: v.X, Y: v.Y})
	}
	if len(vertices) > 0 {
		pts = append(pts, plotter.XY{X: vertices[0].X, Y: vertices[0].Y}) // close the loop
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)
	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}
