// Package trackio supplies track centerlines to the optimizer: CSV files
// exported by a host tool and named synthetic circuits for tests and demos.
package trackio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// LoadCSV reads a centerline file with one "x,y,z,width" row per point.
// A header row is skipped when the first field is not numeric.
func LoadCSV(path string) ([]r3.Vec, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	points, widths, err := ParseCSV(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return points, widths, nil
}

// ParseCSV parses centerline rows from r.
func ParseCSV(r io.Reader) ([]r3.Vec, []float64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	var points []r3.Vec
	var widths []float64
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		row++
		if len(record) != 4 {
			return nil, nil, fmt.Errorf("row %d: want 4 fields x,y,z,width, got %d", row, len(record))
		}
		if row == 1 {
			if _, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64); err != nil {
				continue // header
			}
		}
		vals := make([]float64, 4)
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d field %d: %w", row, i+1, err)
			}
			vals[i] = v
		}
		points = append(points, r3.Vec{X: vals[0], Y: vals[1], Z: vals[2]})
		widths = append(widths, vals[3])
	}
	if len(points) == 0 {
		return nil, nil, fmt.Errorf("no centerline rows found")
	}
	return points, widths, nil
}

// WriteLineCSV writes reconstructed line vertices as "x,y,z" rows for the
// host tool to import.
func WriteLineCSV(w io.Writer, points []r3.Vec) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y", "z"}); err != nil {
		return err
	}
	for _, p := range points {
		rec := []string{
			strconv.FormatFloat(p.X, 'f', -1, 64),
			strconv.FormatFloat(p.Y, 'f', -1, 64),
			strconv.FormatFloat(p.Z, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Circle generates a flat circular circuit of the given radius and
// constant full width, sampled at n points.
func Circle(radius, width float64, n int) ([]r3.Vec, []float64) {
	points := make([]r3.Vec, n)
	widths := make([]float64, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		points[i] = r3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
		widths[i] = width
	}
	return points, widths
}

// Oval generates a stadium oval: two straights of the given length joined
// by half circles of the given radius.
func Oval(straight, radius, width float64, n int) ([]r3.Vec, []float64) {
	perimeter := 2*straight + 2*math.Pi*radius
	points := make([]r3.Vec, n)
	widths := make([]float64, n)
	for i := 0; i < n; i++ {
		s := perimeter * float64(i) / float64(n)
		points[i] = ovalPoint(s, straight, radius)
		widths[i] = width
	}
	return points, widths
}

func ovalPoint(s, straight, radius float64) r3.Vec {
	switch {
	case s < straight: // bottom straight, left to right
		return r3.Vec{X: -straight/2 + s, Y: -radius}
	case s < straight+math.Pi*radius: // right half circle
		a := (s - straight) / radius
		return r3.Vec{X: straight/2 + radius*math.Sin(a), Y: -radius * math.Cos(a)}
	case s < 2*straight+math.Pi*radius: // top straight, right to left
		d := s - straight - math.Pi*radius
		return r3.Vec{X: straight/2 - d, Y: radius}
	default: // left half circle
		a := (s - 2*straight - math.Pi*radius) / radius
		return r3.Vec{X: -straight/2 - radius*math.Sin(a), Y: radius * math.Cos(a)}
	}
}

// Chicane generates a wavy circuit: a circle with a sinusoidal radius
// modulation, giving alternating left and right corners.
func Chicane(radius, amplitude, width float64, lobes, n int) ([]r3.Vec, []float64) {
	points := make([]r3.Vec, n)
	widths := make([]float64, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		r := radius + amplitude*math.Sin(float64(lobes)*a)
		points[i] = r3.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}
		widths[i] = width
	}
	return points, widths
}

// Named returns a synthetic circuit by name.
func Named(name string) ([]r3.Vec, []float64, error) {
	switch name {
	case "circle":
		p, w := Circle(50, 10, 180)
		return p, w, nil
	case "oval":
		p, w := Oval(200, 60, 12, 240)
		return p, w, nil
	case "chicane":
		p, w := Chicane(80, 18, 10, 4, 240)
		return p, w, nil
	default:
		return nil, nil, fmt.Errorf("unknown synthetic track: %s (have %s)", name, strings.Join(SyntheticNames(), ", "))
	}
}

// SyntheticNames lists the available synthetic circuits.
func SyntheticNames() []string {
	names := []string{"circle", "oval", "chicane"}
	sort.Strings(names)
	return names
}
