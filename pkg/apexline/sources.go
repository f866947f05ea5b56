package apexline

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"apexline/internal/config"
	"apexline/internal/trackio"
)

// TrackSource supplies an ordered closed centerline with per-point track
// widths. It is the only boundary through which geometry enters the
// optimizer; the core never touches host-application objects.
type TrackSource interface {
	Name() string
	Load(ctx context.Context) (points []r3.Vec, widths []float64, err error)
}

// CSVTrackSource reads a centerline exported by the host tool.
type CSVTrackSource struct {
	Path string
}

func (s CSVTrackSource) Name() string {
	return s.Path
}

func (s CSVTrackSource) Load(_ context.Context) ([]r3.Vec, []float64, error) {
	return trackio.LoadCSV(s.Path)
}

// SyntheticTrackSource generates a named synthetic circuit.
type SyntheticTrackSource struct {
	TrackName string
}

func (s SyntheticTrackSource) Name() string {
	return "synthetic:" + s.TrackName
}

func (s SyntheticTrackSource) Load(_ context.Context) ([]r3.Vec, []float64, error) {
	return trackio.Named(s.TrackName)
}

// SourceFromConfig resolves the configured track source.
func SourceFromConfig(tc config.TrackConfig) (TrackSource, error) {
	switch tc.Source {
	case "csv":
		return CSVTrackSource{Path: tc.Path}, nil
	case "synthetic":
		return SyntheticTrackSource{TrackName: tc.Name}, nil
	default:
		return nil, fmt.Errorf("unsupported track source: %s", tc.Source)
	}
}
