package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Gene is one control point of a racing line: a lateral offset from the
// track centerline and the self-adaptive mutation step size that travels
// with it.
type Gene struct {
	Offset float64 `json:"offset"`
	Sigma  float64 `json:"sigma"`
}

// Candidate is a fixed-length racing line genome. All candidates in a run
// share the same gene count, one gene per arc-length sample of the track.
type Candidate struct {
	Genes []Gene `json:"genes"`
}

func (c Candidate) Clone() Candidate {
	genes := make([]Gene, len(c.Genes))
	copy(genes, c.Genes)
	return Candidate{Genes: genes}
}

// Offsets returns the lateral offsets of all genes in order.
func (c Candidate) Offsets() []float64 {
	out := make([]float64, len(c.Genes))
	for i, g := range c.Genes {
		out[i] = g.Offset
	}
	return out
}

// FitnessRecord is the per-generation score of a candidate. It is
// recomputed every generation and never outlives its candidate.
type FitnessRecord struct {
	LapTimeSeconds float64 `json:"lap_time_seconds"`
	Valid          bool    `json:"valid"`
	InvalidReason  string  `json:"invalid_reason,omitempty"`
	Fitness        float64 `json:"fitness"`
}

// Vertex is a persisted 3D point of a reconstructed racing line.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// VelocityPoint is one sample of the simulator's velocity profile.
type VelocityPoint struct {
	DistanceMeters  float64 `json:"distance_m"`
	SpeedMPS        float64 `json:"speed_mps"`
	SegmentTimeSec  float64 `json:"segment_time_s"`
	CornerCapMPS    float64 `json:"corner_cap_mps"`
	RadiusMeters    float64 `json:"radius_m"`
	SegmentLengthM  float64 `json:"segment_length_m"`
	EntrySpeedMPS   float64 `json:"entry_speed_mps"`
	ExitSpeedMPS    float64 `json:"exit_speed_mps"`
}

// BestLine is the exported result of a run: the winning candidate, its
// reconstructed vertices and the velocity profile it achieved.
type BestLine struct {
	VersionedRecord
	RunID          string          `json:"run_id"`
	LapTimeSeconds float64         `json:"lap_time_seconds"`
	Fitness        float64         `json:"fitness"`
	Genes          []Gene          `json:"genes"`
	Vertices       []Vertex        `json:"vertices"`
	Velocity       []VelocityPoint `json:"velocity,omitempty"`
}

// RunRecord summarizes one optimization run for the run archive.
type RunRecord struct {
	VersionedRecord
	ID             string  `json:"id"`
	CreatedAtUTC   string  `json:"created_at_utc"`
	Track          string  `json:"track"`
	Strategy       string  `json:"strategy"`
	Mu             int     `json:"mu"`
	Lambda         int     `json:"lambda"`
	SampleCount    int     `json:"sample_count"`
	Generations    int     `json:"generations"`
	GenerationsRun int     `json:"generations_run"`
	Seed           int64   `json:"seed"`
	StopReason     string  `json:"stop_reason"`
	BestLapTimeSec float64 `json:"best_lap_time_s"`
	BestFitness    float64 `json:"best_fitness"`
}

// GenerationDiagnostics is one row of per-generation run telemetry.
type GenerationDiagnostics struct {
	Generation   int     `json:"generation"`
	BestFitness  float64 `json:"best_fitness"`
	MeanFitness  float64 `json:"mean_fitness"`
	MinFitness   float64 `json:"min_fitness"`
	FitnessStd   float64 `json:"fitness_std"`
	BestLapTime  float64 `json:"best_lap_time_s"`
	InvalidCount int     `json:"invalid_count"`
	MeanSigma    float64 `json:"mean_sigma"`
}
