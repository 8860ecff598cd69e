package strategy

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/roamsim/roamsim/pkg"
)

// epsilon guards the divisions in the entropy and TOPSIS math against
// zero-norm columns and zero distance sums.
const epsilon = 1e-10

// MCDM ranks candidates with entropy-weighted TOPSIS over a two-criterion
// decision matrix [RSSI, delay]. RSSI is a benefit criterion, delay a cost
// criterion. The strategy is stateless per tick and applies no hysteresis;
// stability comes from the delay column's load awareness instead.
type MCDM struct{}

// NewMCDM creates an MCDM strategy.
func NewMCDM() *MCDM { return &MCDM{} }

func (m *MCDM) Name() string    { return "mcdm" }
func (m *MCDM) LoadAware() bool { return false }

// Select builds the decision matrix, derives criterion weights from column
// entropy and picks the candidate with the highest TOPSIS score. All
// degenerate inputs (single candidate, zero-variance columns, NaN) resolve
// to deterministic fallbacks, never to an error.
func (m *MCDM) Select(current string, rows []pkg.TelemetryRow) Decision {
	if len(rows) == 0 {
		return Decision{AP: current, Reason: "no_candidates"}
	}

	n := len(rows)
	matrix := mat.NewDense(n, 2, nil)
	raw := make([][]float64, n)
	for i, row := range rows {
		matrix.Set(i, 0, row.RSSIdBm)
		matrix.Set(i, 1, row.DelayMs)
		raw[i] = []float64{row.RSSIdBm, row.DelayMs}
	}

	weights := entropyWeights(matrix)
	scores := topsisScores(matrix, weights)

	bestIdx := 0
	for i, s := range scores {
		if s > scores[bestIdx] {
			bestIdx = i
		}
	}

	return Decision{
		AP:      rows[bestIdx].AP,
		RSSIdBm: rows[bestIdx].RSSIdBm,
		Reason:  "topsis_rank",
		Weights: weights,
		Scores:  scores,
		Matrix:  raw,
	}
}

// entropyWeights derives the criterion weight vector from how much each
// column's values vary across candidates (Shannon entropy of the
// probability-rescaled column). More variation means a more discriminative
// criterion and a higher weight. Weights sum to 1.
func entropyWeights(matrix *mat.Dense) []float64 {
	n, cols := matrix.Dims()
	equal := []float64{0.5, 0.5}
	if n <= 1 {
		return equal
	}

	// Vector-normalize the absolute matrix column by column.
	normalized := mat.NewDense(n, cols, nil)
	col := make([]float64, n)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, matrix)
		for i := range col {
			col[i] = math.Abs(col[i])
		}
		norm := floats.Norm(col, 2)
		if norm == 0 {
			norm = epsilon
		}
		for i := range col {
			normalized.Set(i, j, col[i]/norm)
		}
	}

	k := 1.0 / math.Log(float64(n))
	diversities := make([]float64, cols)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, normalized)
		sum := floats.Sum(col)
		if sum == 0 {
			diversities[j] = 1 // entropy 0
			continue
		}
		entropy := 0.0
		for _, v := range col {
			p := v / sum
			if p <= 0 {
				p = epsilon
			}
			entropy -= k * p * math.Log(p)
		}
		diversities[j] = 1 - entropy
	}

	total := floats.Sum(diversities)
	if total == 0 || math.IsNaN(total) {
		return equal
	}

	weights := make([]float64, cols)
	for j, d := range diversities {
		weights[j] = d / total
		if math.IsNaN(weights[j]) {
			return equal
		}
	}
	return weights
}

// topsisScores ranks candidates by relative closeness to the ideal point.
// Column 0 (RSSI) is a benefit criterion, column 1 (delay) a cost
// criterion. Scores fall in [0, 1]; a NaN score vector collapses to a
// uniform distribution.
func topsisScores(matrix *mat.Dense, weights []float64) []float64 {
	n, cols := matrix.Dims()

	weighted := mat.NewDense(n, cols, nil)
	col := make([]float64, n)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, matrix)
		norm := floats.Norm(col, 2)
		if norm == 0 {
			norm = epsilon
		}
		for i := range col {
			weighted.Set(i, j, col[i]/norm*weights[j])
		}
	}

	mat.Col(col, 0, weighted)
	idealRSSI, worstRSSI := floats.Max(col), floats.Min(col)
	mat.Col(col, 1, weighted)
	idealDelay, worstDelay := floats.Min(col), floats.Max(col)

	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		r := weighted.At(i, 0)
		d := weighted.At(i, 1)
		distIdeal := math.Hypot(r-idealRSSI, d-idealDelay)
		distWorst := math.Hypot(r-worstRSSI, d-worstDelay)
		scores[i] = distWorst / (distIdeal + distWorst + epsilon)
	}

	for _, s := range scores {
		if math.IsNaN(s) {
			uniform := 1.0 / float64(n)
			for i := range scores {
				scores[i] = uniform
			}
			break
		}
	}
	return scores
}
