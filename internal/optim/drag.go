package optim

import (
	"context"

	"github.com/san-kum/cycledyn/internal/activity"
	"github.com/san-kum/cycledyn/internal/analysis"
	"github.com/san-kum/cycledyn/internal/dynamo"
)

type DragFit struct {
	CdA      float64 `json:"cda"`
	Crr      float64 `json:"crr"`
	RMSError float64 `json:"rms_error_watts"`
}

// FitDrag finds the CdA and Crr that best explain a recorded ride's power,
// scoring each pair by the RMS error of the modelled power.
func FitDrag(ctx context.Context, recs []activity.Record, r dynamo.Rider, opts analysis.EstimateOptions, cdas, crrs []float64) (DragFit, error) {
	g := NewGridSearch([]string{"cda", "crr"}, [][]float64{cdas, crrs})

	best, score, err := g.Search(ctx, func(p map[string]float64) (float64, error) {
		candidate := r.WithCdA(p["cda"])
		candidate.RollingResistance = p["crr"]
		est, err := analysis.Estimate(recs, candidate, opts)
		if err != nil {
			return 0, err
		}
		return est.RMSError(), nil
	})
	if err != nil {
		return DragFit{}, err
	}
	return DragFit{CdA: best["cda"], Crr: best["crr"], RMSError: score}, nil
}
