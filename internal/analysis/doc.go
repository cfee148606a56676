// Package analysis turns recorded rides into power models and summaries.
//
//   - [Estimate]: per-sample power split into drag, climbing, rolling and
//     acceleration, compared with the power meter
//   - [Summarize]: rolling speed, aerodynamic efficiency, normalized
//     power, intensity factor and training stress
//   - [Sensitivity]: steady-state speed as one rider parameter varies
//
// # Usage
//
//	recs = activity.Enrich(recs, activity.DefaultEnrichOptions())
//	est, err := analysis.Estimate(recs, rider, analysis.DefaultEstimateOptions())
//	fmt.Println(est.RMSError())
package analysis
