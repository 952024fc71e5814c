// Package analysis measures how the opening angle trades accuracy for
// work, and characterizes runs.
//
//   - [ThetaSweep]: force error and interaction count against direct summation
//   - [DriftSweep]: energy and momentum drift of full runs, one per theta
//   - [LyapunovExponent]: divergence of nearby configurations
//   - [TraceOrbits]: xy trajectories for plotting
//
// # Choosing theta
//
// Error grows and work shrinks as theta increases:
//
//	points, _ := analysis.ThetaSweep(ps, params, analysis.ThetaRange(0, 1.5, 7))
//	for _, p := range points {
//	    fmt.Println(p.Theta, p.MeanRelError, p.Interactions)
//	}
package analysis
