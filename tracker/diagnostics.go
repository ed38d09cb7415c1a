package tracker

import "fmt"

// ViolationKind names the reason a frame's fit was rejected for a body.
type ViolationKind string

// The rejection reasons a tracker can report.
const (
	ViolationXVelocity ViolationKind = "x_velocity"
	ViolationYVelocity ViolationKind = "y_velocity"
	ViolationZVelocity ViolationKind = "z_velocity"
	ViolationRollRate  ViolationKind = "roll_rate"
	ViolationPitchRate ViolationKind = "pitch_rate"
	ViolationYawRate   ViolationKind = "yaw_rate"
	ViolationRoll      ViolationKind = "roll"
	ViolationPitch     ViolationKind = "pitch"
	ViolationFitness   ViolationKind = "fitness"

	// ViolationNoConvergence means alignment failed to converge this frame.
	ViolationNoConvergence ViolationKind = "no_convergence"
	// ViolationAmbiguousPlacement means the points nearest a body's nominal
	// position were not centered close enough to it during initialization.
	ViolationAmbiguousPlacement ViolationKind = "ambiguous_placement"
	// ViolationPoorFit means a best-hypothesis initialization fit left some
	// template point too far from any observed point.
	ViolationPoorFit ViolationKind = "poor_fit"
)

// A Diagnostic reports one recoverable per-frame failure: which body, what
// kind of check failed, and the measured value against its bound where the
// check is numeric.
type Diagnostic struct {
	Body     string
	Kind     ViolationKind
	Measured float64
	Bound    float64
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case ViolationNoConvergence:
		return fmt.Sprintf("%s: alignment did not converge", d.Body)
	case ViolationAmbiguousPlacement:
		return fmt.Sprintf("%s: nearest neighbors centered %.4fm from nominal position, limit %.4fm", d.Body, d.Measured, d.Bound)
	case ViolationPoorFit:
		return fmt.Sprintf("%s: template point %.1fmm from nearest observed point, limit %.1fmm", d.Body, d.Measured*1000, d.Bound*1000)
	default:
		return fmt.Sprintf("%s: %s %.4f exceeds bound %.4f", d.Body, d.Kind, d.Measured, d.Bound)
	}
}

// A DiagnosticSink receives rejection reports. A nil sink drops them.
type DiagnosticSink func(Diagnostic)
