// Package arm provides the joint vocabulary and pose types for a six-axis arm.
package arm

// Joint identifies one rotational axis of the arm.
type Joint string

// The six joints, in wire order (X Y Z W U V).
const (
	Theta1 Joint = "theta1"
	Theta2 Joint = "theta2"
	Theta3 Joint = "theta3"
	Theta4 Joint = "theta4"
	Theta5 Joint = "theta5"
	Theta6 Joint = "theta6"
)

// AllJoints returns all joint names in wire order.
func AllJoints() []Joint {
	return []Joint{
		Theta1,
		Theta2,
		Theta3,
		Theta4,
		Theta5,
		Theta6,
	}
}

// State maps joints to angles in radians. A complete state names all six
// joints; a sparse state names only the joints an operation touches, and
// consumers leave absent joints unchanged.
type State map[Joint]float64

// Zero returns a complete state with every joint at 0.
func Zero() State {
	s := make(State, 6)
	for _, j := range AllJoints() {
		s[j] = 0
	}
	return s
}

// Clone returns an independent copy of the state.
func (s State) Clone() State {
	out := make(State, len(s))
	for j, v := range s {
		out[j] = v
	}
	return out
}

// Merge overlays the joints named in partial onto s. Joints absent from
// partial keep their value.
func (s State) Merge(partial State) {
	for j, v := range partial {
		s[j] = v
	}
}
