package arm

import "math"

const degPerRad = 180 / math.Pi

// ToWire converts an internal angle in radians to wire degrees.
func ToWire(rad float64) float64 {
	return rad * degPerRad
}

// FromWire converts a wire angle in degrees to internal radians.
func FromWire(deg float64) float64 {
	return deg / degPerRad
}
