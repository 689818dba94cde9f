package proto

import (
	"fmt"
	"strconv"
	"strings"

	"armlink/pkg/arm"
)

// Wire protocol constants. One command per newline-terminated line, e.g.
//
//	G06 X10.0 Y-5.0 Z0.0 W0.0 U45.0 V0.0 F500
//
// Axis letters map to theta1..theta6; F is the feed rate in degrees per
// minute; Ok acknowledges a completed motion.
const (
	Marker     = "G06"
	AckLine    = "Ok"
	Terminator = "\n"
)

var axisLetters = []byte("XYZWUV")

var axisJoints = map[byte]arm.Joint{
	'X': arm.Theta1,
	'Y': arm.Theta2,
	'Z': arm.Theta3,
	'W': arm.Theta4,
	'U': arm.Theta5,
	'V': arm.Theta6,
}

// MotionCommand is a decoded motion request: a sparse target in radians and
// a feed rate in degrees per minute. Commands are constructed once and
// never mutated.
type MotionCommand struct {
	Target arm.State
	Feed   float64
}

// Decode parses a motion command line. It returns false for lines that do
// not start with the marker or carry no extractable field; such lines are
// not errors, just traffic this codec does not recognize.
//
// Fields may appear in any subset and order. A repeated field is resolved
// last-match-wins. Letters outside the axis set and values that fail to
// parse are skipped silently. A missing, non-numeric, or non-positive feed
// rate falls back to arm.DefaultFeedRate.
func Decode(line string) (MotionCommand, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != Marker {
		return MotionCommand{}, false
	}

	target := arm.State{}
	feed := 0.0
	seen := false
	for _, f := range fields[1:] {
		if len(f) < 2 {
			continue
		}
		val, err := strconv.ParseFloat(f[1:], 64)
		if err != nil {
			continue
		}
		if f[0] == 'F' {
			feed = val
			seen = true
			continue
		}
		if j, ok := axisJoints[f[0]]; ok {
			target[j] = arm.FromWire(val)
			seen = true
		}
	}
	if !seen {
		return MotionCommand{}, false
	}
	if feed <= 0 {
		feed = arm.DefaultFeedRate
	}
	return MotionCommand{Target: target, Feed: feed}, true
}

// Encode renders a complete pose as a motion command line: all six axes in
// fixed order at one-decimal precision, then the feed rate. Decoding the
// result reconstructs the pose within 0.1 degree per joint.
func Encode(state arm.State, feed float64) string {
	if feed <= 0 {
		feed = arm.DefaultFeedRate
	}
	var b strings.Builder
	b.WriteString(Marker)
	for i, j := range arm.AllJoints() {
		fmt.Fprintf(&b, " %c%.1f", axisLetters[i], arm.ToWire(state[j]))
	}
	fmt.Fprintf(&b, " F%.0f", feed)
	b.WriteString(Terminator)
	return b.String()
}

// EncodeAck renders the motion-complete acknowledgment line.
func EncodeAck() string {
	return AckLine + Terminator
}
