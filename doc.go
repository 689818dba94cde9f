// Package armlink drives a six-axis robotic arm over a serial byte stream.
//
// The controller speaks a newline-terminated ASCII dialect: G06 motion
// commands with per-axis degree fields and an F feed rate, answered by an
// Ok line once each motion completes. This module is the communication
// core that sits on top of the raw stream - connection lifecycle, line
// reassembly under arbitrary chunking, command encoding/decoding,
// feed-rate-paced linear trajectories, and debounced auto-send of local
// pose edits. Rendering and input widgets are consumers of the core, not
// part of it.
//
// # Usage
//
// Point armlink at the controller's port and watch the joints live:
//
//	armlink monitor --port /dev/ttyUSB0
//
// Or fire a single move and wait for the acknowledgment:
//
//	armlink send --port /dev/ttyUSB0 --theta1 45 --feed 500 --wait
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/armlink: CLI with monitor and send commands
//   - pkg/arm: joint vocabulary, pose state, unit conversion, config
//   - pkg/proto: line reassembly and the G06 command codec
//   - pkg/motion: trajectory scheduling and the auto-send debouncer
//   - pkg/link: transport abstraction and the connection manager
package armlink
