package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"armlink/pkg/arm"
	"armlink/pkg/link"
	"armlink/pkg/proto"
)

// SendCommand writes one motion command straight to the port and exits.
type SendCommand struct {
	Port string  `long:"port" description:"Serial port (overrides config file)"`
	Feed float64 `long:"feed" default:"500" description:"Feed rate in degrees per minute"`
	Wait bool    `long:"wait" description:"Block until the controller acknowledges with Ok"`

	Theta1 float64 `long:"theta1" default:"0" description:"theta1 target in degrees"`
	Theta2 float64 `long:"theta2" default:"0" description:"theta2 target in degrees"`
	Theta3 float64 `long:"theta3" default:"0" description:"theta3 target in degrees"`
	Theta4 float64 `long:"theta4" default:"0" description:"theta4 target in degrees"`
	Theta5 float64 `long:"theta5" default:"0" description:"theta5 target in degrees"`
	Theta6 float64 `long:"theta6" default:"0" description:"theta6 target in degrees"`
}

func (c *SendCommand) Execute(args []string) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	port := c.Port
	if port == "" {
		cfg, err := arm.LoadConfig()
		if err != nil {
			return fmt.Errorf("no --port and no %s: %w", arm.DefaultConfigFile, err)
		}
		port = cfg.Port
	}

	state := arm.State{
		arm.Theta1: arm.FromWire(c.Theta1),
		arm.Theta2: arm.FromWire(c.Theta2),
		arm.Theta3: arm.FromWire(c.Theta3),
		arm.Theta4: arm.FromWire(c.Theta4),
		arm.Theta5: arm.FromWire(c.Theta5),
		arm.Theta6: arm.FromWire(c.Theta6),
	}

	transport := link.NewSerialTransport(port)
	if err := transport.Open(); err != nil {
		return err
	}
	defer transport.Close()

	line := proto.Encode(state, c.Feed)
	log.Info().Str("port", port).Str("line", strings.TrimSpace(line)).Msg("sending")
	if _, err := transport.Write([]byte(line)); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	if c.Wait {
		if err := waitForAck(transport); err != nil {
			return err
		}
		log.Info().Msg("acknowledged")
	}
	return nil
}

// waitForAck reads until the Ok line arrives. No timeout: ^C is the escape
// hatch, same as the link itself.
func waitForAck(t link.Transport) error {
	var r proto.Reader
	buf := make([]byte, 256)
	for {
		n, err := t.Read(buf)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		for _, line := range r.Feed(buf[:n]) {
			if line == proto.AckLine {
				return nil
			}
		}
	}
}
