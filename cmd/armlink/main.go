package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Monitor MonitorCommand `command:"monitor" alias:"mon" description:"Connect to the arm and monitor joint state"`
	Send    SendCommand    `command:"send" description:"Send a single motion command and exit"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "armlink - serial link driver for a six-axis robotic arm"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
