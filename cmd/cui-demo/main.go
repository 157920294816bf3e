//go:build !rp2040

// Command cui-demo serves the combined user interface on a host: the menu
// and status lines on a serial port or the current terminal, LEDs and
// buttons on a Raspberry Pi or simulated pins.
package main

import "os"

func main() {
	os.Exit(execute())
}
