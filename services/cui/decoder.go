package cui

import "devicecui-go/services/hal/uartio"

// Window is the raw input holding buffer, NUL padded.
type Window = [uartio.InputSize]byte

var (
	escUp    = Window{0x1b, '[', 'A'}
	escDown  = Window{0x1b, '[', 'B'}
	escRight = Window{0x1b, '[', 'C'}
	escLeft  = Window{0x1b, '[', 'D'}
	escBare  = Window{0x1b}
)

const inputDel = 0x7f

// Decode turns one input window into a command. ok is false when the window
// is empty or is an escape sequence other than the four arrows and a bare
// ESC; such windows are noise and must leave all state untouched.
func Decode(w Window) (in Input, ok bool) {
	b := w[0]
	if b == 0 {
		return 0, false
	}
	if b == byte(InputEsc) {
		switch w {
		case escUp:
			return InputUp, true
		case escDown:
			return InputDown, true
		case escRight:
			return InputRight, true
		case escLeft:
			return InputLeft, true
		case escBare:
			return InputEsc, true
		default:
			return 0, false
		}
	}
	switch {
	case b >= 'A' && b <= 'Z':
		b += 'a' - 'A'
	case b == inputDel:
		b = byte(InputBack)
	}
	return Input(b), true
}
