package errcode

// Code is a stable result identifier returned by the CUI API.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK      Code = "ok"
	Failure Code = "failure"
	Busy    Code = "busy" // resource already owned by another client

	InvalidParam        Code = "invalid_param"
	InvalidClientHandle Code = "invalid_client_handle"
	ModuleUninitialized Code = "module_uninitialized"
	ResourceNotAcquired Code = "resource_not_acquired"
	MaxMenusReached     Code = "max_menus_reached"

	NotManagingBtns Code = "not_managing_btns"
	NotManagingLeds Code = "not_managing_leds"
	NotManagingUart Code = "not_managing_uart"

	MissingUpdateFn     Code = "missing_update_fn"
	NoLinesReleased     Code = "no_lines_released"
	PrevWriteUnfinished Code = "prev_write_unfinished"
	UARTFailure         Code = "uart_failure"

	UnknownPin Code = "unknown_pin"
	PinInUse   Code = "pin_in_use"
	Timeout    Code = "timeout"
)

// E keeps context and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap attaches an op and a cause to c. A nil cause still yields a non-nil error.
func Wrap(c Code, op string, err error) error {
	e := &E{C: c, Op: op, Err: err}
	if err != nil {
		e.Msg = err.Error()
	}
	return e
}

// Of extracts a Code from an error, defaulting to Failure.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Failure
}

// Is reports whether err carries code c.
func Is(err error, c Code) bool { return Of(err) == c }
