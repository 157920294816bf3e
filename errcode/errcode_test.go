package errcode

import (
	"errors"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"ok":                    OK,
		"busy":                  Busy,
		"invalid_client_handle": InvalidClientHandle,
		"resource_not_acquired": ResourceNotAcquired,
		"max_menus_reached":     MaxMenusReached,
		"missing_update_fn":     MissingUpdateFn,
		"no_lines_released":     NoLinesReleased,
		"prev_write_unfinished": PrevWriteUnfinished,
		"uart_failure":          UARTFailure,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestOf(t *testing.T) {
	if Of(nil) != OK {
		t.Errorf("nil should map to ok")
	}
	if Of(Busy) != Busy {
		t.Errorf("bare code lost")
	}
	cause := errors.New("port gone")
	err := Wrap(UARTFailure, "write", cause)
	if Of(err) != UARTFailure {
		t.Errorf("wrapped code lost: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause not unwrappable")
	}
	if got := err.Error(); got != "write: uart_failure: port gone" {
		t.Errorf("unexpected message %q", got)
	}
	if Of(errors.New("other")) != Failure {
		t.Errorf("foreign errors should map to failure")
	}
}
