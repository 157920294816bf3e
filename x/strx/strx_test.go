package strx

import "testing"

func TestFit(t *testing.T) {
	if got := Fit("Network", 3); got != "Net" {
		t.Errorf("got %q", got)
	}
	if got := Fit("ok", 10); got != "ok" {
		t.Errorf("got %q", got)
	}
	if got := Fit("anything", 0); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestFitANSIIgnoresEscapes(t *testing.T) {
	s := "\x1b[31mabc\x1b[0m"
	if got := FitANSI(s, 3); got != s {
		t.Errorf("escape sequences counted towards width: %q", got)
	}
}

func TestCoalesce(t *testing.T) {
	if Coalesce("", "d") != "d" || Coalesce("s", "d") != "s" {
		t.Errorf("coalesce mismatch")
	}
}
