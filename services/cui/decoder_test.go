package cui

import "testing"

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		in   Window
		want Input
		ok   bool
	}{
		{"empty", Window{}, 0, false},
		{"up arrow", Window{0x1b, '[', 'A'}, InputUp, true},
		{"down arrow", Window{0x1b, '[', 'B'}, InputDown, true},
		{"right arrow", Window{0x1b, '[', 'C'}, InputRight, true},
		{"left arrow", Window{0x1b, '[', 'D'}, InputLeft, true},
		{"bare esc", Window{0x1b}, InputEsc, true},
		{"unknown csi", Window{0x1b, '[', 'H'}, 0, false},
		{"ss3", Window{0x1b, 'O', 'A'}, 0, false},
		{"long csi", Window{0x1b, '[', '1', ';', '5'}, 0, false},
		{"esc with trailing key", Window{0x1b, 'w'}, 0, false},
		{"w", Window{'w'}, InputUp, true},
		{"upper A", Window{'A'}, InputLeft, true},
		{"upper D", Window{'D'}, InputRight, true},
		{"enter", Window{'\r'}, InputExecute, true},
		{"backspace", Window{'\b'}, InputBack, true},
		{"delete", Window{0x7f}, InputBack, true},
		{"first byte wins", Window{'s', 'w', 'w'}, InputDown, true},
		{"other key", Window{'q'}, Input('q'), true},
	}
	for _, tc := range cases {
		got, ok := Decode(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("%s: Decode(% x) = %#x,%v want %#x,%v", tc.name, tc.in[:], got, ok, tc.want, tc.ok)
		}
	}
}

func TestUnknownKeyIgnored(t *testing.T) {
	c, term := newMenuCUI(t)
	id := open(t, c, "a", 0)
	m := NewMenu("M", noop, NewAction("x", nil))
	_ = c.RegisterMenu(id, m)
	n := term.count()
	feed(t, c, Input('q'))
	assertAt(t, c, m, 1)
	if term.count() != n {
		t.Errorf("unknown key redrew: %q", term.since(n))
	}
}
