package symbol

import "testing"

func TestValidConfig(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"eth", false},       // length 3
		{"ethu", true},       // length 4
		{"BTCUSDT", true},
		{"btcusdt", true},    // case does not matter for validity
		{"ABCDEFGHIJKL", true},   // length 12
		{"ABCDEFGHIJKLM", false}, // length 13
		{"XYZ!", false},
		{"BTC USDT", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidConfig(tt.in); got != tt.want {
			t.Errorf("ValidConfig(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidStream(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"BTC", false},                   // length 3
		{"BTCU", true},                   // length 4
		{"ABCDEFGHIJKLMNOPQRST", true},   // length 20
		{"ABCDEFGHIJKLMNOPQRSTU", false}, // length 21
		{"BTC-USDT", false},
	}

	for _, tt := range tests {
		if got := ValidStream(tt.in); got != tt.want {
			t.Errorf("ValidStream(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSet_Equal(t *testing.T) {
	a := NewSet("btcusdt", "ETHUSDT")
	b := NewSet("ETHUSDT", "BTCUSDT", "ethusdt") // order and duplicates ignored
	c := NewSet("BTCUSDT")

	if !a.Equal(b) {
		t.Errorf("sets %v and %v should be equal", a.Sorted(), b.Sorted())
	}
	if a.Equal(c) {
		t.Errorf("sets %v and %v should differ", a.Sorted(), c.Sorted())
	}
}

func TestSet_Key(t *testing.T) {
	a := NewSet("solusdt", "btcusdt")
	b := NewSet("BTCUSDT", "SOLUSDT")

	if a.Key() != b.Key() {
		t.Errorf("Key mismatch: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() != "BTCUSDT,SOLUSDT" {
		t.Errorf("Key = %q, want BTCUSDT,SOLUSDT", a.Key())
	}
}

func TestSet_Intersect(t *testing.T) {
	got := NewSet("BTCUSDT", "ETHUSDT", "FAKEUSDT").Intersect(NewSet("BTCUSDT", "ETHUSDT", "SOLUSDT"))
	want := NewSet("BTCUSDT", "ETHUSDT")

	if !got.Equal(want) {
		t.Errorf("Intersect = %v, want %v", got.Sorted(), want.Sorted())
	}
}
