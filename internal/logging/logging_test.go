package logging

import (
	"testing"

	"github.com/labstack/gommon/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Lvl
	}{
		{"", log.INFO},
		{"debug", log.DEBUG},
		{" WARN ", log.WARN},
		{"warning", log.WARN},
		{"error", log.ERROR},
		{"off", log.OFF},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestOrDefault(t *testing.T) {
	l := Discard()
	if OrDefault(l, "x") != l {
		t.Error("OrDefault replaced a non-nil logger")
	}
	if got := OrDefault(nil, "x"); got == nil || got.Prefix() != "x" {
		t.Errorf("OrDefault(nil) = %v", got)
	}
}
