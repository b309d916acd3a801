package types

import "testing"

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "valid lowercase", input: "0x1e018ac547796185f978af6aefa9b1e88d1bc0b1", want: true},
		{name: "valid mixed case", input: "0x1E018AC547796185f978aF6AeFa9b1e88D1Bc0b1", want: true},
		{name: "missing prefix", input: "1e018ac547796185f978af6aefa9b1e88d1bc0b1", want: false},
		{name: "too short", input: "0x1e018ac5", want: false},
		{name: "too long", input: "0x1e018ac547796185f978af6aefa9b1e88d1bc0b1ff", want: false},
		{name: "non hex", input: "0xzz018ac547796185f978af6aefa9b1e88d1bc0b1", want: false},
		{name: "empty", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidAddress(tt.input); got != tt.want {
				t.Errorf("IsValidAddress(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	got := NormalizeAddress(" 0x1E018AC547796185f978aF6AeFa9b1e88D1Bc0b1 ")
	want := "0x1e018ac547796185f978af6aefa9b1e88d1bc0b1"
	if got != want {
		t.Errorf("NormalizeAddress = %q, want %q", got, want)
	}
}

func TestShortAddress(t *testing.T) {
	got := ShortAddress("0x1e018ac547796185f978af6aefa9b1e88d1bc0b1")
	if got != "0x1e01...c0b1" {
		t.Errorf("ShortAddress = %q", got)
	}
	if ShortAddress("0x12") != "0x12" {
		t.Error("ShortAddress should leave short strings untouched")
	}
}
