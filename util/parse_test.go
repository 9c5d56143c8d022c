package util

import "testing"

func TestParseSize(t *testing.T) {
	cases := []struct {
		in   string
		def  int64
		want int64
	}{
		{"25MB", 0, 25 * 1024 * 1024},
		{"512KB", 0, 512 * 1024},
		{"1GB", 0, 1024 * 1024 * 1024},
		{"100", 0, 100},
		{" 10mb ", 0, 10 * 1024 * 1024},
		{"", 42, 42},
		{"garbage", 42, 42},
	}
	for _, c := range cases {
		if got := ParseSize(c.in, c.def); got != c.want {
			t.Errorf("ParseSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("gsk_live_abcdef", 4); got != "gsk_***" {
		t.Errorf("MaskSecret = %q", got)
	}
	if got := MaskSecret("ab", 4); got != "***" {
		t.Errorf("short secret should be fully masked, got %q", got)
	}
}
