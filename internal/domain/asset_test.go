package domain

import "testing"

func TestRawIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1719990000000_一住1F1床.png", "一住1F1床"},
		{"uploads/qrcodes/1719990000000_治未病.JPG", "治未病"},
		{"plain.jpeg", "plain"},
		{"12_34_name.png", "34_name"},
		{"noext", "noext"},
	}
	for _, tc := range tests {
		if got := RawIdentifier(tc.in); got != tc.want {
			t.Fatalf("RawIdentifier(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStripIDPrefix(t *testing.T) {
	if got := StripIDPrefix("bg_171_template", AssetRoleBackground); got != "171_template" {
		t.Fatalf("got %q", got)
	}
	if got := StripIDPrefix("qr_171_一住1F1床", AssetRoleQRCode); got != "171_一住1F1床" {
		t.Fatalf("got %q", got)
	}
	if got := StripIDPrefix("171_x", AssetRoleQRCode); got != "171_x" {
		t.Fatalf("unprefixed id changed: %q", got)
	}
}
