package mdconf

import "testing"

func TestMetadataPolicy(t *testing.T) {
	cfg := newTestConfig(t, "AUTO +ddf -0.90 homehost -all\n", Options{})

	tests := []struct {
		version    string
		isHomehost bool
		want       bool
	}{
		{"ddf", false, true},
		{"ddf", true, true},
		{"0.90", true, false},
		{"0.90", false, false},
		{"1.x", true, true},
		{"1.x", false, false},
		{"imsm", false, false},
		{"imsm", true, true},
	}
	for _, tt := range tests {
		got := cfg.TestMetadata(tt.version, tt.isHomehost)
		if got != tt.want {
			t.Errorf("permits(%q, %v) = %v, want %v",
				tt.version, tt.isHomehost, got, tt.want)
		}
	}
}

func TestMetadataPolicyDefaults(t *testing.T) {
	// No AUTO line: everything is permitted.
	cfg := newTestConfig(t, "MAILADDR a@x\n", Options{})
	if !cfg.TestMetadata("0.90", false) {
		t.Error("no AUTO line should permit unconditionally")
	}

	// A rule list that exhausts without matching still permits:
	// unspecified formats default to allowed even with rules present.
	cfg = newTestConfig(t, "AUTO -ddf -imsm\n", Options{})
	if cfg.TestMetadata("ddf", false) {
		t.Error("-ddf must deny ddf")
	}
	if !cfg.TestMetadata("1.x", false) {
		t.Error("exhausted rule list must default to permit")
	}
}

func TestMetadataPolicyTagCompat(t *testing.T) {
	tests := []struct {
		rules   string
		version string
		want    bool
	}{
		// A single-character tag matches the first character of an
		// N.M version.
		{"-0", "0.90", false},
		{"-1", "1.x", false},
		{"-0", "1.x", true},
		// A two-character comparison covers N.x shaped versions.
		{"-1.0", "1.x", false},
		{"-1.2", "1.x", false},
		{"-2.0", "1.x", true},
		// Exact tags are case-insensitive.
		{"-DDF", "ddf", false},
		{"+Ddf no", "ddf", true},
		// yes/no words decide immediately.
		{"no +ddf", "ddf", false},
		{"yes -ddf", "ddf", true},
	}
	for _, tt := range tests {
		cfg := newTestConfig(t, "AUTO "+tt.rules+"\n", Options{})
		got := cfg.TestMetadata(tt.version, false)
		if got != tt.want {
			t.Errorf("rules %q: permits(%q) = %v, want %v",
				tt.rules, tt.version, got, tt.want)
		}
	}
}
