package config

import "testing"

func TestByteSizeString(t *testing.T) {
	cases := []struct {
		in   ByteSize
		want string
	}{
		{512, "512B"},
		{2048, "2KB"},
		{5 * 1024 * 1024, "5MB"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Errorf("ByteSize(%d).String() = %q, want %q", int64(c.in), got, c.want)
		}
	}
}

func TestParseByteSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"512", 512},
		{"5MB", 5 * 1024 * 1024},
		{"10KB", 10 * 1024},
		{"1GB", 1024 * 1024 * 1024},
	}
	for _, c := range cases {
		got, err := parseByteSize(c.in)
		if err != nil {
			t.Fatalf("parseByteSize(%q) error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("parseByteSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseByteSizeRejectsUnknownUnit(t *testing.T) {
	if _, err := parseByteSize("5XB"); err == nil {
		t.Error("expected an error for an unknown size unit")
	}
}

func TestJitterConfigGetEffectiveJitter(t *testing.T) {
	enabled := true
	parent := &JitterConfig{Enabled: &enabled, Max: "10s"}
	child := &JitterConfig{Max: "30s"}

	eff := child.GetEffectiveJitter(parent)
	if !eff.IsEnabled() {
		t.Error("expected jitter to inherit enabled=true from parent")
	}
	if eff.Max != "30s" {
		t.Errorf("Max = %q, want %q (child override)", eff.Max, "30s")
	}
}

func TestParseMaxJitterPercentage(t *testing.T) {
	j := &JitterConfig{Max: "10%"}
	d, err := j.ParseMaxJitter(60 * 1e9) // 1 minute in nanoseconds
	if err != nil {
		t.Fatalf("ParseMaxJitter error: %v", err)
	}
	if d != 6*1e9 {
		t.Errorf("ParseMaxJitter(10%%, 1m) = %v, want 6s", d)
	}
}

func TestParseCronInterval(t *testing.T) {
	cases := []struct {
		schedule string
		want     int64 // nanoseconds
	}{
		{"*/5 * * * *", 5 * 60 * 1e9},
		{"0 * * * *", 60 * 60 * 1e9},
	}
	for _, c := range cases {
		d, err := ParseCronInterval(c.schedule)
		if err != nil {
			t.Fatalf("ParseCronInterval(%q) error: %v", c.schedule, err)
		}
		if int64(d) != c.want {
			t.Errorf("ParseCronInterval(%q) = %v, want %v", c.schedule, d, c.want)
		}
	}
}

func TestProbeGetExecutorDefault(t *testing.T) {
	p := &Probe{}
	if got := p.GetExecutor(); got != "http" {
		t.Errorf("GetExecutor() = %q, want %q", got, "http")
	}
}
