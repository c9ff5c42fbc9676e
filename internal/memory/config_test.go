package memory

import (
	"testing"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// limitRecorder stands in for debug.SetMemoryLimit.
type limitRecorder struct {
	current int64
	sets    []int64
}

func (r *limitRecorder) set(limit int64) int64 {
	prev := r.current
	if limit >= 0 {
		r.sets = append(r.sets, limit)
		r.current = limit
	}
	return prev
}

func TestComputeLimit(t *testing.T) {
	tests := []struct {
		name      string
		limit     string
		ratio     string
		wantLimit int64
		wantRatio float64
		wantErr   bool
	}{
		{"Default ratio", "1073741824", "", 1073741824, DefaultMemoryRatio, false},
		{"Custom ratio", "1073741824", "0.5", 1073741824, 0.5, false},
		{"Full ratio", "1000", "1.0", 1000, 1.0, false},
		{"Padded values", " 2048 ", " 0.75 ", 2048, 0.75, false},
		{"Zero ratio falls back", "1000", "0", 1000, DefaultMemoryRatio, false},
		{"Ratio above one falls back", "1000", "1.5", 1000, DefaultMemoryRatio, false},
		{"Unparseable ratio falls back", "1000", "half", 1000, DefaultMemoryRatio, false},
		{"Unparseable limit", "1Gi", "", 0, 0, true},
		{"Zero limit", "0", "", 0, 0, true},
		{"Negative limit", "-5", "", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, ratio, err := computeLimit(tt.limit, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if limit != tt.wantLimit {
				t.Errorf("Expected limit %d, got %d", tt.wantLimit, limit)
			}
			if ratio != tt.wantRatio {
				t.Errorf("Expected ratio %f, got %f", tt.wantRatio, ratio)
			}
		})
	}
}

func TestConfigureNoEnvironment(t *testing.T) {
	rec := &limitRecorder{}
	result := configure(envLookup(nil), rec.set)

	if result.Configured {
		t.Error("Expected Configured to be false when no env vars set")
	}
	if result.Source != "none" {
		t.Errorf("Expected Source 'none', got %q", result.Source)
	}
	if len(rec.sets) != 0 {
		t.Errorf("Expected no limit to be set, got %v", rec.sets)
	}
}

func TestConfigureFromMemoryLimit(t *testing.T) {
	rec := &limitRecorder{}
	result := configure(envLookup(map[string]string{
		"MEMORY_LIMIT": "1073741824",
		"MEMORY_RATIO": "0.5",
	}), rec.set)

	if !result.Configured || result.Source != "MEMORY_LIMIT" {
		t.Fatalf("Expected MEMORY_LIMIT configuration, got %+v", result)
	}
	if result.GoMemLimit != 536870912 {
		t.Errorf("Expected GoMemLimit 536870912, got %d", result.GoMemLimit)
	}
	if len(rec.sets) != 1 || rec.sets[0] != 536870912 {
		t.Errorf("Expected runtime limit 536870912, got %v", rec.sets)
	}
}

func TestConfigureGOMEMLIMITTakesPrecedence(t *testing.T) {
	rec := &limitRecorder{current: 500 << 20}
	result := configure(envLookup(map[string]string{
		"GOMEMLIMIT":   "500MiB",
		"MEMORY_LIMIT": "1073741824",
	}), rec.set)

	if result.Source != "GOMEMLIMIT" {
		t.Errorf("Expected Source 'GOMEMLIMIT', got %q", result.Source)
	}
	if result.GoMemLimit != 500<<20 {
		t.Errorf("Expected GoMemLimit %d, got %d", 500<<20, result.GoMemLimit)
	}
	if len(rec.sets) != 0 {
		t.Errorf("Expected the existing limit to be left alone, got %v", rec.sets)
	}
}

func TestConfigureInvalidMemoryLimit(t *testing.T) {
	rec := &limitRecorder{}
	result := configure(envLookup(map[string]string{"MEMORY_LIMIT": "lots"}), rec.set)

	if result.Configured {
		t.Error("Expected Configured to be false for an invalid limit")
	}
	if len(rec.sets) != 0 {
		t.Errorf("Expected no limit to be set, got %v", rec.sets)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1073741824, "1.0 GiB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.input); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
