package store

import "testing"

func TestVectorToString(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
		want  string
	}{
		{"typical", []float32{0.5, -0.25, 1}, "[0.5,-0.25,1]"},
		{"single", []float32{0.1}, "[0.1]"},
		{"empty", []float32{}, "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vectorToString(tt.input); got != tt.want {
				t.Errorf("vectorToString(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseVector(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		in := []float32{0.125, -3.5, 0, 42}
		got, err := parseVector(vectorToString(in))
		if err != nil {
			t.Fatalf("parseVector: %v", err)
		}
		if len(got) != len(in) {
			t.Fatalf("got %d components, want %d", len(got), len(in))
		}
		for i := range in {
			if got[i] != in[i] {
				t.Errorf("component %d: got %v, want %v", i, got[i], in[i])
			}
		}
	})

	t.Run("whitespace tolerated", func(t *testing.T) {
		got, err := parseVector(" [0.1, 0.2, 0.3] ")
		if err != nil {
			t.Fatalf("parseVector: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d components, want 3", len(got))
		}
	})

	t.Run("empty vector", func(t *testing.T) {
		got, err := parseVector("[]")
		if err != nil {
			t.Fatalf("parseVector: %v", err)
		}
		if got != nil {
			t.Errorf("got %v, want nil", got)
		}
	})

	t.Run("malformed component", func(t *testing.T) {
		if _, err := parseVector("[0.1,oops]"); err == nil {
			t.Error("expected error for non-numeric component")
		}
	})
}
