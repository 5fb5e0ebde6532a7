package domain

import "testing"

func TestValidRating(t *testing.T) {
	tests := []struct {
		name   string
		rating float64
		want   bool
	}{
		{"whole number", 7.0, true},
		{"half point", 7.5, true},
		{"zero", 0.0, true},
		{"maximum", 10.0, true},
		{"quarter point", 7.25, false},
		{"negative", -1.0, false},
		{"above maximum", 10.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidRating(tt.rating); got != tt.want {
				t.Errorf("ValidRating(%v) = %v, want %v", tt.rating, got, tt.want)
			}
		})
	}
}
