package utils

import "testing"

func TestRoundToTwo(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{33.333333, 33.33},
		{66.666666, 66.67},
		{-2.678, -2.68},
		{100, 100},
	}

	for _, tt := range tests {
		if got := RoundToTwo(tt.in); got != tt.want {
			t.Errorf("RoundToTwo(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPaginationOffset(t *testing.T) {
	p := PaginationQuery{Page: 3, Limit: 20}
	if got := p.Offset(); got != 40 {
		t.Errorf("Offset() = %d, want 40", got)
	}
}
