package usecase_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/ltp_scanner/internal/domain"
	"github.com/vitos/ltp_scanner/internal/usecase"
)

func TestCalculateLTPScore(t *testing.T) {
	tests := []struct {
		name                   string
		level, trend, patience float64
		wantL, wantT, wantP    float64
		wantOverall            int
	}{
		{"Strong setup", 80, 80, 100, 80, 80, 100, 86},
		{"Out of range inputs clamp", 150, -10, 50, 100, 0, 50, 50},
		{"All zero", 0, 0, 0, 0, 0, 0, 0},
		{"All max", 100, 100, 100, 100, 100, 100, 100},
		{"NaN treated as zero", math.NaN(), 100, 100, 0, 100, 100, 65},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecase.CalculateLTPScore(tt.level, tt.trend, tt.patience)
			assert.Equal(t, tt.wantL, got.Level)
			assert.Equal(t, tt.wantT, got.Trend)
			assert.Equal(t, tt.wantP, got.Patience)
			assert.Equal(t, tt.wantOverall, got.Overall)
		})
	}
}

func TestCalculateLTPScore_OverallStaysInRange(t *testing.T) {
	for l := -20.0; l <= 120; l += 10 {
		for tr := -20.0; tr <= 120; tr += 10 {
			for p := -20.0; p <= 120; p += 10 {
				got := usecase.CalculateLTPScore(l, tr, p)
				if got.Overall < 0 || got.Overall > 100 {
					t.Fatalf("overall %d out of range for (%v, %v, %v)", got.Overall, l, tr, p)
				}
			}
		}
	}
}

func TestGetLTPGrade(t *testing.T) {
	tests := []struct {
		overall int
		want    domain.Grade
	}{
		{100, domain.GradeA},
		{90, domain.GradeA},
		{89, domain.GradeB},
		{86, domain.GradeB},
		{80, domain.GradeB},
		{79, domain.GradeC},
		{70, domain.GradeC},
		{69, domain.GradeD},
		{60, domain.GradeD},
		{59, domain.GradeF},
		{0, domain.GradeF},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, usecase.GetLTPGrade(tt.overall), "overall=%d", tt.overall)
	}
}
