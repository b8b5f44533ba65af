package scanner

import "testing"

func TestScoreFormula(t *testing.T) {
	cases := []struct {
		c, w, i int
		want    int
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 30},
		{2, 0, 0, 60},
		{3, 0, 0, 90},
		{4, 0, 0, 100}, // saturates
		{0, 1, 0, 3},
		{0, 10, 0, 30},
		{0, 25, 0, 30}, // warning contribution capped at 10
		{0, 0, 5, 5},
		{0, 0, 50, 5}, // info contribution capped at 5
		{1, 10, 5, 65},
	}
	for _, tc := range cases {
		if got := Score(tc.c, tc.w, tc.i); got != tc.want {
			t.Fatalf("Score(%d,%d,%d)=%d want %d", tc.c, tc.w, tc.i, got, tc.want)
		}
	}
}

func TestScoreMonotoneAndBounded(t *testing.T) {
	for c := 0; c <= 5; c++ {
		for w := 0; w <= 15; w += 3 {
			for i := 0; i <= 10; i += 2 {
				s := Score(c, w, i)
				if s < 0 || s > 100 {
					t.Fatalf("Score(%d,%d,%d)=%d out of range", c, w, i, s)
				}
				if Score(c+1, w, i) < s || Score(c, w+1, i) < s || Score(c, w, i+1) < s {
					t.Fatalf("Score not non-decreasing at (%d,%d,%d)", c, w, i)
				}
			}
		}
	}
}

func TestVerdictBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  Verdict
	}{
		{0, VerdictSafe},
		{20, VerdictSafe},
		{21, VerdictCaution},
		{50, VerdictCaution},
		{51, VerdictDanger},
		{80, VerdictDanger},
		{81, VerdictBlocked},
		{100, VerdictBlocked},
	}
	for _, tc := range cases {
		if got := VerdictFor(tc.score); got != tc.want {
			t.Fatalf("VerdictFor(%d)=%s want %s", tc.score, got, tc.want)
		}
	}
}
