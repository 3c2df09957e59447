package reflection

import "testing"

func TestEvaluateSignal(t *testing.T) {
	cases := []struct {
		name   string
		action string
		ret    float64
		want   bool
	}{
		{"bullish beats threshold", "bullish", 0.012, true},
		{"bullish at threshold is not enough", "bullish", 0.005, false},
		{"bullish on a down day", "bullish", -0.02, false},
		{"buy counts as bullish", "buy", 0.02, true},
		{"bearish on a down day", "bearish", -0.012, true},
		{"bearish at threshold is not enough", "bearish", -0.005, false},
		{"sell counts as bearish", "sell", -0.03, true},
		{"neutral inside the band", "neutral", 0.004, true},
		{"neutral at the band edge", "neutral", -0.005, true},
		{"neutral outside the band", "neutral", 0.0051, false},
		{"hold counts as neutral", "hold", 0.0, true},
		{"unknown action never correct", "yolo", 0.5, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluateSignal(tc.action, tc.ret); got != tc.want {
				t.Fatalf("EvaluateSignal(%q, %v) = %v, want %v", tc.action, tc.ret, got, tc.want)
			}
		})
	}
}
