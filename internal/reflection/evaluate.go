package reflection

// CorrectnessThreshold is the realized-return band separating a correct call
// from an incorrect one: bullish needs more than +0.5%, bearish less than
// -0.5%, neutral must stay within the band. Fixed, not learned.
const CorrectnessThreshold = 0.005

// EvaluateSignal reports whether a signal's action was borne out by the
// ticker's realized return. Unknown actions are never correct.
func EvaluateSignal(action string, realizedReturn float64) bool {
	switch action {
	case "bullish", "buy":
		return realizedReturn > CorrectnessThreshold
	case "bearish", "sell":
		return realizedReturn < -CorrectnessThreshold
	case "neutral", "hold":
		return realizedReturn >= -CorrectnessThreshold && realizedReturn <= CorrectnessThreshold
	default:
		return false
	}
}
