package scoring

// Rung is one step of a threshold ladder: raw values strictly below
// UpperBound map to Score.
type Rung struct {
	UpperBound float64
	Score      int
}

// LinearCapped returns a normalizer computing min(raw/scale*100, 100) for
// volume-like metrics. The scale constant defines "100% at or above this raw
// value". Missing or non-numeric input yields NeutralScore.
func LinearCapped(key string, scale float64) Normalizer {
	return func(metrics map[string]any) int {
		raw, ok := asFloat(metrics[key])
		if !ok || scale <= 0 {
			return NeutralScore
		}
		return clamp(int(raw / scale * maxScore))
	}
}

// Bucketed returns a normalizer mapping categorical raw values through a
// fixed table. Unrecognized categories map to def; missing values map to
// NeutralScore.
func Bucketed(key string, table map[string]int, def int) Normalizer {
	return func(metrics map[string]any) int {
		raw, ok := asString(metrics[key])
		if !ok {
			return NeutralScore
		}
		if score, found := table[raw]; found {
			return clamp(score)
		}
		return clamp(def)
	}
}

// Ladder returns a normalizer evaluating rungs top-down and returning the
// score of the first rung whose upper bound exceeds the raw value. Values
// matching no rung map to fallback; missing values map to NeutralScore.
func Ladder(key string, rungs []Rung, fallback int) Normalizer {
	return func(metrics map[string]any) int {
		raw, ok := asFloat(metrics[key])
		if !ok {
			return NeutralScore
		}
		for _, r := range rungs {
			if raw < r.UpperBound {
				return clamp(r.Score)
			}
		}
		return clamp(fallback)
	}
}

// Fixed returns a normalizer that ignores the metrics and always yields the
// given sub-score. Used when a source carries no input for a factor.
func Fixed(score int) Normalizer {
	return func(map[string]any) int { return clamp(score) }
}

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > maxScore:
		return maxScore
	default:
		return v
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
