package engine

const jobExpPerLevel = 100

// RequiredForLevel returns the experience needed to advance past the given
// level. Thresholds step up with level bands.
func RequiredForLevel(level int) int {
	switch {
	case level <= 10:
		return 100
	case level <= 20:
		return 250
	case level <= 40:
		return 500
	case level <= 70:
		return 1000
	default:
		return 2000
	}
}

// ApplyExp folds an experience delta into (level, exp) and returns the new
// pair. Level only moves forward; remaining exp is always below the next
// threshold.
func ApplyExp(level, exp, delta int) (int, int) {
	if level < 1 {
		level = 1
	}
	if delta < 0 {
		delta = 0
	}
	exp += delta
	for exp >= RequiredForLevel(level) {
		exp -= RequiredForLevel(level)
		level++
	}
	return level, exp
}

// ApplyJobExp is the job-level variant: a flat threshold per level.
func ApplyJobExp(level, exp, delta int) (int, int) {
	if level < 1 {
		level = 1
	}
	if delta < 0 {
		delta = 0
	}
	exp += delta
	for exp >= jobExpPerLevel {
		exp -= jobExpPerLevel
		level++
	}
	return level, exp
}
