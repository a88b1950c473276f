package core

import "math"

const defaultEpsilon = 1e-12

// PowerFloor is the smallest linear power reported by PowerToDB.
const PowerFloor = 1e-12

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// WrapPhase maps an angle in radians onto (-pi, pi].
func WrapPhase(theta float64) float64 {
	if theta > -math.Pi && theta <= math.Pi {
		return theta
	}

	theta = math.Mod(theta, 2*math.Pi)
	if theta > math.Pi {
		theta -= 2 * math.Pi
	} else if theta <= -math.Pi {
		theta += 2 * math.Pi
	}

	return theta
}

// PowerToDB converts linear power to dB (10*log10 convention).
// Powers below PowerFloor, including NaN, are floored so the result is
// always finite.
func PowerToDB(power float64) float64 {
	switch {
	case math.IsNaN(power) || power < PowerFloor:
		power = PowerFloor
	case math.IsInf(power, 1):
		power = math.MaxFloat64
	}

	return 10 * math.Log10(power)
}

// DBToPower converts dB to linear power (10*log10 convention).
func DBToPower(db float64) float64 {
	return math.Pow(10, db/10)
}

// AmplitudeToDB converts a linear amplitude to dB (20*log10 convention),
// flooring like PowerToDB.
func AmplitudeToDB(amplitude float64) float64 {
	return PowerToDB(amplitude * amplitude)
}
