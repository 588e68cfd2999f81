package geo

import "math"

// PRECISION is the default tolerance for float comparisons. Cumulative drift from
// repeated drags stays well below it.
const PRECISION = 1e-7

// INF is the magnitude past which a value (usually a slope) is treated as infinite.
const INF = 2e14

func EuclideanDistance(x1, y1, x2, y2 float64) float64 {
	if x1 == x2 {
		return math.Abs(y1 - y2)
	} else if y1 == y2 {
		return math.Abs(x1 - x2)
	} else {
		return math.Sqrt((x1-x2)*(x1-x2) + (y1-y2)*(y1-y2))
	}
}

func Distance(a, b Point) float64 {
	return EuclideanDistance(a.X, a.Y, b.X, b.Y)
}

func Square(n float64) float64 {
	return n * n
}

func IsZero(n float64) bool {
	return math.Abs(n) < PRECISION
}

func IsEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func IsInf(n float64) bool {
	return math.IsInf(n, 0) || math.Abs(n) > INF
}

func Sign(i float64) int {
	if i < 0 {
		return -1
	}
	if i > 0 {
		return 1
	}
	return 0
}

func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// NormalizeAngle maps an angle in radians into (-π, π].
func NormalizeAngle(θ float64) float64 {
	θ = math.Mod(θ, 2*math.Pi)
	if θ <= -math.Pi {
		θ += 2 * math.Pi
	} else if θ > math.Pi {
		θ -= 2 * math.Pi
	}
	return θ
}

// PositiveAngle maps an angle in radians into [0, 2π).
func PositiveAngle(θ float64) float64 {
	θ = math.Mod(θ, 2*math.Pi)
	if θ < 0 {
		θ += 2 * math.Pi
	}
	return θ
}
