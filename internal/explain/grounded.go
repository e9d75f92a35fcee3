package explain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// groundingTolerance absorbs rounding such as 86.67 cited as 86.7 or 87.
const groundingTolerance = 0.5

// CheckGrounded verifies that every number in text is the score or appears in
// the label or a supporting field of the request.
func CheckGrounded(text string, req Request) error {
	allowed := []float64{req.Score}
	allowed = append(allowed, extractNumbers(req.Label)...)
	for _, v := range req.Fields {
		allowed = append(allowed, extractNumbers(v)...)
	}

	for _, n := range extractNumbers(text) {
		if !nearAny(n, allowed) {
			return fmt.Errorf("%w: %s", ErrUngrounded, strconv.FormatFloat(n, 'f', -1, 64))
		}
	}
	return nil
}

// extractNumbers returns magnitudes; a range like "300-1000" would otherwise
// yield -1000.
func extractNumbers(s string) []float64 {
	matches := numberPattern.FindAllString(s, -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		if f, err := strconv.ParseFloat(m, 64); err == nil {
			out = append(out, math.Abs(f))
		}
	}
	return out
}

func nearAny(n float64, allowed []float64) bool {
	for _, a := range allowed {
		if math.Abs(n-math.Abs(a)) <= groundingTolerance {
			return true
		}
	}
	return false
}
