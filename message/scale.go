package message

import (
	"math"
	"strconv"
	"strings"
)

// FormatScaled renders raw * 10^scale exactly. A negative scale inserts the
// decimal point |scale| digits from the right, padding with zeros; a positive
// scale appends zeros.
func FormatScaled(raw int64, scale int32) string {
	return scaleDigits(strconv.FormatInt(raw, 10), scale)
}

func scaleDigits(digits string, scale int32) string {
	if scale == 0 {
		return digits
	}

	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}

	if scale > 0 {
		return sign + digits + strings.Repeat("0", int(scale))
	}

	n := int(-scale)
	if len(digits) <= n {
		digits = strings.Repeat("0", n-len(digits)+1) + digits
	}
	point := len(digits) - n
	return sign + digits[:point] + "." + digits[point:]
}

// ScaleFloat returns raw * 10^scale as a float.
func ScaleFloat(raw int64, scale int32) float64 {
	if scale == 0 {
		return float64(raw)
	}
	return float64(raw) / math.Pow10(int(-scale))
}
