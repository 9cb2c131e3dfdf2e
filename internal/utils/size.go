package utils

import (
	"strconv"
	"strings"
)

const fileSizeStep = 1024

var fileSizeUnits = []string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize converts a byte length into a human-readable lower-case unit string.
// Values below ten keep one decimal place.
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	if bytes < fileSizeStep {
		return strconv.FormatInt(bytes, 10) + fileSizeUnits[0]
	}
	value := float64(bytes)
	unitIndex := 0
	for value >= fileSizeStep && unitIndex < len(fileSizeUnits)-1 {
		value /= fileSizeStep
		unitIndex++
	}
	if value >= 10 {
		return strconv.FormatFloat(value, 'f', 0, 64) + fileSizeUnits[unitIndex]
	}
	return strings.TrimSuffix(strconv.FormatFloat(value, 'f', 1, 64), ".0") + fileSizeUnits[unitIndex]
}
