package utils

import "fmt"

func ToPointer[T any](value T) *T {
	return &value
}

// FormatPercentage renders a signed percentage with one decimal, e.g. +44.4%.
func FormatPercentage(value float64) string {
	return fmt.Sprintf("%+.1f%%", value)
}
