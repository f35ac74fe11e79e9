package utils

func Ptr[T any](v T) *T {
	return &v
}

// OptionalString returns nil for a blank string, so it is sent as JSON null.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
