package signals

// detectorCall is the outcome of one isolated detector invocation:
// either success with a value, or failure with the reason plus the
// canonical fallback substituted in its place. Modeling the union
// explicitly keeps the fallback path auditable instead of hiding it in a
// blanket recover.
type detectorCall[T any] struct {
	detector string
	value    T
	err      error
}

// fellBack reports whether the call's value is a fallback substitution.
func (c detectorCall[T]) fellBack() bool {
	return c.err != nil
}

// runIsolated executes one detector invocation. On failure the canonical
// default takes the value slot and the error is retained for metadata.
func runIsolated[T any](detector string, fallback T, fn func() (T, error)) detectorCall[T] {
	value, err := fn()
	if err != nil {
		return detectorCall[T]{detector: detector, value: fallback, err: err}
	}
	return detectorCall[T]{detector: detector, value: value}
}
