package retry

// Once runs f and, when it fails with an error shouldRetry accepts, runs it
// exactly one more time. The second outcome is final either way.
func Once(f func() error, shouldRetry func(error) bool) error {
	err := f()
	if err == nil || !shouldRetry(err) {
		return err
	}
	return f()
}
