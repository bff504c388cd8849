//go:build !darwin

package permissions

// EnsureMicrophone is a no-op on non-macOS platforms.
func EnsureMicrophone() error {
	return nil
}

// ScreenCaptureAuthorized is always false off macOS; system audio
// capture is unsupported there anyway.
func ScreenCaptureAuthorized() bool {
	return false
}
