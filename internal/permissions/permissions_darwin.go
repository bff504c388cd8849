//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework AVFoundation -framework CoreGraphics -framework Foundation
#import <AVFoundation/AVFoundation.h>
#import <CoreGraphics/CoreGraphics.h>

int checkMicrophonePermission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

void requestMicrophonePermission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}

int checkScreenCapturePermission() {
    return CGPreflightScreenCaptureAccess() ? 1 : 0;
}
*/
import "C"

import "fmt"

const (
	PermissionNotDetermined = 0
	PermissionRestricted    = 1
	PermissionDenied        = 2
	PermissionAuthorized    = 3
)

// CheckMicrophone returns the current microphone permission status
func CheckMicrophone() (int, error) {
	status := int(C.checkMicrophonePermission())
	return status, nil
}

// RequestMicrophone triggers the system microphone permission dialog
func RequestMicrophone() error {
	C.requestMicrophonePermission()
	return nil
}

// ScreenCaptureAuthorized reports whether screen recording is already
// granted. System audio capture requests it on start; this only lets
// the caller warn early that the OTHER stream will be unavailable.
func ScreenCaptureAuthorized() bool {
	return C.checkScreenCapturePermission() == 1
}

// EnsureMicrophone fails unless microphone access is authorized. A
// first run triggers the system dialog and asks the user to relaunch.
func EnsureMicrophone() error {
	status, _ := CheckMicrophone()
	switch status {
	case PermissionAuthorized:
		return nil
	case PermissionNotDetermined:
		RequestMicrophone()
		return fmt.Errorf("microphone permission requested, grant it and relaunch")
	default:
		return fmt.Errorf("microphone permission denied, enable it in System Settings → Privacy & Security → Microphone")
	}
}
