package xr

import (
	"errors"
	"fmt"
)

// Result is the status code returned by runtime calls. Negative values are failures.
type Result int32

const (
	Success           Result = 0
	SuccessNotVisible Result = 1000

	ErrorMemoryAllocationFailure       Result = -1000
	ErrorInvalidSession                Result = -1002
	ErrorTimeout                       Result = -1003
	ErrorNotInitialized                Result = -1004
	ErrorInvalidParameter              Result = -1005
	ErrorServiceError                  Result = -1006
	ErrorNoHmd                         Result = -1007
	ErrorUnsupported                   Result = -1009
	ErrorDeviceUnavailable             Result = -1010
	ErrorInvalidHeadsetOrientation     Result = -1011
	ErrorClientSkippedDestroy          Result = -1012
	ErrorClientSkippedShutdown         Result = -1013
	ErrorDisplayLost                   Result = -6000
	ErrorTextureSwapChainFull          Result = -6001
	ErrorTextureSwapChainInvalid       Result = -6002
	ErrorGraphicsDeviceReset           Result = -6003
	ErrorDisplayRemoved                Result = -6004
	ErrorContentProtectionNotAvailable Result = -6005
	ErrorApplicationInvisible          Result = -6006
	ErrorDisallowed                    Result = -6007
	ErrorDisplayPluggedIncorrectly     Result = -6008
)

var resultNames = map[Result]string{
	Success:                            "Success",
	SuccessNotVisible:                  "SuccessNotVisible",
	ErrorMemoryAllocationFailure:       "MemoryAllocationFailure",
	ErrorInvalidSession:                "InvalidSession",
	ErrorTimeout:                       "Timeout",
	ErrorNotInitialized:                "NotInitialized",
	ErrorInvalidParameter:              "InvalidParameter",
	ErrorServiceError:                  "ServiceError",
	ErrorNoHmd:                         "NoHmd",
	ErrorUnsupported:                   "Unsupported",
	ErrorDeviceUnavailable:             "DeviceUnavailable",
	ErrorInvalidHeadsetOrientation:     "InvalidHeadsetOrientation",
	ErrorClientSkippedDestroy:          "ClientSkippedDestroy",
	ErrorClientSkippedShutdown:         "ClientSkippedShutdown",
	ErrorDisplayLost:                   "DisplayLost",
	ErrorTextureSwapChainFull:          "TextureSwapChainFull",
	ErrorTextureSwapChainInvalid:       "TextureSwapChainInvalid",
	ErrorGraphicsDeviceReset:           "GraphicsDeviceReset",
	ErrorDisplayRemoved:                "DisplayRemoved",
	ErrorContentProtectionNotAvailable: "ContentProtectionNotAvailable",
	ErrorApplicationInvisible:          "ApplicationInvisible",
	ErrorDisallowed:                    "Disallowed",
	ErrorDisplayPluggedIncorrectly:     "DisplayPluggedIncorrectly",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Result(%d)", int32(r))
}

func (r Result) Succeeded() bool {
	return r >= 0
}

func (r Result) Failed() bool {
	return r < 0
}

// IsSessionLost reports whether the code means the session must be re-created.
func (r Result) IsSessionLost() bool {
	switch r {
	case ErrorDisplayLost, ErrorDisplayRemoved, ErrorGraphicsDeviceReset, ErrorInvalidSession:
		return true
	}
	return false
}

// ResultError names the runtime call that failed and the status it returned.
type ResultError struct {
	Call string
	Code Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s failed: %s (%d)", e.Call, e.Code, int32(e.Code))
}

// NewError returns nil for success codes and a *ResultError otherwise.
func NewError(call string, code Result) error {
	if code.Succeeded() {
		return nil
	}
	return &ResultError{Call: call, Code: code}
}

// ResultOf extracts the runtime status from err, Success when err is nil and
// ErrorServiceError when err did not come from the runtime.
func ResultOf(err error) Result {
	if err == nil {
		return Success
	}
	var re *ResultError
	if errors.As(err, &re) {
		return re.Code
	}
	return ErrorServiceError
}
