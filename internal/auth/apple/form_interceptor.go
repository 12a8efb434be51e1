package apple

import (
	"fmt"
	"sync/atomic"

	"github.com/router-for-me/AppleWebAuth/internal/bridge"
	"github.com/router-for-me/AppleWebAuth/internal/constant"
	log "github.com/sirupsen/logrus"
)

// FormInterceptor is the host side of the form bridge. It receives the payload
// produced by the injected script, validates it against the expected state and
// hands exactly one Result to the callback.
//
// The expected state and the callback are fixed at construction. A page with
// several forms calls ProcessFormData once per form; calls that carry none of the
// reserved keys are ignored and the first decodable call completes the attempt.
type FormInterceptor struct {
	expectedState string
	callback      Callback
	attemptID     string

	delivered atomic.Bool
}

var _ bridge.Handler = (*FormInterceptor)(nil)

// NewFormInterceptor builds a form bridge for one attempt. A nil callback
// discards the result.
func NewFormInterceptor(expectedState string, callback Callback) *FormInterceptor {
	return &FormInterceptor{
		expectedState: expectedState,
		callback:      callback,
	}
}

// withAttemptID tags log lines with the owning attempt.
func (f *FormInterceptor) withAttemptID(id string) *FormInterceptor {
	f.attemptID = id
	return f
}

// ProcessFormData classifies a serialized payload and completes the attempt.
// It reports whether the call delivered the result.
//
// A payload carrying none of state, code or error is ignored and the attempt
// stays pending. A page whose forms are all like that never completes the
// attempt; the host's timeout ends it.
func (f *FormInterceptor) ProcessFormData(formData string) bool {
	data := ParseFormData(formData)
	if !data.Decodable() {
		log.WithField("attempt", f.attemptID).Debug("apple: ignoring form data without state, code or error")
		return false
	}
	return f.complete(Classify(data, f.expectedState))
}

// Invoke implements bridge.Handler.
func (f *FormInterceptor) Invoke(method, arg string) error {
	if method != constant.BridgeMethod {
		return fmt.Errorf("%w: %s.%s", bridge.ErrUnknownMethod, constant.BridgeName, method)
	}
	f.ProcessFormData(arg)
	return nil
}

// Done reports whether the attempt already delivered its result.
func (f *FormInterceptor) Done() bool {
	return f.delivered.Load()
}

func (f *FormInterceptor) complete(result Result) bool {
	entry := log.WithField("attempt", f.attemptID)
	if !f.delivered.CompareAndSwap(false, true) {
		entry.Warn("apple: result already delivered, dropping duplicate form data")
		return false
	}
	if failure, ok := result.(Failure); ok {
		entry.WithError(failure.Err).Warn("apple: authentication attempt failed")
	} else {
		entry.Debugf("apple: authentication attempt finished with %s", result)
	}
	if f.callback != nil {
		f.callback(result)
	}
	return true
}
