package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/router-for-me/AppleWebAuth/internal/auth/apple"
	"github.com/router-for-me/AppleWebAuth/internal/htmlform"
	log "github.com/sirupsen/logrus"
)

// InspectCallbackPage classifies a saved callback page offline. Each form is fed
// to a fresh form bridge in document order, exactly as the injected script would.
// The result is nil when no form carried state, code or error.
func InspectCallbackPage(r io.Reader, expectedState string) (apple.Result, error) {
	payloads, err := htmlform.Payloads(r)
	if err != nil {
		return nil, err
	}

	var result apple.Result
	form := apple.NewFormInterceptor(expectedState, func(res apple.Result) { result = res })
	for i, payload := range payloads {
		if form.ProcessFormData(payload) {
			log.Debugf("inspect: form %d completed the attempt", i)
			break
		}
	}
	return result, nil
}

// DoInspect runs InspectCallbackPage on a file and prints the outcome.
func DoInspect(path, expectedState string, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	defer func() {
		if errClose := f.Close(); errClose != nil {
			log.Warnf("inspect: close %s: %v", path, errClose)
		}
	}()

	result, err := InspectCallbackPage(f, expectedState)
	if err != nil {
		return err
	}
	if result == nil {
		_, _ = fmt.Fprintln(out, "No form with state, code or error found.")
		return nil
	}
	switch r := result.(type) {
	case apple.Success:
		_, _ = fmt.Fprintf(out, "success: code=%s\n", r.Code)
	default:
		_, _ = fmt.Fprintln(out, result.String())
	}
	return nil
}
