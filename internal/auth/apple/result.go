package apple

import "fmt"

// Result is the outcome of one authentication attempt. It is one of
// Success, Cancel or Failure.
type Result interface {
	isResult()
	fmt.Stringer
}

// Success carries the authorization code of a validated response.
type Success struct {
	Code string
}

// Cancel reports that the user cancelled the authorization on Apple's page.
type Cancel struct{}

// Failure carries the reason an attempt could not produce a code.
type Failure struct {
	Err error
}

func (Success) isResult() {}
func (Cancel) isResult()  {}
func (Failure) isResult() {}

func (s Success) String() string { return "success" }
func (Cancel) String() string    { return "cancel" }

func (f Failure) String() string {
	return "failure: " + f.Reason()
}

// Reason returns the failure message, or an empty string when Err is nil.
func (f Failure) Reason() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// Callback receives the single result of an attempt.
type Callback func(Result)
