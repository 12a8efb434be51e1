package apple

import (
	"strings"

	"github.com/router-for-me/AppleWebAuth/internal/constant"
)

// Field is one name/value pair of a serialized form payload.
type Field struct {
	Name  string
	Value string
}

// FormData holds the reserved fields found in a serialized form payload.
type FormData struct {
	Code     string
	State    string
	Error    string
	HasCode  bool
	HasState bool
	HasError bool
}

// Decodable reports whether the payload carried any reserved field.
func (d FormData) Decodable() bool {
	return d.HasCode || d.HasState || d.HasError
}

// ParseFormData splits a serialized payload and extracts the reserved fields.
// The first fragment per key wins. A fragment without a key/value separator is a
// key with an empty value.
func ParseFormData(formData string) FormData {
	var data FormData
	for _, fragment := range strings.Split(formData, constant.FormDataSeparator) {
		key, value, _ := strings.Cut(fragment, constant.KeyValueSeparator)
		switch key {
		case constant.ErrorKey:
			if !data.HasError {
				data.Error, data.HasError = value, true
			}
		case constant.CodeKey:
			if !data.HasCode {
				data.Code, data.HasCode = value, true
			}
		case constant.StateKey:
			if !data.HasState {
				data.State, data.HasState = value, true
			}
		}
	}
	return data
}

// Classify maps parsed form data to a Result against the expected state.
func Classify(data FormData, expectedState string) Result {
	if data.HasError {
		if data.Error == constant.CancelledValue {
			return Cancel{}
		}
		return Failure{Err: newProviderError(data.Error)}
	}
	if !data.HasCode || !data.HasState {
		return Failure{Err: ErrMalformedResponse}
	}
	if data.State != expectedState {
		return Failure{Err: ErrStateMismatch}
	}
	return Success{Code: data.Code}
}

// ClassifyFormData parses and classifies a serialized payload.
func ClassifyFormData(formData, expectedState string) Result {
	return Classify(ParseFormData(formData), expectedState)
}

// EncodePayload serializes fields the same way the injected script does:
// name=value| for every field, in order.
func EncodePayload(fields []Field) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(f.Name)
		b.WriteString(constant.KeyValueSeparator)
		b.WriteString(f.Value)
		b.WriteString(constant.FormDataSeparator)
	}
	return b.String()
}
