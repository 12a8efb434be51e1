// Package misc provides small OAuth helpers shared by the login commands: state
// generation and conversion of pasted callbacks into the form payload format.
package misc

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/router-for-me/AppleWebAuth/internal/constant"
)

// GenerateRandomState generates a cryptographically secure random state parameter
// for OAuth2 flows to prevent CSRF attacks.
//
// Returns:
//   - string: A hexadecimal encoded random state string
//   - error: An error if the random generation fails, nil otherwise
func GenerateRandomState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// payloadKeys lists the reserved callback keys in the order they are written.
var payloadKeys = []string{constant.StateKey, constant.CodeKey, constant.ErrorKey}

// ParseCallbackInput turns a pasted callback (full URL, query string or
// form-encoded body) into a serialized form payload. It returns an empty string
// when the input is empty.
func ParseCallbackInput(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", nil
	}

	var values url.Values
	switch {
	case strings.Contains(trimmed, "://"):
		parsedURL, err := url.Parse(trimmed)
		if err != nil {
			return "", err
		}
		values = parsedURL.Query()
		if parsedURL.Fragment != "" {
			if fragQuery, errFrag := url.ParseQuery(parsedURL.Fragment); errFrag == nil {
				for key, vals := range fragQuery {
					if values.Get(key) == "" {
						values[key] = vals
					}
				}
			}
		}
	case strings.Contains(trimmed, "="):
		parsed, err := url.ParseQuery(strings.TrimPrefix(trimmed, "?"))
		if err != nil {
			return "", err
		}
		values = parsed
	default:
		return "", fmt.Errorf("invalid callback input")
	}

	if values.Get(constant.CodeKey) == "" && values.Get(constant.ErrorKey) == "" {
		return "", fmt.Errorf("callback input missing code")
	}
	return EncodeValues(values), nil
}

// EncodeValues serializes form values as a payload. Reserved keys come first,
// remaining keys follow in sorted order.
func EncodeValues(values url.Values) string {
	var b strings.Builder
	write := func(key string) {
		for _, v := range values[key] {
			b.WriteString(key)
			b.WriteString(constant.KeyValueSeparator)
			b.WriteString(v)
			b.WriteString(constant.FormDataSeparator)
		}
	}
	reserved := make(map[string]struct{}, len(payloadKeys))
	for _, key := range payloadKeys {
		reserved[key] = struct{}{}
		write(key)
	}
	rest := make([]string, 0, len(values))
	for key := range values {
		if _, ok := reserved[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		write(key)
	}
	return b.String()
}
