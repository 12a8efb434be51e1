package browser

import "testing"

func TestPlatformCommandMatchesAvailability(t *testing.T) {
	cmd, err := platformCommand("https://appleid.apple.com/auth/authorize")
	if IsAvailable() != (err == nil) {
		t.Fatalf("IsAvailable = %v but platformCommand error = %v", IsAvailable(), err)
	}
	if err == nil && cmd.Args[len(cmd.Args)-1] != "https://appleid.apple.com/auth/authorize" {
		t.Fatalf("URL not passed to the opener: %v", cmd.Args)
	}
}
