package version

import (
	"regexp"
	"strings"
	"testing"
)

func TestCurrentIsSemverWithoutVPrefix(t *testing.T) {
	semver := regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)
	if !semver.MatchString(Current) {
		t.Fatalf("Current=%q must match <major>.<minor>.<patch>", Current)
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "synthgen/") || !strings.HasSuffix(ua, Current) {
		t.Fatalf("UserAgent()=%q", ua)
	}
}
