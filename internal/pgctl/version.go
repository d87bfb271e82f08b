package pgctl

import (
	"fmt"
	"strings"

	"github.com/blang/semver"
)

// firstMajorWithoutMinor is the first release whose major version is a
// single number.
const firstMajorWithoutMinor = 10

// NormalizeVersion turns server_version output such as
// "16.4 (Debian 16.4-1.pgdg120+1)" or "9.6.24" into "major.minor".
func NormalizeVersion(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, " _-"); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return "", fmt.Errorf("empty version")
	}
	v, err := semver.ParseTolerant(raw)
	if err != nil {
		return "", fmt.Errorf("parse version %q: %w", raw, err)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor), nil
}

// ClusterVersion is the version directory pg_ctlcluster expects: the major
// number for 10 and later, major.minor before that.
func ClusterVersion(version string) (string, error) {
	v, err := semver.ParseTolerant(strings.TrimSpace(version))
	if err != nil {
		return "", fmt.Errorf("parse version %q: %w", version, err)
	}
	if v.Major >= firstMajorWithoutMinor {
		return fmt.Sprintf("%d", v.Major), nil
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor), nil
}
