package domain

import (
	"fmt"
)

// APIVersion represents a valid API version string. Routes are mounted
// under /api/<version>.
type APIVersion string

const (
	APIVersionV1 APIVersion = "v1"
)

var versionOrder = map[APIVersion]int{
	APIVersionV1: 1,
}

// ParseAPIVersion validates and returns an APIVersion.
func ParseAPIVersion(s string) (APIVersion, error) {
	v := APIVersion(s)
	if _, ok := versionOrder[v]; !ok {
		return "", fmt.Errorf("unknown API version: %s", s)
	}
	return v, nil
}

func (v APIVersion) String() string {
	return string(v)
}

// BasePath returns the mount point for routes of this version.
func (v APIVersion) BasePath() string {
	return "/api/" + string(v)
}

// DefaultVersion is used when configuration does not name one.
func DefaultVersion() APIVersion {
	return APIVersionV1
}
