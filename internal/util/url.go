package util

import "strings"

// IsUrlValid rejects request paths that are not rooted or that carry
// dot segments, before any of them could reach a provider.
func IsUrlValid(v string) bool {
	if len(v) == 0 || v[0] != '/' {
		return false
	}
	for _, seg := range strings.Split(v[1:], "/") {
		if seg == ".." || seg == "." {
			return false
		}
	}
	return true
}
