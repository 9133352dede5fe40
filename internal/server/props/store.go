package props

import (
	"encoding/xml"
	"strings"
)

// Store persists dead properties. Keys are server paths (share prefix +
// share-relative path) so one store serves every mount. Values hold the
// property element's inner XML verbatim.
type Store interface {
	Names(path string) ([]xml.Name, error)
	Get(path string, name xml.Name) (value string, ok bool, err error)
	Set(path string, name xml.Name, value string) error
	Remove(path string, name xml.Name) error

	// RemoveTree drops the properties of path and all its descendants,
	// used when the resource is deleted.
	RemoveTree(path string) error
	MoveTree(src, dst string) error
	CopyTree(src, dst string) error

	Close() error
}

// clark renders a property name in Clark notation, "{space}local".
func clark(name xml.Name) string {
	return "{" + name.Space + "}" + name.Local
}

func parseClark(s string) xml.Name {
	if !strings.HasPrefix(s, "{") {
		return xml.Name{Local: s}
	}
	i := strings.IndexByte(s, '}')
	if i < 0 {
		return xml.Name{Local: s}
	}
	return xml.Name{Space: s[1:i], Local: s[i+1:]}
}

// subtreePrefix matches path's descendants but not its siblings.
func subtreePrefix(path string) string {
	if path == "/" {
		return "/"
	}
	return path + "/"
}
