package webdav

const (
	invalidDepth  = -2
	infiniteDepth = -1
)

// parseDepth maps a Depth header onto 0, 1 or infiniteDepth. Section
// 10.2 defines no other values.
func parseDepth(s string) int {
	switch s {
	case "0":
		return 0
	case "1":
		return 1
	case "infinity":
		return infiniteDepth
	}
	return invalidDepth
}
