// Release builds overwrite this file with generated stamp values.
// These defaults apply when running straight from source.
package version

const (
	Version string = "source"
	Mode    string = "debug"
	Time    string = "unknown"
)
