package cli

// Config holds the options of a scan run
type Config struct {
	// Directories is the list of directories to scan for annotated Go files.
	// A trailing "/..." includes every subdirectory.
	Directories []string

	// Filter restricts the scan to one annotation type, written under its
	// canonical name. Empty means every type.
	Filter string

	// AllowUnknown registers a generic record type for every unknown
	// annotation name instead of reporting it as an error
	AllowUnknown bool

	// CachePath is the result store used to skip unchanged files. Empty
	// disables the store.
	CachePath string

	// Output is the report format: table or json
	Output string
}
