package report

import "strconv"

// Keys of the dialect-specific attributes carried in Extra. These are the only keys the parsers populate.
const (
	KeyFile     = "file"
	KeyFilepath = "filepath"
	KeyID       = "id"
	KeyLine     = "line"
)

// ExtraKeys lists the known keys in the order they are serialized.
var ExtraKeys = []string{KeyFile, KeyFilepath, KeyID, KeyLine}

// Extra holds dialect-specific attributes of a suite or case. Read it through the typed accessors.
type Extra map[string]string

func (e Extra) get(key string) (string, bool) {
	value, ok := e[key]
	if !ok || value == "" {
		return "", false
	}

	return value, true
}

// File returns the `file` attribute.
func (e Extra) File() (string, bool) {
	return e.get(KeyFile)
}

// Filepath returns the `filepath` attribute.
func (e Extra) Filepath() (string, bool) {
	return e.get(KeyFilepath)
}

// FileOrFilepath returns `file`, falling back to `filepath`.
func (e Extra) FileOrFilepath() (string, bool) {
	if file, ok := e.File(); ok {
		return file, true
	}

	return e.Filepath()
}

// ID returns the pre-assigned test identity.
func (e Extra) ID() (string, bool) {
	return e.get(KeyID)
}

// Line returns the line number of the test definition.
func (e Extra) Line() (int, bool) {
	raw, ok := e.get(KeyLine)
	if !ok {
		return 0, false
	}

	line, err := strconv.Atoi(raw)
	if err != nil || line < 0 {
		return 0, false
	}

	return line, true
}
