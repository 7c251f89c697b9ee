// Package codeowners answers which owners a repository path belongs to, according to a GitHub or GitLab CODEOWNERS
// file.
package codeowners

import (
	"bufio"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/fs"
)

// Lookup returns the owners of a repository-relative path.
type Lookup interface {
	Owners(path string) ([]string, bool)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(path string) ([]string, bool)

func (f LookupFunc) Owners(path string) ([]string, bool) {
	return f(path)
}

const fileName = "CODEOWNERS"

// Locations are probed in order, relative to the repository root.
var Locations = []string{".github", ".", "docs", ".gitlab"}

var (
	// `^[Section name][approvals] @default @owners`
	sectionHeader = regexp.MustCompile(`^(\^)?\[([^\]]*)\](?:\[(\d*)\])?(?:\s+(.*))?$`)
	// Whitespace that is not escaped with a backslash.
	unescapedSpace = regexp.MustCompile(`[^\\]\s+`)
)

type entry struct {
	raw     string
	pattern gitignore.Pattern
	owners  []string
}

type section struct {
	name          string
	optional      bool
	defaultOwners []string
	entries       []entry
}

// File is a parsed CODEOWNERS file. A GitHub file is a file with a single unnamed section.
type File struct {
	Path     string
	sections []*section
}

// Parse reads a CODEOWNERS file. In every section, the last matching entry wins. GitLab sections are combined, so a
// path can have owners from several sections.
func Parse(r io.Reader) (*File, error) {
	file := &File{sections: []*section{{}}}
	current := file.sections[0]

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}

		if match := sectionHeader.FindStringSubmatch(line); match != nil {
			current = file.section(match[2])
			current.optional = match[1] != ""
			if owners := strings.Fields(match[4]); len(owners) > 0 {
				current.defaultOwners = owners
			}
			continue
		}

		pattern, owners := splitEntry(line)
		if len(owners) == 0 {
			owners = current.defaultOwners
		}

		current.entries = append(current.entries, entry{
			raw:     pattern,
			pattern: gitignore.ParsePattern(pattern, nil),
			owners:  owners,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.NewInputError("Unable to read CODEOWNERS file: %s", err)
	}

	return file, nil
}

// section returns the section with the given name, creating it if needed. Names are compared case-insensitively.
func (f *File) section(name string) *section {
	for _, s := range f.sections {
		if s.name != "" && strings.EqualFold(s.name, name) {
			return s
		}
	}

	s := &section{name: name}
	f.sections = append(f.sections, s)
	return s
}

func splitEntry(line string) (string, []string) {
	pattern := line
	rest := ""

	if loc := unescapedSpace.FindStringIndex(line); loc != nil {
		pattern = line[:loc[0]+1]
		rest = line[loc[1]:]
	}

	pattern = strings.NewReplacer(`\ `, " ", `\#`, "#").Replace(pattern)
	return pattern, strings.Fields(rest)
}

// Sections returns the names of the named sections, in file order.
func (f *File) Sections() []string {
	names := make([]string, 0, len(f.sections))
	for _, s := range f.sections {
		if s.name != "" {
			names = append(names, s.name)
		}
	}

	return names
}

// Owners implements Lookup.
func (f *File) Owners(path string) ([]string, bool) {
	path = strings.Trim(strings.TrimPrefix(filepath.ToSlash(path), "./"), "/")
	if path == "" {
		return nil, false
	}
	components := strings.Split(path, "/")

	seen := make(map[string]struct{})
	owners := make([]string, 0)

	for _, s := range f.sections {
		for i := len(s.entries) - 1; i >= 0; i-- {
			if s.entries[i].pattern.Match(components, false) != gitignore.Exclude {
				continue
			}

			for _, owner := range s.entries[i].owners {
				if _, ok := seen[owner]; ok {
					continue
				}
				seen[owner] = struct{}{}
				owners = append(owners, owner)
			}
			break
		}
	}

	return owners, len(owners) > 0
}

// Find looks for a CODEOWNERS file. An explicit path is tried first, then the default Locations below `repoRoot`.
// It returns nil without an error when there is no file.
func Find(fileSystem fs.FileSystem, repoRoot, explicitPath string) (*File, error) {
	candidates := make([]string, 0, len(Locations)+1)

	if explicitPath != "" {
		if !filepath.IsAbs(explicitPath) {
			explicitPath = filepath.Join(repoRoot, explicitPath)
		}
		candidates = append(candidates, explicitPath)
	}

	for _, location := range Locations {
		candidates = append(candidates, filepath.Join(repoRoot, location, fileName))
	}

	for _, candidate := range candidates {
		info, err := fileSystem.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}

		fd, err := fileSystem.Open(candidate)
		if err != nil {
			return nil, errors.NewSystemError("Unable to open %q: %s", candidate, err)
		}

		file, err := Parse(fd)
		_ = fd.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "unable to parse %q", candidate)
		}

		file.Path = candidate
		return file, nil
	}

	return nil, nil
}
