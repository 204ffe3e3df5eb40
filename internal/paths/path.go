// Package paths translates between filesystem paths and browser-servable web URIs
// and resolves a track's declared source path into a concrete location.
//
// A [Resolver] is built from an explicit [Settings] value and never consults global state.
// The same deployment can live under any absolute root (/data/moop, /var/www/html/moop, /opt/moop):
// local web URIs are anchored on the site directory name rather than a fixed prefix depth.
//
// Reference genome paths (containing /genomes/ or /data/genomes/) are always served locally,
// even when a remote tracks server is configured.
package paths

import (
	"sort"
	"strings"

	"github.com/desertthunder/jbtracks/internal/shared"
)

// AutoKeyword is the source path sentinel resolved from the assembly's standard genome location.
const AutoKeyword = "AUTO"

// Path is a raw, unresolved track source path as written in a spreadsheet.
type Path string

// IsAuto reports whether p is the AUTO keyword (case-insensitive, surrounding whitespace ignored).
func (p Path) IsAuto() bool {
	return strings.EqualFold(strings.TrimSpace(string(p)), AutoKeyword)
}

// IsURL reports whether p starts with http:// or https:// (case-insensitive).
func (p Path) IsURL() bool {
	return shared.IsHTTPURL(string(p))
}

// IsAbsolute reports whether p starts with "/".
func (p Path) IsAbsolute() bool {
	return strings.HasPrefix(string(p), "/")
}

// IsReferenceGenome reports whether p contains /genomes/ or /data/genomes/.
func (p Path) IsReferenceGenome() bool {
	s := string(p)
	return strings.Contains(s, "/genomes/") || strings.Contains(s, "/data/genomes/")
}

// IsEmpty reports whether p is blank.
func (p Path) IsEmpty() bool {
	return strings.TrimSpace(string(p)) == ""
}

// IsRemote reports whether path is an http(s) URL.
func IsRemote(path string) bool {
	return Path(path).IsURL()
}

// StripQuery removes any URL query string or fragment, for extension sniffing.
func StripQuery(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}
	return path
}

// HasExtension reports whether path ends with ext, ignoring case and any URL query string.
func HasExtension(path, ext string) bool {
	return strings.HasSuffix(strings.ToLower(StripQuery(path)), strings.ToLower(ext))
}

// AssemblyPairName is the canonical storage key of a synteny pair: both assemblies
// sorted and joined with "_", so A/B and B/A collapse to the same key.
func AssemblyPairName(assembly1, assembly2 string) string {
	pair := []string{strings.TrimSpace(assembly1), strings.TrimSpace(assembly2)}
	sort.Strings(pair)
	return pair[0] + "_" + pair[1]
}
