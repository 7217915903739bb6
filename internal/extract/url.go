package extract

import (
	"regexp"
	"strings"
)

var originPattern = regexp.MustCompile(`^(https?:)//([^/]+)`)

// AbsolutizeURL resolves ref against base. Already-absolute values pass
// through, protocol-relative values get https:, root-relative values are
// prefixed with the base origin, and anything else is joined to the base
// URL's directory. When the base is missing or unparsable the value is
// returned as-is rather than failing.
func AbsolutizeURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}

	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}

	origin := originPattern.FindStringSubmatch(base)

	if strings.HasPrefix(ref, "/") {
		if origin == nil {
			return ref
		}
		return origin[1] + "//" + origin[2] + ref
	}

	if base == "" {
		return ref
	}

	// Relative path: join to the base URL's directory.
	dir := base
	if i := strings.LastIndex(base, "/"); i > strings.Index(base, "://")+2 {
		dir = base[:i]
	}
	return dir + "/" + ref
}
