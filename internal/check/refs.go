package check

import (
	"net/url"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/aidanlsb/skillsync/internal/parser"
)

// LocalRef is a package-relative path referenced from a manifest body.
type LocalRef struct {
	Path string
	Line int
}

var (
	// Paths under the conventional package subdirectories, as written in code spans.
	subdirPathRe = regexp.MustCompile("(?:^|[\\s\"'(=])(?:\\./)?((?:resources|references|scripts|assets)/[^\\s\"'()<>`]+)")

	// `open <path>` commands; only consulted inside code.
	openCmdRe = regexp.MustCompile(`(?:^|[\s;&|(])open\s+(?:-[A-Za-z]+\s+)*("[^"]+"|'[^']+'|[^\s;&|()]+)`)
)

// collectRefs extracts local file references from markdown links, code spans
// naming known subdirectories, and `open <path>` tokens inside code. Each
// path is reported once, at the earliest line it appears.
func collectRefs(md *parser.Markdown) []LocalRef {
	earliest := make(map[string]int)
	track := func(path string, line int) {
		if path == "" {
			return
		}
		if prev, ok := earliest[path]; !ok || line < prev {
			earliest[path] = line
		}
	}

	for _, link := range md.Links {
		if path, ok := linkPath(link.Destination); ok {
			track(path, link.Line)
		}
	}

	for _, span := range md.CodeSpans {
		for _, m := range subdirPathRe.FindAllStringSubmatch(span.Text, -1) {
			track(cleanRef(strings.TrimRight(m[1], ".,;:")), span.Line)
		}
		for _, path := range openTargets(span.Text) {
			track(path, span.Line)
		}
	}

	for _, code := range md.CodeLines {
		for _, path := range openTargets(code.Text) {
			track(path, code.Line)
		}
	}

	refs := make([]LocalRef, 0, len(earliest))
	for path, line := range earliest {
		refs = append(refs, LocalRef{Path: path, Line: line})
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Line != refs[j].Line {
			return refs[i].Line < refs[j].Line
		}
		return refs[i].Path < refs[j].Path
	})
	return refs
}

// linkPath turns a link destination into a package-relative path. External
// URLs, anchors and absolute paths are not local references.
func linkPath(dest string) (string, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "~") {
		return "", false
	}
	if u, err := url.Parse(dest); err == nil && u.Scheme != "" {
		return "", false
	}
	if i := strings.IndexAny(dest, "#?"); i >= 0 {
		dest = dest[:i]
	}
	if decoded, err := url.PathUnescape(dest); err == nil {
		dest = decoded
	}
	path := cleanRef(dest)
	return path, path != ""
}

func openTargets(text string) []string {
	var out []string
	for _, m := range openCmdRe.FindAllStringSubmatch(text, -1) {
		arg := strings.Trim(m[1], `"'`)
		if arg == "" || strings.Contains(arg, "://") || strings.ContainsAny(arg[:1], "/~$-") {
			continue
		}
		if path := cleanRef(arg); path != "" {
			out = append(out, path)
		}
	}
	return out
}

func cleanRef(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(filepath.FromSlash(path))
	if cleaned == "." {
		return ""
	}
	return cleaned
}
