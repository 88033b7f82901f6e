package crawler

import (
	"io"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// RemoteFile is one file link discovered on an autoindex page, resolved to
// an absolute URL relative to the page it was found on. Size and
// LastModified come from the autoindex row's trailing metadata text when
// present (Apache mod_autoindex's "DD-Mon-YYYY HH:MM    size" convention);
// either is zero/empty when the listing carries no such metadata, in which
// case Tick cannot skip a download without fetching first.
type RemoteFile struct {
	URL          string
	Name         string
	Size         int64
	LastModified string
}

// autoindexMetaPattern matches the date/size trailer mod_autoindex appends
// after each anchor, e.g. "03-Jan-2024 10:15    22204".
var autoindexMetaPattern = regexp.MustCompile(`(\d{2}-[A-Za-z]{3}-\d{4}\s+\d{2}:\d{2})\s+(\d+)\b`)

// metaAfter scans the text siblings immediately following an autoindex
// anchor node for its trailing "last-modified size" pair.
func metaAfter(anchor *html.Node) (lastModified string, size int64) {
	for sib := anchor.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.ElementNode && sib.Data == "a" {
			break
		}
		if sib.Type != html.TextNode {
			continue
		}
		if m := autoindexMetaPattern.FindStringSubmatch(sib.Data); m != nil {
			size, _ = strconv.ParseInt(m[2], 10, 64)
			return m[1], size
		}
	}
	return "", 0
}

// parseAutoindex walks an HTML autoindex directory listing page and returns
// every anchor href, resolved against baseURL. It deliberately does not
// distinguish directories from files here (isDirectoryLink does that
// downstream by trailing slash), mirroring the anchor-harvesting idiom used elsewhere in
// the example pack for extracting links out of arbitrary HTML.
func parseAutoindex(r io.Reader, baseURL string) ([]RemoteFile, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var files []RemoteFile
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				href := strings.TrimSpace(attr.Val)
				if href == "" || href == "../" || href == ".." || strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#") {
					continue
				}
				resolved, err := base.Parse(href)
				if err != nil {
					continue
				}
				if resolved.Host != base.Host {
					continue // do not follow off-site links
				}
				lastModified, size := metaAfter(n)
				files = append(files, RemoteFile{
					URL:          resolved.String(),
					Name:         path.Base(strings.TrimSuffix(resolved.Path, "/")),
					Size:         size,
					LastModified: lastModified,
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return files, nil
}

// isDirectoryLink reports whether a discovered link looks like a
// subdirectory to recurse into, rather than a leaf file.
func isDirectoryLink(f RemoteFile) bool {
	return strings.HasSuffix(f.URL, "/")
}

// matchesAnyGlob reports whether name matches any of the accept patterns
// (shell globs such as "*.nc", "*.bin").
func matchesAnyGlob(name string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := path.Match(g, name); ok {
			return true
		}
	}
	return false
}
