package index

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// parseSimpleHTML extracts the file listing from a PEP 503 HTML project
// page. Every anchor is one distribution file; the digest travels in the
// href fragment as "#algorithm=hexdigest".
//
// golang.org/x/net/html is used rather than regex because index pages in
// the wild carry arbitrary attribute ordering and occasionally malformed
// markup that the tokenizer handles correctly.
func parseSimpleHTML(body []byte, pageURL string) ([]ReleaseFile, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid project page URL %q", ErrUnexpectedResponse, pageURL)
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid HTML project page: %v", ErrUnexpectedResponse, err)
	}

	var files []ReleaseFile
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if f, ok := anchorToFile(base, n); ok {
				files = append(files, f)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return files, nil
}

// anchorToFile converts one <a> element into a ReleaseFile.
// The anchor text is the filename; when the text is empty the filename
// falls back to the last path segment of the href.
func anchorToFile(base *url.URL, n *html.Node) (ReleaseFile, bool) {
	var href string
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = attr.Val
			break
		}
	}
	if href == "" {
		return ReleaseFile{}, false
	}

	absolute, fragmentAlg, fragmentDigest := resolveFileURL(base, href)
	if absolute == "" {
		return ReleaseFile{}, false
	}

	filename := strings.TrimSpace(anchorText(n))
	if filename == "" {
		if u, err := url.Parse(absolute); err == nil {
			filename = path.Base(u.Path)
		}
	}
	if filename == "" || filename == "." || filename == "/" {
		return ReleaseFile{}, false
	}

	f := ReleaseFile{Filename: filename, URL: absolute, Digests: map[string]string{}}
	if fragmentAlg != "" && fragmentDigest != "" {
		f.Digests[fragmentAlg] = fragmentDigest
	}
	return f, true
}

// anchorText collects the text content of an anchor node.
func anchorText(n *html.Node) string {
	var b strings.Builder
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
