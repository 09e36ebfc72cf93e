package preview

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// metaTags holds the extraction-relevant meta tags of a fetched page.
type metaTags struct {
	Title       string
	Description string
	Image       string
	SiteName    string
}

// Regex fallbacks for tag soup that x/net/html cannot make sense of. Each
// family matches both attribute orders (property before content and after).
var (
	reOGTitle = buildMetaRegex("og:title", "twitter:title")
	reOGDesc  = buildMetaRegex("og:description", "twitter:description")
	reOGImage = buildMetaRegex("og:image", "twitter:image", "twitter:image:src")
	reOGSite  = buildMetaRegex("og:site_name")
	reTitle   = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
)

func buildMetaRegex(props ...string) *regexp.Regexp {
	var alts []string
	for _, p := range props {
		escaped := regexp.QuoteMeta(p)
		alts = append(alts,
			`(?i)<meta[^>]+(?:property|name)=["']`+escaped+`["'][^>]+content=["']([^"']{1,500})["']`,
			`(?i)<meta[^>]+content=["']([^"']{1,500})["'][^>]+(?:property|name)=["']`+escaped+`["']`,
		)
	}
	return regexp.MustCompile(`(?:` + strings.Join(alts, `|`) + `)`)
}

func firstGroup(re *regexp.Regexp, body string) string {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g != "" {
			return strings.TrimSpace(g)
		}
	}
	return ""
}

// extractMetaTags pulls OG/twitter meta tags out of an HTML document. It
// first walks the parsed tree; whatever the walk misses is retried with the
// regex families, which tolerate broken markup.
func extractMetaTags(body string) metaTags {
	tags := extractViaTree(body)

	if tags.Title == "" {
		tags.Title = firstGroup(reOGTitle, body)
	}
	if tags.Title == "" {
		tags.Title = firstGroup(reTitle, body)
	}
	if tags.Description == "" {
		tags.Description = firstGroup(reOGDesc, body)
	}
	if tags.Image == "" {
		tags.Image = firstGroup(reOGImage, body)
	}
	if tags.SiteName == "" {
		tags.SiteName = firstGroup(reOGSite, body)
	}

	return tags
}

// extractViaTree parses the document and collects meta tags from the tree.
func extractViaTree(body string) metaTags {
	var tags metaTags

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return tags
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				property, content := metaAttrs(n)
				switch property {
				case "og:title", "twitter:title":
					if tags.Title == "" {
						tags.Title = content
					}
				case "og:description", "twitter:description", "description":
					if tags.Description == "" {
						tags.Description = content
					}
				case "og:image", "twitter:image", "twitter:image:src":
					if tags.Image == "" {
						tags.Image = content
					}
				case "og:site_name":
					if tags.SiteName == "" {
						tags.SiteName = content
					}
				}
			case "title":
				if tags.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					tags.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return tags
}

// metaAttrs returns the property/name and content attributes of a meta node.
func metaAttrs(n *html.Node) (string, string) {
	var property, content string
	for _, attr := range n.Attr {
		switch attr.Key {
		case "property", "name":
			property = strings.ToLower(strings.TrimSpace(attr.Val))
		case "content":
			content = strings.TrimSpace(attr.Val)
		}
	}
	return property, content
}

// reImgTag matches src attributes of img tags for the thumbnail-scan
// fallbacks.
var reImgTag = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["']`)

// scanImgTags returns candidate image URLs from raw img tags, filtered by an
// optional host substring requirement.
func scanImgTags(body, hostFilter string) []string {
	var images []string
	for _, m := range reImgTag.FindAllStringSubmatch(body, -1) {
		src := m[1]
		if !strings.HasPrefix(src, "http") {
			continue
		}
		if hostFilter != "" && !strings.Contains(src, hostFilter) {
			continue
		}
		images = append(images, src)
	}
	return images
}
