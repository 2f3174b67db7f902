package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
	multiSpacePattern   = regexp.MustCompile(`[ \t]{2,}`)
)

// skipped subtrees: page chrome and non-content
var skipElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true, "svg": true,
	"nav": true, "footer": true, "header": true, "aside": true, "form": true,
	"button": true, "template": true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "table": true, "tr": true, "ul": true, "ol": true,
	"figcaption": true,
}

// htmlToText extracts the readable text of a page: the title, then the
// content of <article> or <main> when present, else <body>.
func htmlToText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if title := findElement(doc, "title"); title != nil {
		if t := strings.TrimSpace(textOf(title)); t != "" {
			sb.WriteString(t)
			sb.WriteString("\n\n")
		}
	}

	root := findElement(doc, "article")
	if root == nil {
		root = findElement(doc, "main")
	}
	if root == nil {
		root = findElement(doc, "body")
	}
	if root == nil {
		root = doc
	}
	extractText(root, &sb, 0)

	return cleanText(sb.String()), nil
}

func extractText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 64 {
		return
	}

	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
		return
	case html.ElementNode:
		if skipElements[n.Data] || n.Data == "title" {
			return
		}
		switch {
		case blockElements[n.Data]:
			sb.WriteString("\n\n")
		case n.Data == "br":
			sb.WriteString("\n")
		case n.Data == "li":
			sb.WriteString("\n- ")
		case n.Data == "img":
			if alt := getAttr(n, "alt"); alt != "" {
				sb.WriteString("[Image: " + alt + "] ")
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb, depth+1)
	}

	if n.Type == html.ElementNode && blockElements[n.Data] {
		sb.WriteString("\n\n")
	}
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textOf(c))
	}
	return sb.String()
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func cleanText(s string) string {
	s = multiSpacePattern.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = multiNewlinePattern.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
