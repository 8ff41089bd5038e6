package services

import (
	"bytes"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/corvidae-labs/archivist/internal/core/domain"
)

// LeadLabel is the label of the section preceding the first heading.
const LeadLabel = "Lead"

// SectionChunker decomposes page content into labeled sections and
// splits long sections into overlapping fixed-size token windows.
//
// Chunking is deterministic: identical input and configuration always
// produce an identical chunk sequence.
type SectionChunker struct {
	windowTokens  int
	overlapTokens int
}

// NewSectionChunker creates a chunker with the given window size and
// overlap, both in tokens. Overlap must be smaller than the window.
func NewSectionChunker(windowTokens, overlapTokens int) *SectionChunker {
	if windowTokens <= 0 {
		windowTokens = 160
	}
	if overlapTokens < 0 || overlapTokens >= windowTokens {
		overlapTokens = windowTokens / 8
	}
	return &SectionChunker{
		windowTokens:  windowTokens,
		overlapTokens: overlapTokens,
	}
}

// Sections extracts the ordered section sequence from raw page content.
// Text before the first h2/h3 heading becomes the lead section with
// order 0. Non-HTML content yields a single lead section.
func (c *SectionChunker) Sections(content []byte, path string) []domain.Section {
	if !looksLikeHTML(content) {
		text := cleanText(string(content))
		if text == "" {
			return nil
		}
		return []domain.Section{{Label: LeadLabel, Text: text, Order: 0, ParentPath: path}}
	}

	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		// Malformed beyond repair; degrade to plain text.
		text := cleanText(string(content))
		if text == "" {
			return nil
		}
		return []domain.Section{{Label: LeadLabel, Text: text, Order: 0, ParentPath: path}}
	}

	var sections []domain.Section
	label := LeadLabel
	var parts []string
	flush := func() {
		if len(parts) == 0 {
			return
		}
		text := cleanText(strings.Join(parts, " "))
		parts = parts[:0]
		if text == "" {
			return
		}
		sections = append(sections, domain.Section{
			Label:      label,
			Text:       text,
			Order:      len(sections),
			ParentPath: path,
		})
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipElement(n) {
				return
			}
			switch n.Data {
			case "h2", "h3":
				flush()
				if heading := cleanText(textContent(n)); heading != "" {
					label = heading
				}
				return
			case "p", "li", "blockquote":
				if t := textContent(n); t != "" {
					parts = append(parts, t)
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	flush()

	return sections
}

// Chunks windows each section into chunks of at most windowTokens
// tokens. Consecutive windows within one section share exactly
// overlapTokens tokens; only the final window may be shorter.
func (c *SectionChunker) Chunks(sections []domain.Section, title string) []domain.Chunk {
	var chunks []domain.Chunk
	for _, sec := range sections {
		words := strings.Fields(sec.Text)
		if len(words) == 0 {
			continue
		}
		if len(words) <= c.windowTokens {
			chunks = append(chunks, domain.Chunk{
				SectionLabel: sec.Label,
				Text:         sec.Text,
				StartOffset:  0,
				EndOffset:    len(words),
				ParentPath:   sec.ParentPath,
				ParentTitle:  title,
			})
			continue
		}
		start := 0
		for {
			end := start + c.windowTokens
			if end > len(words) {
				end = len(words)
			}
			chunks = append(chunks, domain.Chunk{
				SectionLabel: sec.Label,
				Text:         strings.Join(words[start:end], " "),
				StartOffset:  start,
				EndOffset:    end,
				ParentPath:   sec.ParentPath,
				ParentTitle:  title,
			})
			if end == len(words) {
				break
			}
			start = end - c.overlapTokens
		}
	}
	return chunks
}

// ChunkDocument runs section extraction and windowing in one step.
func (c *SectionChunker) ChunkDocument(content []byte, path, title string) []domain.Chunk {
	return c.Chunks(c.Sections(content, path), title)
}

// noiseClasses mark boilerplate blocks stripped before sectioning.
// Best-effort: unrecognised boilerplate passes through.
var noiseClasses = []string{"infobox", "navbox", "metadata", "reflist", "references"}

// skipElement reports whether a node subtree is structural noise.
func skipElement(n *html.Node) bool {
	switch n.Data {
	case "script", "style", "nav", "footer", "header", "noscript", "table", "aside":
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key != "class" && attr.Key != "id" {
			continue
		}
		val := strings.ToLower(attr.Val)
		for _, noise := range noiseClasses {
			if strings.Contains(val, noise) {
				return true
			}
		}
	}
	return false
}

// textContent returns the concatenated text of a node subtree.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// cleanText collapses all whitespace runs into single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// looksLikeHTML sniffs the content type of raw page bytes.
func looksLikeHTML(content []byte) bool {
	ct := http.DetectContentType(content)
	return strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}
