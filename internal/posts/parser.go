package posts

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Post is a parsed blog post ready for indexing.
type Post struct {
	RelPath string
	Title   string
	URL     string
	Date    string // YYYY-MM-DD
	Content string // Plain text with markdown syntax stripped
	Draft   bool
}

// frontMatter holds the YAML metadata block at the top of a post.
type frontMatter struct {
	Title string `yaml:"title"`
	Date  string `yaml:"date"`
	URL   string `yaml:"url"`
	Draft bool   `yaml:"draft"`
}

// Parser parses markdown posts using goldmark AST parsing.
type Parser struct {
	parser goldmark.Markdown
}

// NewParser creates a new post parser.
func NewParser() *Parser {
	return &Parser{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Parse parses a post's raw bytes into a Post. Title comes from front matter,
// then the first #/## heading, then the capitalized filename. The content
// field is the plain text of the body, including code blocks, so embedded
// code examples stay searchable. modTime is the date fallback when the front
// matter carries none.
func (p *Parser) Parse(raw []byte, relPath string, modTime time.Time) (*Post, error) {
	fm, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse front matter in %s: %w", relPath, err)
	}

	post := &Post{
		RelPath: relPath,
		Draft:   fm.Draft,
	}

	// Parse markdown body into AST
	reader := text.NewReader(body)
	doc := p.parser.Parser().Parse(reader)

	post.Title = fm.Title
	if post.Title == "" {
		post.Title = extractTitle(doc, body, relPath)
	}

	post.URL = fm.URL
	if post.URL == "" {
		post.URL = urlFromRelPath(relPath)
	}

	post.Date, err = normalizeDate(fm.Date, modTime)
	if err != nil {
		return nil, fmt.Errorf("invalid date in %s: %w", relPath, err)
	}

	post.Content = extractPlainText(doc, body)

	return post, nil
}

var frontMatterDelim = []byte("---")

// splitFrontMatter splits a raw post into its YAML front matter and markdown body.
// Posts without a front matter block yield a zero frontMatter and the full body.
func splitFrontMatter(raw []byte) (frontMatter, []byte, error) {
	var fm frontMatter

	trimmed := bytes.TrimLeft(raw, "\xef\xbb\xbf") // Strip UTF-8 BOM if present
	if !bytes.HasPrefix(trimmed, frontMatterDelim) {
		return fm, raw, nil
	}

	rest := trimmed[len(frontMatterDelim):]
	// The opening delimiter must be alone on its line
	newline := bytes.IndexByte(rest, '\n')
	if newline == -1 || len(bytes.TrimSpace(rest[:newline])) != 0 {
		return fm, raw, nil
	}
	rest = rest[newline+1:]

	// Find the closing delimiter on its own line
	end := -1
	offset := 0
	for _, line := range bytes.Split(rest, []byte("\n")) {
		if bytes.Equal(bytes.TrimSpace(line), frontMatterDelim) {
			end = offset
			break
		}
		offset += len(line) + 1
	}
	if end == -1 {
		return fm, raw, nil
	}

	block := rest[:end]
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return frontMatter{}, nil, err
	}

	body := rest[end+len(frontMatterDelim):]
	return fm, bytes.TrimLeft(body, "\n"), nil
}

// extractTitle extracts the post title from the markdown body:
// 1. First # heading (level 1)
// 2. First ## heading (level 2) if no level 1
// 3. Filename without extension (capitalize words) if no headings
func extractTitle(doc ast.Node, body []byte, relPath string) string {
	var firstH1, firstH2 string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if heading, ok := n.(*ast.Heading); ok {
			headingText := extractTextFromNode(heading, body)

			if heading.Level == 1 && firstH1 == "" {
				firstH1 = headingText
			} else if heading.Level == 2 && firstH2 == "" && firstH1 == "" {
				firstH2 = headingText
			}

			// Stop walking once we have what we need
			if firstH1 != "" {
				return ast.WalkStop, nil
			}
		}

		return ast.WalkContinue, nil
	})

	if firstH1 != "" {
		return firstH1
	}
	if firstH2 != "" {
		return firstH2
	}

	return titleFromFilename(relPath)
}

// titleFromFilename derives a title from the filename by removing the extension
// and capitalizing words. Hyphens and underscores count as word separators.
func titleFromFilename(relPath string) string {
	name := filepath.Base(relPath)
	ext := filepath.Ext(name)
	if ext != "" {
		name = name[:len(name)-len(ext)]
	}

	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	return strings.Join(words, " ")
}

// urlFromRelPath derives the site-relative URL for a post from its path,
// e.g. "2025/k3d-on-ubuntu.md" -> "/2025/k3d-on-ubuntu/".
func urlFromRelPath(relPath string) string {
	slug := strings.TrimSuffix(relPath, filepath.Ext(relPath))
	return "/" + slug + "/"
}

// dateFormats are the front-matter date layouts accepted, most specific first.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// normalizeDate turns a front-matter date string into YYYY-MM-DD,
// falling back to the file modification time when absent.
func normalizeDate(raw string, modTime time.Time) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return modTime.Format("2006-01-02"), nil
	}

	for _, layout := range dateFormats {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format("2006-01-02"), nil
		}
	}

	return "", fmt.Errorf("unrecognized date format: %q", raw)
}

// extractPlainText walks the AST and collects the text content of the post,
// including inline code and fenced code blocks.
func extractPlainText(doc ast.Node, body []byte) string {
	var b strings.Builder

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			segment := node.Segment
			b.Write(segment.Value(body))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.CodeBlock:
			writeCodeLines(&b, node, body)
		case *ast.FencedCodeBlock:
			writeCodeLines(&b, node, body)
		case *ast.Paragraph, *ast.Heading, *ast.List, *ast.ListItem, *ast.Blockquote:
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

// writeCodeLines appends the raw lines of a code block node.
func writeCodeLines(b *strings.Builder, n ast.Node, body []byte) {
	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteByte('\n')
	}
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(body))
	}
}

// extractTextFromNode extracts text content from a node and its children.
func extractTextFromNode(n ast.Node, body []byte) string {
	var b strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := node.(type) {
		case *ast.Text:
			segment := v.Segment
			b.Write(segment.Value(body))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}
