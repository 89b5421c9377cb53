package web

import (
	"bytes"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// RenderMarkdown converts a markdown string to sanitized HTML.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// RenderFieldErrors renders per-field messages as a sanitized bullet list,
// sorted by field. Messages for non_field_errors are listed without a
// field name. Returns empty string when there is nothing to show.
func RenderFieldErrors(fields map[string][]string) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var md strings.Builder
	for _, k := range keys {
		for _, msg := range fields[k] {
			md.WriteString("- ")
			if k != "non_field_errors" {
				md.WriteString("**")
				md.WriteString(escapeMarkdown(k))
				md.WriteString("**: ")
			}
			md.WriteString(escapeMarkdown(msg))
			md.WriteByte('\n')
		}
	}
	return RenderMarkdown(md.String())
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "#", `\#`,
)

// escapeMarkdown keeps upstream text literal inside generated markdown.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(strings.ReplaceAll(s, "\n", " "))
}
