package web

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown_EmptyInput(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(""))
}

func TestRenderMarkdown_PlainText(t *testing.T) {
	result := RenderMarkdown("hello world")
	assert.Contains(t, result, "hello world")
}

func TestRenderMarkdown_Bold(t *testing.T) {
	result := RenderMarkdown("**bold text**")
	assert.Contains(t, result, "<strong>bold text</strong>")
}

func TestRenderMarkdown_Link(t *testing.T) {
	result := RenderMarkdown("[click](https://example.com)")
	assert.Contains(t, result, `<a href="https://example.com"`)
	assert.Contains(t, result, "click</a>")
}

func TestRenderMarkdown_XSSPrevention(t *testing.T) {
	result := RenderMarkdown(`<script>alert("xss")</script>`)
	assert.NotContains(t, result, "<script>")
	assert.NotContains(t, result, "</script>")
}

func TestRenderMarkdown_XSSInLink(t *testing.T) {
	result := RenderMarkdown(`[click](javascript:alert("xss"))`)
	assert.NotContains(t, result, "javascript:")
}

func TestRenderFieldErrors_Empty(t *testing.T) {
	assert.Equal(t, "", RenderFieldErrors(nil))
	assert.Equal(t, "", RenderFieldErrors(map[string][]string{}))
}

func TestRenderFieldErrors_SortedList(t *testing.T) {
	result := RenderFieldErrors(map[string][]string{
		"unit": {"Invalid choice."},
		"name": {"This field may not be blank.", "Too short."},
	})

	assert.Contains(t, result, "<ul>")
	assert.Contains(t, result, "<li><strong>name</strong>: This field may not be blank.</li>")
	assert.Contains(t, result, "<li><strong>name</strong>: Too short.</li>")
	assert.Contains(t, result, "<li><strong>unit</strong>: Invalid choice.</li>")
	assert.Less(t, strings.Index(result, "name"), strings.Index(result, "unit"))
}

func TestRenderFieldErrors_NonFieldErrors(t *testing.T) {
	result := RenderFieldErrors(map[string][]string{
		"non_field_errors": {"Insufficient stock."},
	})
	assert.Contains(t, result, "<li>Insufficient stock.</li>")
	assert.NotContains(t, result, "non_field_errors")
}

func TestRenderFieldErrors_UpstreamMarkupStaysInert(t *testing.T) {
	result := RenderFieldErrors(map[string][]string{
		"name": {`<img src=x onerror=alert(1)> *not bold*`},
	})
	assert.NotContains(t, result, "<img")
	assert.Contains(t, result, "&lt;img")
	assert.NotContains(t, result, "<em>")
	assert.Contains(t, result, "*not bold*")
}
