package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsScripts(t *testing.T) {
	out := Sanitize(`<p>hello</p><script>alert(1)</script>`)
	assert.Contains(t, out, "<p>hello</p>")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "alert")
}

func TestSanitizeKeepsFormatting(t *testing.T) {
	in := `<strong>bold</strong> and <a href="https://example.com" rel="nofollow">a link</a>`
	out := Sanitize(in)
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, `href="https://example.com"`)
}
