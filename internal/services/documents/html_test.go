package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func TestHtmlToText(t *testing.T) {
	logger := arbor.NewLogger()

	t.Run("Basic conversion", func(t *testing.T) {
		html := "<html><body><h1>Title</h1><p>Body paragraph.</p></body></html>"
		text, err := htmlToText(html, "", logger)

		assert.NoError(t, err)
		assert.Contains(t, text, "Title")
		assert.Contains(t, text, "Body paragraph.")
	})

	t.Run("Scripts and styles stripped", func(t *testing.T) {
		html := `<html><body>
			<script>var secret = "nope";</script>
			<style>.cls { color: red; }</style>
			<p>Visible content.</p>
		</body></html>`
		text, err := htmlToText(html, "", logger)

		assert.NoError(t, err)
		assert.Contains(t, text, "Visible content.")
		assert.NotContains(t, text, "secret")
		assert.NotContains(t, text, "color: red")
	})

	t.Run("Navigation chrome stripped", func(t *testing.T) {
		html := `<html><body>
			<nav>Home | About</nav>
			<main><p>Article body.</p></main>
			<footer>Copyright notice</footer>
		</body></html>`
		text, err := htmlToText(html, "", logger)

		assert.NoError(t, err)
		assert.Contains(t, text, "Article body.")
		assert.NotContains(t, text, "Copyright notice")
	})

	t.Run("Main content preferred", func(t *testing.T) {
		html := `<html><body>
			<div>Sidebar junk</div>
			<main><p>The real content.</p></main>
		</body></html>`
		text, err := htmlToText(html, "", logger)

		assert.NoError(t, err)
		assert.Contains(t, text, "The real content.")
	})

	t.Run("Relative links resolved against base URL", func(t *testing.T) {
		html := `<html><body><main><a href="/docs">Documentation</a></main></body></html>`
		text, err := htmlToText(html, "https://example.com", logger)

		assert.NoError(t, err)
		assert.Contains(t, text, "Documentation")
	})
}

func TestStripHTMLTags(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"Tags removed", "<p>Hello <b>world</b></p>", "Hello world"},
		{"Whitespace collapsed", "<div>a</div>\n\n<div>b</div>", "a b"},
		{"Entities decoded", "Tom &amp; Jerry &lt;3 &quot;cartoons&quot;", `Tom & Jerry <3 "cartoons"`},
		{"Nbsp becomes space", "a&nbsp;b", "a b"},
		{"Plain text untouched", "no tags here", "no tags here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripHTMLTags(tt.html))
		})
	}
}
