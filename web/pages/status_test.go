package pages

import (
	"strings"
	"testing"
)

func TestStatusPageRendersWithoutSync(t *testing.T) {
	// No coordinator configured: the page must still render
	html := StatusPage()

	if !strings.Contains(html, "<html>") {
		t.Error("output is not an HTML document")
	}
	if !strings.Contains(html, "NoteSync") {
		t.Error("page missing title")
	}
	if !strings.Contains(html, "never") {
		t.Error("page should show last sync as never")
	}
	if !strings.Contains(html, "No sync errors") {
		t.Error("page should show the no-error state")
	}
}
