package parse

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSnapshotExtractsTitleLinksAndText(t *testing.T) {
	t.Parallel()

	html := `<html><head><title> Funding   Portal </title></head><body>
		<h1>Open calls</h1>
		<a href="/grants/innovation">Innovation   grant</a>
		<a href="https://other.example/apply">Apply</a>
		<p>Deadline: 2025-03-15</p>
	</body></html>`

	snap := Snapshot("https://portal.example/home", 200, []byte(html))
	require.Equal(t, "Funding Portal", snap.Title)
	require.Equal(t, 200, snap.StatusCode)
	require.Contains(t, snap.Text, "Open calls")
	require.Contains(t, snap.Text, "Deadline: 2025-03-15")

	require.Len(t, snap.Links, 2)
	require.Equal(t, "https://portal.example/grants/innovation", snap.Links[0].URL)
	require.Equal(t, "Innovation grant", snap.Links[0].Text)
	require.Equal(t, "https://other.example/apply", snap.Links[1].URL)
}

func TestSnapshotCapsLinksAndTruncatesText(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&sb, `<a href="/p%d">%s</a>`, i, strings.Repeat("x", 150))
	}
	sb.WriteString("</body></html>")

	snap := Snapshot("https://portal.example", 200, []byte(sb.String()))
	require.Len(t, snap.Links, 50)
	for _, link := range snap.Links {
		require.LessOrEqual(t, len(link.Text), 100)
	}
}

func TestSnapshotLinkTextTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	html := fmt.Sprintf(`<html><body><a href="/x">%s</a></body></html>`, strings.Repeat("é", 120))

	snap := Snapshot("https://portal.example", 200, []byte(html))
	require.Len(t, snap.Links, 1)
	require.True(t, utf8.ValidString(snap.Links[0].Text))
	require.Equal(t, strings.Repeat("é", 100), snap.Links[0].Text)
}

func TestSnapshotExtractsForms(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 7; i++ {
		fmt.Fprintf(&sb, `<form method="post" action="/search%d">
			<input name="q" type="text" value="grants"/>
			<select name="region"></select>
		</form>`, i)
	}
	sb.WriteString("</body></html>")

	snap := Snapshot("https://portal.example", 200, []byte(sb.String()))
	require.Len(t, snap.Forms, 5, "form extraction is capped")
	require.Equal(t, "POST", snap.Forms[0].Method)
	require.Equal(t, "/search0", snap.Forms[0].Action)
	require.Len(t, snap.Forms[0].Inputs, 2)
	require.Equal(t, "q", snap.Forms[0].Inputs[0].Name)
	require.Equal(t, "grants", snap.Forms[0].Inputs[0].Value)
}

func TestSnapshotToleratesMalformedHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
	}{
		{"empty", ""},
		{"truncated tag", "<html><body><a href="},
		{"not html", "{\"json\": true}"},
		{"unclosed everything", "<div><p><a href='/x'>link"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Snapshot("https://portal.example", 200, []byte(tt.html))
			require.Equal(t, "https://portal.example", snap.URL)
		})
	}
}

func TestSnapshotEmptyTitle(t *testing.T) {
	t.Parallel()

	snap := Snapshot("https://portal.example", 200, []byte("<html><body>no title here</body></html>"))
	require.Empty(t, snap.Title)
}
