// Package archive persists raw copies of grant pages for later inspection.
package archive

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/grant"
)

var invalidFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// pageMeta is the JSON sidecar written next to each archived page.
type pageMeta struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	StatusCode int       `json:"status_code"`
	LinkCount  int       `json:"link_count"`
	SavedAt    time.Time `json:"saved_at"`
}

// FileSink writes one HTML file plus a JSON sidecar per archived page.
type FileSink struct {
	root     string
	maxBytes int64
	logger   *zap.Logger
}

// NewFileSink returns a sink rooted at dir, creating it if needed.
func NewFileSink(root string, maxBytes int64, logger *zap.Logger) (*FileSink, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create archive dir %s: %w", root, err)
	}
	return &FileSink{root: root, maxBytes: maxBytes, logger: logger}, nil
}

// SavePage archives a snapshot's raw HTML and metadata. Oversized and empty
// pages are rejected.
func (s *FileSink) SavePage(ctx context.Context, snap grant.PageSnapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	if snap.RawHTML == "" {
		return fmt.Errorf("empty page body for %s", snap.URL)
	}
	if s.maxBytes > 0 && int64(len(snap.RawHTML)) > s.maxBytes {
		return fmt.Errorf("page size %d exceeds max %d", len(snap.RawHTML), s.maxBytes)
	}

	base := filepath.Join(s.root, safeBasename(snap.URL))
	if err := os.WriteFile(base+".html", []byte(snap.RawHTML), 0o600); err != nil {
		return fmt.Errorf("writing HTML to %s.html: %w", base, err)
	}

	payload, err := json.MarshalIndent(pageMeta{
		URL:        snap.URL,
		Title:      snap.Title,
		StatusCode: snap.StatusCode,
		LinkCount:  len(snap.Links),
		SavedAt:    time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	if err := os.WriteFile(base+".json", payload, 0o600); err != nil {
		return fmt.Errorf("write metadata %s.json: %w", base, err)
	}

	s.logger.Debug("page archived", zap.String("url", snap.URL), zap.String("path", base+".html"))
	return nil
}

func safeBasename(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return hashURL(raw)
	}
	host := invalidFilenameChars.ReplaceAllString(u.Hostname(), "_")
	p := strings.Trim(u.EscapedPath(), "/")
	if p == "" {
		p = "root"
	}
	p = invalidFilenameChars.ReplaceAllString(p, "_")
	return fmt.Sprintf("%s_%s_%s", host, p, hashURL(raw)[:16])
}

func hashURL(raw string) string {
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
