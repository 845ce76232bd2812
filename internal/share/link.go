// Package share turns quiz identifiers into shareable links and QR share cards.
package share

import (
	"fmt"
	"net/url"
	"path"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	// QueryParam carries the quiz identifier in a shareable link.
	QueryParam = "testId"
	// FolderCards is the object-store prefix for share-card images.
	FolderCards = "share"

	defaultQRSize = 256
)

// Links builds shareable references from a base page URL.
type Links struct {
	base   *url.URL
	qrSize int
}

// NewLinks parses baseURL; the quiz id is added as the testId query parameter.
func NewLinks(baseURL string, qrSize int) (*Links, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse share base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("share base url %q must be absolute", baseURL)
	}
	if qrSize <= 0 {
		qrSize = defaultQRSize
	}
	return &Links{base: u, qrSize: qrSize}, nil
}

// URL returns the shareable link for a quiz id.
func (l *Links) URL(quizID string) string {
	u := *l.base
	q := u.Query()
	q.Set(QueryParam, quizID)
	u.RawQuery = q.Encode()
	return u.String()
}

// QuizIDFromURL extracts the quiz id from a shareable link; ok is false if absent.
func QuizIDFromURL(link string) (id string, ok bool) {
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	id = u.Query().Get(QueryParam)
	return id, id != ""
}

// QRCode renders the quiz's shareable link as a PNG.
func (l *Links) QRCode(quizID string) ([]byte, error) {
	png, err := qrcode.Encode(l.URL(quizID), qrcode.Medium, l.qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// CardKey returns the object key for a quiz's share card: share/{quiz_id}.png.
func CardKey(quizID string) string {
	return path.Join(FolderCards, path.Base(quizID)+".png")
}
