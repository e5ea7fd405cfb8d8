// Package share builds the scannable download link. QR rendering itself is
// delegated to an external image service; the booth only encodes the URL.
package share

import (
	"net/url"
	"strings"
)

const defaultQRService = "https://api.qrserver.com/v1/create-qr-code/"

// QRBuilder renders share URLs into QR image URLs.
type QRBuilder struct {
	service string
	size    string
}

// NewQRBuilder uses the public qrserver endpoint unless another service URL
// is supplied.
func NewQRBuilder(service string) *QRBuilder {
	service = strings.TrimSpace(service)
	if service == "" {
		service = defaultQRService
	}
	return &QRBuilder{service: service, size: "300x300"}
}

// ImageURL returns the QR image URL for a share link, or empty when there is
// nothing to share (upload failed or archive unconfigured).
func (b *QRBuilder) ImageURL(shareURL string) string {
	if strings.TrimSpace(shareURL) == "" {
		return ""
	}
	return b.service + "?size=" + b.size + "&data=" + url.QueryEscape(shareURL)
}
