package domain

import (
	"encoding/base64"
	"strings"
)

const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
)

// ImageBlob is one immutable image crossing a pipeline stage boundary: raw
// decoded bytes plus the MIME type they encode. Each stage produces a fresh
// blob rather than mutating its input.
type ImageBlob struct {
	MIME string
	Data []byte
}

// ParseDataURI decodes a `data:<mime>;base64,<payload>` string. The MIME type
// is taken from the prefix: image/png when it matches, image/jpeg otherwise,
// mirroring how the booth camera encodes captures.
func ParseDataURI(s string) (ImageBlob, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return ImageBlob{}, Errorf(CodeInvalidInput, "source image is not a data URI")
	}
	idx := strings.Index(s, ",")
	if idx < 0 || idx == len(s)-1 {
		return ImageBlob{}, Errorf(CodeInvalidInput, "source image data URI has no payload")
	}

	mime := MIMEJPEG
	if strings.HasPrefix(s, "data:image/png") {
		mime = MIMEPNG
	}

	data, err := base64.StdEncoding.DecodeString(s[idx+1:])
	if err != nil {
		return ImageBlob{}, WrapError(CodeInvalidInput, "source image payload is not valid base64", err)
	}
	if len(data) == 0 {
		return ImageBlob{}, Errorf(CodeInvalidInput, "source image payload is empty")
	}
	return ImageBlob{MIME: mime, Data: data}, nil
}

// DataURI re-encodes the blob into the canonical data URI form used at every
// stage boundary.
func (b ImageBlob) DataURI() string {
	return "data:" + b.MIME + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}

// IsZero reports whether the blob carries no pixel data.
func (b ImageBlob) IsZero() bool {
	return len(b.Data) == 0
}
