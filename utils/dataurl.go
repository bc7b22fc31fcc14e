package utils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"
)

// MaxImageBytes caps decoded recipe images.
const MaxImageBytes = 1_000_000

var ErrInvalidDataURI = errors.New("invalid base64 image")

type DataURI struct {
	ContentType string
	Data        []byte
}

// ParseDataURI decodes "data:<mime>;base64,<data>" and enforces MaxImageBytes.
func ParseDataURI(s string) (*DataURI, error) {
	meta, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return nil, ErrInvalidDataURI
	}
	contentType := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: %q is not an image type", ErrInvalidDataURI, contentType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image exceeds the %d byte limit", MaxImageBytes)
	}
	return &DataURI{ContentType: contentType, Data: data}, nil
}

// Extension picks a file extension for the content type.
func (d *DataURI) Extension() string {
	switch d.ContentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	}
	if exts, _ := mime.ExtensionsByType(d.ContentType); len(exts) > 0 {
		return exts[0]
	}
	if _, sub, ok := strings.Cut(d.ContentType, "/"); ok {
		return "." + sub
	}
	return ""
}

// String re-encodes the image as a data URI.
func (d *DataURI) String() string {
	return "data:" + d.ContentType + ";base64," + base64.StdEncoding.EncodeToString(d.Data)
}
