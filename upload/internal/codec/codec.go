// Package codec decodes self-describing data-URL payloads into sized binary
// items. Decoding is deterministic and performs no I/O; it is the only place
// the pipeline touches the encoded form of an image.
package codec

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/emergent-lab/flow-extension/upload/errors"
)

const (
	scheme       = "data:"
	base64Marker = ";base64,"

	// genericMIME is the declared type that carries no useful information;
	// the payload is sniffed instead.
	genericMIME = "application/octet-stream"
)

// Item is one decoded payload. It is immutable once decoded and owned
// exclusively by the upload processing it.
type Item struct {
	// Data is the raw payload
	Data []byte

	// MIME is the media type, declared by the prefix or detected from the bytes
	MIME string
}

// Size returns the payload size in bytes.
func (i Item) Size() int64 {
	return int64(len(i.Data))
}

// Decode parses a data URL of the form "data:[mediatype];base64,<body>"
// into an Item. It fails with ErrMalformedInput when the prefix cannot be
// parsed, the body is not valid base64, or the payload is empty.
//
// When the prefix declares no media type (or only the generic octet-stream
// type), the type is detected from the decoded bytes.
func Decode(encoded string) (Item, error) {
	if !strings.HasPrefix(encoded, scheme) {
		return Item{}, errors.NewError("decode", errors.ErrMalformedInput).
			WithMessage("missing data: scheme")
	}

	marker := strings.Index(encoded, base64Marker)
	if marker < 0 {
		return Item{}, errors.NewError("decode", errors.ErrMalformedInput).
			WithMessage("missing base64 marker")
	}

	declared := encoded[len(scheme):marker]
	// Drop prefix parameters such as charset; only the media type matters.
	if semi := strings.Index(declared, ";"); semi >= 0 {
		declared = declared[:semi]
	}

	body := encoded[marker+len(base64Marker):]
	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return Item{}, errors.NewError("decode", errors.ErrMalformedInput).
			WithMessage("invalid base64 body")
	}

	if len(data) == 0 {
		return Item{}, errors.NewError("decode", errors.ErrMalformedInput).
			WithMessage("empty payload")
	}

	mime := declared
	if mime == "" || mime == genericMIME {
		mime = mimetype.Detect(data).String()
	}

	return Item{Data: data, MIME: mime}, nil
}
