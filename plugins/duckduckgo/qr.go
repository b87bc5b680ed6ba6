package duckduckgo

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ddgplugin/storage"
)

const qrAnswerType = "qrcode"

var (
	ErrNoQRImage    = errors.New("qr answer has no <img> element")
	ErrBadQRPayload = errors.New("qr image payload is not valid base64")
)

// QRImage holds the raw bytes of the QR code picture
type QRImage struct {
	Bytes []byte
}

// Decode parses the image bytes
func (q *QRImage) Decode() (image.Image, error) {
	if q == nil || len(q.Bytes) == 0 {
		return nil, fmt.Errorf("qr image is empty")
	}
	img, _, err := storage.DecodeImage(q.Bytes)
	return img, err
}

// ExtractQR pulls the data URI image out of a qrcode answer. Responses that
// are not QR answers give nil, nil.
func ExtractQR(api *APIResult) (*QRImage, error) {
	if api == nil || api.AnswerType.String() != qrAnswerType || strings.TrimSpace(api.Answer.String()) == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(api.Answer.String()))
	if err != nil {
		return nil, fmt.Errorf("parse qr answer: %w", err)
	}
	img := doc.Find("img").First()
	if img.Length() == 0 {
		return nil, ErrNoQRImage
	}

	attrs := img.Nodes[0].Attr
	if len(attrs) == 0 {
		return &QRImage{}, nil
	}

	// Everything up to the first comma is the data URI header
	payload := attrs[0].Val
	if i := strings.IndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadQRPayload, err)
	}
	return &QRImage{Bytes: data}, nil
}
