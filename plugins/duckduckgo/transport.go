package duckduckgo

import (
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	kflate "github.com/klauspost/compress/flate"
	kgzip "github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const acceptEncoding = "gzip, deflate, br, zstd"

// compressedTransport advertises every encoding the API may answer with
// and hands the caller a decoded body.
type compressedTransport struct {
	base http.RoundTripper
}

// newCompressedTransport wraps base, or a clone of the default transport
// when base is nil. Stdlib compression is switched off so bodies are only
// decoded once.
func newCompressedTransport(base *http.Transport) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}
	base.DisableCompression = true
	return &compressedTransport{base: base}
}

func (t *compressedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	var body io.ReadCloser
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "":
		return resp, nil
	case "gzip":
		r, err := kgzip.NewReader(resp.Body)
		if err != nil {
			return resp, nil
		}
		body = &decodedBody{Reader: r, raw: resp.Body}
	case "deflate":
		body = &decodedBody{Reader: kflate.NewReader(resp.Body), raw: resp.Body}
	case "br":
		body = &decodedBody{Reader: brotli.NewReader(resp.Body), raw: resp.Body}
	case "zstd":
		r, err := zstd.NewReader(resp.Body)
		if err != nil {
			return resp, nil
		}
		body = &zstdBody{decoder: r, raw: resp.Body}
	default:
		return resp, nil
	}

	resp.Body = body
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

// decodedBody closes both the decoder (when it is a Closer) and the wire body
type decodedBody struct {
	io.Reader
	raw io.Closer
}

func (d *decodedBody) Close() error {
	if c, ok := d.Reader.(io.Closer); ok {
		_ = c.Close()
	}
	return d.raw.Close()
}

type zstdBody struct {
	decoder *zstd.Decoder
	raw     io.Closer
}

func (z *zstdBody) Read(p []byte) (int, error) { return z.decoder.Read(p) }

func (z *zstdBody) Close() error {
	z.decoder.Close()
	return z.raw.Close()
}
