package contract

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// deflateHeaderLen is the number of zlib header bytes the service prefixes
// to its deflate stream. The raw deflate reader does not understand them.
const deflateHeaderLen = 2

// CompressedResponse is the echo of a request made to a compression endpoint.
type CompressedResponse struct {
	IsGZipped  bool
	IsDeflated bool
	Headers    map[string]string
	Method     string
}

// ParseCompressedResponse decodes an already decompressed compression endpoint response.
func ParseCompressedResponse(json string) (*CompressedResponse, error) {
	doc, err := parseDocument(json)
	if err != nil {
		return nil, err
	}
	return &CompressedResponse{
		IsGZipped:  doc.Bool("gzipped"),
		IsDeflated: doc.Bool("deflated"),
		Headers:    doc.StringMap("headers"),
		Method:     doc.String("method"),
	}, nil
}

// DecodeGzip decompresses a gzip member starting at the first byte of r and decodes the echoed request.
func DecodeGzip(r io.Reader) (*CompressedResponse, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read gzip stream: %w", err)
	}
	return ParseCompressedResponse(string(raw))
}

// DecodeDeflate skips the two zlib header bytes, inflates the remaining raw
// deflate stream and decodes the echoed request. The checksum trailer is ignored.
func DecodeDeflate(r io.Reader) (*CompressedResponse, error) {
	if _, err := io.CopyN(io.Discard, r, deflateHeaderLen); err != nil {
		return nil, fmt.Errorf("skip deflate header: %w", err)
	}

	fr := flate.NewReader(r)
	defer fr.Close()

	raw, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("read deflate stream: %w", err)
	}
	return ParseCompressedResponse(string(raw))
}
