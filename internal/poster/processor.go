package poster

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"sync/atomic"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Processor re-encodes poster images at a reduced quality before they are
// stored. WebP is preferred for size; JPEG is the fallback when WebP
// encoding fails. The quality can be retuned while compressions run.
type Processor struct {
	quality atomic.Int32
}

func NewProcessor(quality int) *Processor {
	p := &Processor{}
	p.SetQuality(quality)
	return p
}

// SetQuality clamps and applies a new encode quality (1-100).
func (p *Processor) SetQuality(quality int) {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	p.quality.Store(int32(quality))
}

// Quality reports the current encode quality.
func (p *Processor) Quality() int {
	return int(p.quality.Load())
}

// Compress decodes data according to its declared mime type and re-encodes
// it at the processor's quality level. Returns the encoded bytes and the
// resulting mime type. A decode failure propagates as an error.
func (p *Processor) Compress(data []byte, mimeType string) ([]byte, string, error) {
	img, err := decode(data, mimeType)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode poster: %w", err)
	}

	quality := p.Quality()
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err == nil {
		return buf.Bytes(), "image/webp", nil
	}

	buf.Reset()
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, "", fmt.Errorf("failed to encode poster: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

func decode(data []byte, mimeType string) (image.Image, error) {
	reader := bytes.NewReader(data)
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return jpeg.Decode(reader)
	case "image/png":
		return png.Decode(reader)
	case "image/webp":
		return webp.Decode(reader)
	default:
		// Unknown or missing content type; let imaging sniff it.
		return imaging.Decode(reader)
	}
}
