package poster

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func testImage(t *testing.T) image.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 96))
	for x := 0; x < 64; x++ {
		for y := 0; y < 96; y++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 2), 128, 255})
		}
	}
	return img
}

func TestCompressJPEGInput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(t), &jpeg.Options{Quality: 95}))

	p := NewProcessor(60)
	out, mime, err := p.Compress(buf.Bytes(), "image/jpeg")
	require.NoError(t, err)
	require.NotEmpty(t, out)
	require.Contains(t, []string{"image/webp", "image/jpeg"}, mime)
}

func TestCompressPNGInput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(t)))

	p := NewProcessor(60)
	out, mime, err := p.Compress(buf.Bytes(), "image/png")
	require.NoError(t, err)
	require.NotEmpty(t, out)
	require.NotEqual(t, "image/png", mime)
}

// Unknown content types fall back to sniffing the bytes.
func TestCompressUnknownMimeSniffs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(t)))

	p := NewProcessor(60)
	out, _, err := p.Compress(buf.Bytes(), "application/octet-stream")
	require.NoError(t, err)
	require.NotEmpty(t, out)
}

func TestCompressGarbageFails(t *testing.T) {
	p := NewProcessor(60)
	_, _, err := p.Compress([]byte("definitely not an image"), "image/jpeg")
	require.Error(t, err)
}

func TestQualityClamped(t *testing.T) {
	require.Equal(t, 1, NewProcessor(-10).Quality())
	require.Equal(t, 100, NewProcessor(400).Quality())
	require.Equal(t, 60, NewProcessor(60).Quality())
}

func TestSetQualityRetunes(t *testing.T) {
	p := NewProcessor(60)
	p.SetQuality(85)
	require.Equal(t, 85, p.Quality())
	p.SetQuality(0)
	require.Equal(t, 1, p.Quality())
}
