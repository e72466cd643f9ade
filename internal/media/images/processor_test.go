package images

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookhavenapp/bookhaven-server/internal/errors"
)

func newTestProcessor(t *testing.T) (*Processor, *Layout) {
	t.Helper()
	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return NewProcessor(layout, logger), layout
}

// encodePNG produces a valid PNG of the given size for tests.
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessor_Process(t *testing.T) {
	p, layout := newTestProcessor(t)

	data := encodePNG(t, 600, 900)
	result, err := p.Process(data, "cover.PNG", "book_1", "fantasy", "le_guin")
	require.NoError(t, err)

	// Dimensions of the original are captured.
	assert.Equal(t, 600, result.Width)
	assert.Equal(t, 900, result.Height)

	// Exactly three files exist at the returned locators.
	for _, locator := range []string{result.OriginalPath, result.ThumbnailPath, result.MediumPath} {
		_, err := os.Stat(layout.Abs(locator))
		assert.NoError(t, err, "file should exist at %s", locator)
	}

	// The original is preserved verbatim.
	original, err := os.ReadFile(layout.Abs(result.OriginalPath))
	require.NoError(t, err)
	assert.Equal(t, data, original)

	// Locators follow the directory layout and filename scheme.
	assert.True(t, strings.HasPrefix(result.OriginalPath, "originals/by-book/book_1/"))
	assert.True(t, strings.HasPrefix(result.ThumbnailPath, "thumbnails/"))
	assert.True(t, strings.HasPrefix(result.MediumPath, "medium/"))
	assert.True(t, strings.HasSuffix(result.OriginalPath, "_original.png"))
	assert.True(t, strings.HasSuffix(result.ThumbnailPath, "_thumb.png"))
	assert.True(t, strings.HasSuffix(result.MediumPath, "_medium.png"))

	// BlurHash is computed for valid images.
	assert.NotEmpty(t, result.BlurHash)
}

func TestProcessor_DerivativeDimensions(t *testing.T) {
	p, layout := newTestProcessor(t)

	// A wide source must be letterboxed, not cropped: the derivative
	// canvas is always the exact bounding box size.
	result, err := p.Process(encodePNG(t, 1000, 200), "wide.png", "book_2", TokenUncategorized, TokenUnknownAuthor)
	require.NoError(t, err)

	thumbFile, err := os.Open(layout.Abs(result.ThumbnailPath))
	require.NoError(t, err)
	defer thumbFile.Close()

	cfg, _, err := image.DecodeConfig(thumbFile)
	require.NoError(t, err)
	assert.Equal(t, ThumbnailWidth, cfg.Width)
	assert.Equal(t, ThumbnailHeight, cfg.Height)

	mediumFile, err := os.Open(layout.Abs(result.MediumPath))
	require.NoError(t, err)
	defer mediumFile.Close()

	cfg, _, err = image.DecodeConfig(mediumFile)
	require.NoError(t, err)
	assert.Equal(t, MediumWidth, cfg.Width)
	assert.Equal(t, MediumHeight, cfg.Height)
}

func TestProcessor_CorruptBytes(t *testing.T) {
	p, layout := newTestProcessor(t)

	_, err := p.Process([]byte("definitely not an image"), "broken.jpg", "book_3", "fiction", "nobody")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrImageProcessing))

	// No files may be written for a rejected upload.
	entries, readErr := os.ReadDir(layout.Base())
	require.NoError(t, readErr)
	assert.Empty(t, entries, "corrupt upload must not create any directories or files")
}

func TestDerivativeExt(t *testing.T) {
	assert.Equal(t, ".jpg", derivativeExt(".webp"))
	assert.Equal(t, ".jpg", derivativeExt(".gif"))
	assert.Equal(t, ".png", derivativeExt(".png"))
	assert.Equal(t, ".jpg", derivativeExt(".jpg"))
}

func TestProcessor_GIFDerivativesEncodeAsJPEG(t *testing.T) {
	p, layout := newTestProcessor(t)

	img := image.NewPaletted(image.Rect(0, 0, 60, 90), []color.Color{
		color.RGBA{R: 255, G: 255, B: 255, A: 255},
		color.RGBA{R: 40, G: 90, B: 160, A: 255},
	})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))

	result, err := p.Process(buf.Bytes(), "animated-cover.gif", "book_4", "comics", "nobody")
	require.NoError(t, err)

	// The original keeps its extension; derivatives re-encode as JPEG.
	assert.True(t, strings.HasSuffix(result.OriginalPath, "_original.gif"))
	assert.True(t, strings.HasSuffix(result.ThumbnailPath, "_thumb.jpg"))
	assert.True(t, strings.HasSuffix(result.MediumPath, "_medium.jpg"))

	thumbFile, err := os.Open(layout.Abs(result.ThumbnailPath))
	require.NoError(t, err)
	defer thumbFile.Close()

	_, format, err := image.DecodeConfig(thumbFile)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}
