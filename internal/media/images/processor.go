package images

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/bookhavenapp/bookhaven-server/internal/errors"
)

// Derivative sizes and encoding quality. Each derivative fits the source
// into its bounding box without cropping, padding as needed.
const (
	ThumbnailWidth   = 200
	ThumbnailHeight  = 300
	ThumbnailQuality = 80

	MediumWidth   = 500
	MediumHeight  = 750
	MediumQuality = 85

	// The large size is declared but the ingestion path does not produce
	// it yet. Clients treat the medium derivative as the largest variant.
	LargeWidth   = 1000
	LargeHeight  = 1500
	LargeQuality = 90
)

// Result describes a completed ingestion: the three relative locators
// plus the dimensions of the original image.
type Result struct {
	OriginalPath  string
	ThumbnailPath string
	MediumPath    string
	Width         int
	Height        int
	BlurHash      string
}

// Processor turns uploaded image bytes into a preserved original plus
// thumbnail and medium derivatives on disk.
type Processor struct {
	layout *Layout
	logger *slog.Logger
}

// NewProcessor creates a new Processor writing through the given layout.
func NewProcessor(layout *Layout, logger *slog.Logger) *Processor {
	return &Processor{
		layout: layout,
		logger: logger,
	}
}

// Process ingests one upload. Steps are strictly sequential: decode the
// source (dimensions are persisted even when no resizing is needed),
// resolve target directories, write the original verbatim, then produce
// the two derivatives.
//
// Returns an IMAGE_PROCESSING error when the bytes are not decodable and
// a STORAGE error when any directory or file write fails. Files written
// before a storage failure are not rolled back.
func (p *Processor) Process(data []byte, originalFilename, bookToken, categoryToken, authorToken string) (*Result, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeImageProcessing, "decode image")
	}

	dirs, err := p.layout.EnsureDirs(bookToken, categoryToken, authorToken)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorage, "create upload directories")
	}

	baseName := NewBaseName()
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if ext == "" {
		ext = "." + format
	}

	bounds := src.Bounds()
	result := &Result{
		OriginalPath:  path.Join(filepath.ToSlash(dirs.ByBook), FileName(baseName, RoleOriginal, ext)),
		ThumbnailPath: path.Join(dirs.Thumbnails, FileName(baseName, RoleThumbnail, derivativeExt(ext))),
		MediumPath:    path.Join(dirs.Medium, FileName(baseName, RoleMedium, derivativeExt(ext))),
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
	}

	// Preserve the original bytes verbatim, no re-encoding.
	if err := os.WriteFile(p.layout.Abs(result.OriginalPath), data, 0o644); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorage, "write original")
	}

	if err := p.writeDerivative(src, result.ThumbnailPath, ThumbnailWidth, ThumbnailHeight, ThumbnailQuality); err != nil {
		return nil, err
	}
	if err := p.writeDerivative(src, result.MediumPath, MediumWidth, MediumHeight, MediumQuality); err != nil {
		return nil, err
	}

	// BlurHash is a nice-to-have placeholder; failure is logged, not fatal.
	if hash, err := computeBlurHash(src); err != nil {
		p.logger.Warn("failed to compute blurhash",
			"filename", originalFilename,
			"error", err,
		)
	} else {
		result.BlurHash = hash
	}

	p.logger.Debug("processed image upload",
		"original", result.OriginalPath,
		"width", result.Width,
		"height", result.Height,
		"size", len(data),
	)

	return result, nil
}

// writeDerivative fits src into a width x height box without cropping,
// pads the remainder with a white background, and encodes at the given
// JPEG quality (the quality option is ignored for lossless formats).
func (p *Processor) writeDerivative(src image.Image, locator string, width, height, quality int) error {
	fitted := imaging.Fit(src, width, height, imaging.Lanczos)

	background := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if hasAlpha(locator) {
		// Transparent white keeps letterboxing invisible for formats
		// that carry an alpha channel.
		background = color.NRGBA{R: 255, G: 255, B: 255, A: 0}
	}

	canvas := imaging.New(width, height, background)
	canvas = imaging.PasteCenter(canvas, fitted)

	if err := imaging.Save(canvas, p.layout.Abs(locator), imaging.JPEGQuality(quality)); err != nil {
		return errors.Wrapf(err, errors.CodeStorage, "write derivative %s", locator)
	}
	return nil
}

// derivativeExt maps the original extension to the derivative encoding.
// WebP has no encoder side and GIF would quantize to a palette with the
// quality setting ignored, so both fall back to JPEG; the remaining
// accepted raster formats round-trip.
func derivativeExt(ext string) string {
	switch ext {
	case ".webp", ".gif":
		return ".jpg"
	default:
		return ext
	}
}

// hasAlpha reports whether the target format supports transparency.
func hasAlpha(locator string) bool {
	return strings.ToLower(filepath.Ext(locator)) == ".png"
}
