package splitter

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/yuanying/splitepub/internal/workspace"
)

const coverJPEGQuality = 90

// prepareCover writes the cover at src into the slot at dst. A cover whose
// format already matches the slot and fits maxHeight is copied byte for
// byte; anything else is decoded, scaled down to maxHeight and re-encoded
// in the slot's format.
func prepareCover(src, dst string, maxHeight int) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return missingOr(err, src)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("cover %s is not a supported image: %w", src, err)
	}

	slotFormat, err := imaging.FormatFromFilename(dst)
	if err != nil {
		return fmt.Errorf("cover slot %s: %w", filepath.Base(dst), err)
	}

	if err := workspace.MkdirAll(filepath.Dir(dst)); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}

	tooTall := maxHeight > 0 && cfg.Height > maxHeight
	if sameFormat(format, slotFormat) && !tooTall {
		return os.WriteFile(dst, data, 0o644)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode cover %s: %w", src, err)
	}
	if tooTall {
		img = imaging.Resize(img, 0, maxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, slotFormat, imaging.JPEGQuality(coverJPEGQuality)); err != nil {
		return fmt.Errorf("encode cover %s: %w", src, err)
	}
	return os.WriteFile(dst, buf.Bytes(), 0o644)
}

// sameFormat compares an image.DecodeConfig format name with an imaging format.
func sameFormat(decoded string, target imaging.Format) bool {
	return strings.EqualFold(decoded, target.String())
}
