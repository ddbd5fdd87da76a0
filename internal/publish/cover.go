package publish

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	// Cover sources may be PNG; the provider requires JPEG uploads.
	_ "image/png"

	"golang.org/x/image/draw"
)

// The provider rejects cover uploads whose base64 payload exceeds 256 KB.
// The cascade aims below coverTargetBytes and accepts anything under
// coverMaxBytes after the final attempt.
const (
	coverTargetBytes = 180 * 1024
	coverMaxBytes    = 250 * 1024
)

// fitAttempt is one step of the shrink cascade. A zero size keeps the
// original dimensions.
type fitAttempt struct {
	size    int
	quality int
}

var fitAttempts = []fitAttempt{
	{0, 85},
	{450, 80},
	{300, 75},
}

const (
	placeholderSize    = 200
	placeholderQuality = 70
)

// LoadCoverImage reads and decodes a local cover image file.
func LoadCoverImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cover image %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding cover image %s: %w", path, err)
	}
	return img, nil
}

// FitCoverImage encodes img as JPEG within the provider's byte budget,
// shrinking dimensions and quality in fixed steps. If no attempt lands
// under the hard ceiling, a solid-color placeholder is substituted as a
// guaranteed fit.
func FitCoverImage(img image.Image) ([]byte, error) {
	var data []byte
	for _, attempt := range fitAttempts {
		candidate := img
		if attempt.size > 0 {
			candidate = scaleTo(img, attempt.size, attempt.size)
		}
		encoded, err := encodeJPEG(candidate, attempt.quality)
		if err != nil {
			return nil, err
		}
		data = encoded
		if base64Len(data) <= coverTargetBytes {
			return data, nil
		}
	}

	if base64Len(data) > coverMaxBytes {
		placeholder := solidImage(placeholderSize, placeholderSize, color.RGBA{R: 0x2e, G: 0x2e, B: 0x3a, A: 0xff})
		encoded, err := encodeJPEG(placeholder, placeholderQuality)
		if err != nil {
			return nil, err
		}
		return encoded, nil
	}
	return data, nil
}

// scaleTo resamples img to the given dimensions.
func scaleTo(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// base64Len is the size of data once base64 encoded, which is what the
// provider's limit applies to.
func base64Len(data []byte) int {
	return base64.StdEncoding.EncodedLen(len(data))
}

func solidImage(width, height int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
