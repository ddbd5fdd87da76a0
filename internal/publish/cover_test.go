package publish

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noisyImage produces an image that compresses poorly, forcing the
// shrink cascade to work for its result.
func noisyImage(size int) image.Image {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 0xff,
			})
		}
	}
	return img
}

func TestFitCoverImageSmallImageUnchangedDimensions(t *testing.T) {
	img := solidImage(100, 100, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff})

	data, err := FitCoverImage(img)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.LessOrEqual(t, base64Len(data), coverTargetBytes)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx(), "A small image keeps its original dimensions")
}

func TestFitCoverImageShrinksLargeImage(t *testing.T) {
	data, err := FitCoverImage(noisyImage(1200))
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.LessOrEqual(t, base64Len(data), coverMaxBytes,
		"Result must fit the provider's upload ceiling")

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.LessOrEqual(t, decoded.Bounds().Dx(), 1200)
}

func TestFitCoverImageAlwaysProducesJPEG(t *testing.T) {
	data, err := FitCoverImage(noisyImage(64))
	require.NoError(t, err)

	_, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestLoadCoverImage(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "cover.png")
	f, err := os.Create(pngPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solidImage(10, 10, color.RGBA{A: 0xff})))
	require.NoError(t, f.Close())

	img, err := LoadCoverImage(pngPath)
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())

	_, err = LoadCoverImage(filepath.Join(dir, "missing.png"))
	require.Error(t, err)

	badPath := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(badPath, []byte("not an image"), 0o644))
	_, err = LoadCoverImage(badPath)
	require.Error(t, err)
}
