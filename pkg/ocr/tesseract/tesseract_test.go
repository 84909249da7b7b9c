//go:build gosseract

package tesseract_test

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/inf-monkeys/monkey-tools-text/pkg/ocr"
	"github.com/inf-monkeys/monkey-tools-text/pkg/ocr/tesseract"
)

func TestEngine_Recognize(t *testing.T) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}

	img := image.NewRGBA(image.Rect(0, 0, 240, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: img, Src: image.Black, Face: basicfont.Face7x13, Dot: fixed.P(10, 50)}
	d.DrawString("Hello Monkeys")

	path := filepath.Join(t.TempDir(), "hello.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	res, err := tesseract.NewEngine().Recognize(context.Background(), ocr.Input{Path: path, Languages: []string{"eng"}})
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(res.Text), "hello")
}

func TestEngine_Registered(t *testing.T) {
	assert.Contains(t, ocr.Engines(), tesseract.EngineName)
}
