package convert

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageConverter re-encodes any decodable image into format to.
func ImageConverter(to string) Converter {
	to = NormalizeFormat(to)
	return ConverterFunc(func(ctx context.Context, in, out string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		src, err := os.Open(in)
		if err != nil {
			return err
		}
		defer src.Close()

		img, _, err := image.Decode(src)
		if err != nil {
			return fmt.Errorf("decode image: %w", err)
		}

		dst, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := encodeImage(dst, img, to); err != nil {
			_ = dst.Close()
			return fmt.Errorf("encode %s: %w", to, err)
		}
		return dst.Close()
	})
}

func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "jpg":
		return jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: 90})
	case "gif":
		return gif.Encode(w, img, nil)
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unknown image format %q", format)
	}
}

// flatten draws img over a white background; JPEG has no alpha channel.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(rgba, b, img, b.Min, draw.Over)
	return rgba
}
