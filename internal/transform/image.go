package transform

import (
	"bytes"
	"context"
	"fmt"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"
)

// DefaultJPEGQuality is the re-encode quality for JPEG files.
const DefaultJPEGQuality = 85

var _ ImageOptimizer = (*RasterOptimizer)(nil)

// RasterOptimizer re-encodes raster images and minifies SVG. For raster
// formats the smaller of the original and the re-encoded file is kept, so
// optimization never grows a file. Other formats, including fonts, pass
// through unchanged.
type RasterOptimizer struct {
	svg         Minifier
	jpegQuality int
}

// NewImageOptimizer returns an optimizer that minifies SVG with svg.
func NewImageOptimizer(svg Minifier) *RasterOptimizer {
	return &RasterOptimizer{svg: svg, jpegQuality: DefaultJPEGQuality}
}

func (o *RasterOptimizer) Optimize(_ context.Context, in Input) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(in.Path)) {
	case ".png":
		out, err = o.png(in.Content)
	case ".jpg", ".jpeg":
		out, err = o.jpeg(in.Content)
	case ".gif":
		out, err = o.gif(in.Content)
	case ".svg":
		if o.svg == nil {
			return in.Content, nil
		}
		return o.svg.Minify(MediaSVG, in.Content)
	default:
		return in.Content, nil
	}
	if err != nil {
		return nil, err
	}
	if len(out) >= len(in.Content) {
		return in.Content, nil
	}
	return out, nil
}

func (o *RasterOptimizer) png(src []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decoding png: %w", err)
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

func (o *RasterOptimizer) jpeg(src []byte) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decoding jpeg: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: o.jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (o *RasterOptimizer) gif(src []byte) ([]byte, error) {
	g, err := gif.DecodeAll(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decoding gif: %w", err)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, fmt.Errorf("encoding gif: %w", err)
	}
	return buf.Bytes(), nil
}
