package capture

import (
	"bytes"
	"image"
	"image/jpeg"
)

// EncodeJPEG encodes an image as JPEG with the specified quality (1-100).
// Frame.Data is always produced this way — lossy, ≤100KB typical at the
// default quality of 80.
func EncodeJPEG(img *image.RGBA, quality int) ([]byte, error) {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
