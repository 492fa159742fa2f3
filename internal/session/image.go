package session

import "bytes"

// Magic signatures accepted by image validation. Sniffing only; pixel
// content is never decoded at this layer.
var (
	magicPNG  = []byte{0x89, 0x50, 0x4E, 0x47}
	magicJPEG = []byte{0xFF, 0xD8}
	magicBMP  = []byte{0x42, 0x4D}
)

// minImageBytes is the smallest payload worth sniffing.
const minImageBytes = 8

// ValidateImageData accepts a raw image payload when it carries a PNG, JPEG
// or BMP signature, returning the payload unchanged. Everything else is
// rejected as CodeImageProcessingFailed.
func ValidateImageData(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errf(CodeImageProcessingFailed, "image data is empty")
	}
	if len(data) < minImageBytes {
		return nil, errf(CodeImageProcessingFailed, "image data too small")
	}
	switch {
	case bytes.HasPrefix(data, magicPNG):
	case bytes.HasPrefix(data, magicJPEG):
	case bytes.HasPrefix(data, magicBMP):
	default:
		return nil, errf(CodeImageProcessingFailed, "unsupported image format")
	}
	return data, nil
}
