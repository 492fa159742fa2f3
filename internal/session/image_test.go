package session

import (
	"bytes"
	"testing"
)

func TestValidateImageData(t *testing.T) {
	png := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 16)...)
	jpeg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 16)...)
	bmp := append([]byte{0x42, 0x4D, 0x36, 0x00}, make([]byte, 16)...)

	for name, data := range map[string][]byte{"png": png, "jpeg": jpeg, "bmp": bmp} {
		t.Run(name, func(t *testing.T) {
			out, err := ValidateImageData(data)
			if err != nil {
				t.Fatalf("valid %s rejected: %v", name, err)
			}
			if !bytes.Equal(out, data) {
				t.Fatal("payload altered by validation")
			}
		})
	}

	bad := map[string][]byte{
		"empty":      nil,
		"too_small":  {0x89, 0x50, 0x4E},
		"gif":        append([]byte("GIF89a"), make([]byte, 16)...),
		"text":       []byte("not an image at all"),
		"zero_bytes": make([]byte, 16),
	}
	for name, data := range bad {
		t.Run(name, func(t *testing.T) {
			if _, err := ValidateImageData(data); CodeOf(err) != CodeImageProcessingFailed {
				t.Fatalf("got %v, want image_processing_failed", err)
			}
		})
	}
}
