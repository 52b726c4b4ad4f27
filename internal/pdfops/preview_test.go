package pdfops

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
)

func TestRenderPreviewProducesPNG(t *testing.T) {
	data := renderPreview("doc.pdf", 3, "Quarterly report with several lines of opening text", defaultPageAspect)
	if len(data) == 0 {
		t.Fatalf("Expected PNG bytes")
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Preview is not decodable PNG: %v", err)
	}

	b := img.Bounds()
	if b.Dx() != previewWidth {
		t.Errorf("Width = %d, want %d", b.Dx(), previewWidth)
	}
	if b.Dy() < previewMinHeight || b.Dy() > previewMaxHeight {
		t.Errorf("Height %d outside [%d, %d]", b.Dy(), previewMinHeight, previewMaxHeight)
	}
}

func TestRenderPreviewClampsHeight(t *testing.T) {
	// A very tall page aspect must clamp to the max card height
	data := renderPreview("tall.pdf", 1, "", 10.0)
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dy() != previewMaxHeight {
		t.Errorf("Height = %d, want %d", img.Bounds().Dy(), previewMaxHeight)
	}

	// A wide landscape page clamps to the min
	data = renderPreview("wide.pdf", 1, "", 0.2)
	img, err = png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dy() != previewMinHeight {
		t.Errorf("Height = %d, want %d", img.Bounds().Dy(), previewMinHeight)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		maxChars int
		maxLines int
		want     []string
	}{
		{"empty", "", 10, 3, nil},
		{"single word", "hello", 10, 3, []string{"hello"}},
		{"wraps at width", "one two three four", 9, 5, []string{"one two", "three", "four"}},
		{"collapses whitespace", "a \t b\n\nc", 10, 5, []string{"a b c"}},
		{"truncates lines", "a b c d e f", 1, 3, []string{"a", "b", "c"}},
		{"hard splits long word", "abcdefghij", 4, 5, []string{"abcd", "efgh", "ij"}},
		{"zero width", "hello", 0, 3, nil},
		{"zero lines", "hello", 10, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.in, tt.maxChars, tt.maxLines)
			if len(got) != len(tt.want) {
				t.Fatalf("wrapText = %q, want %q", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("wrapText = %q, want %q", got, tt.want)
				}
				if len(got[i]) > tt.maxChars {
					t.Errorf("Line %q exceeds %d chars", got[i], tt.maxChars)
				}
				if strings.TrimSpace(got[i]) != got[i] {
					t.Errorf("Line %q has edge whitespace", got[i])
				}
			}
		})
	}
}
