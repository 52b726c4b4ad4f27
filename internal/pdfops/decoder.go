// Package pdfops wraps the external PDF capabilities the rest of the backend
// consumes: decoding (validation, page count, excerpt, preview) and merging.
// PDF binary parsing and serialization are delegated to pdfcpu and
// ledongthuc/pdf; nothing here touches the file format directly.
package pdfops

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	ledong "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdfbinder/backend/internal/models"
)

// ErrUnsupportedType means the input was rejected before decoding because its
// name or MIME type does not identify a PDF.
var ErrUnsupportedType = errors.New("not a PDF document")

// ErrCorruptFile means the input claimed to be a PDF but could not be decoded.
var ErrCorruptFile = errors.New("file could not be read as a PDF")

// excerptLimit caps the first-page text snippet carried on a FileEntry.
const excerptLimit = 400

// PDFDecoder implements the decode service on top of pdfcpu (structure) and
// ledongthuc/pdf (text layer).
type PDFDecoder struct {
	conf  *model.Configuration
	cache *ResultCache
}

// NewDecoder creates a decoder. cache may be nil to disable result caching.
func NewDecoder(cache *ResultCache) *PDFDecoder {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFDecoder{conf: conf, cache: cache}
}

// Decode validates data as a PDF and derives page count, a first-page text
// excerpt and a preview thumbnail. Excerpt and preview are best-effort; a
// validation or page-count failure returns ErrCorruptFile and no result.
func (d *PDFDecoder) Decode(name string, data []byte) (*models.DecodeResult, error) {
	var key string
	if d.cache != nil {
		key = CacheKey(data)
		if res, ok := d.cache.Get(key); ok {
			return res, nil
		}
	}

	rs := bytes.NewReader(data)
	if err := api.Validate(rs, d.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	if _, err := rs.Seek(0, 0); err != nil {
		return nil, err
	}
	count, err := api.PageCount(rs, d.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}

	excerpt, aspect := firstPageText(data)
	res := &models.DecodeResult{
		PageCount: count,
		Excerpt:   excerpt,
		Preview:   renderPreview(name, count, excerpt, aspect),
	}

	if d.cache != nil {
		d.cache.Put(key, res)
	}
	return res, nil
}

// firstPageText extracts a whitespace-collapsed snippet of the first page's
// text layer plus the page aspect ratio (height/width). ledongthuc/pdf panics
// on some malformed inputs, so extraction is fenced; any failure yields an
// empty excerpt and the default aspect.
func firstPageText(data []byte) (excerpt string, aspect float64) {
	aspect = defaultPageAspect

	defer func() {
		if r := recover(); r != nil {
			excerpt = ""
		}
	}()

	r, err := ledong.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil || r.NumPage() == 0 {
		return
	}

	p := r.Page(1)
	if p.V.IsNull() {
		return
	}
	aspect = pageAspect(p)

	fonts := make(map[string]*ledong.Font)
	for _, name := range p.Fonts() {
		if _, ok := fonts[name]; !ok {
			f := p.Font(name)
			fonts[name] = &f
		}
	}

	text, err := p.GetPlainText(fonts)
	if err != nil {
		return
	}

	excerpt = strings.Join(strings.Fields(text), " ")
	if len(excerpt) > excerptLimit {
		excerpt = excerpt[:excerptLimit]
	}
	return
}

// pageAspect reads height/width from the page MediaBox, falling back to the
// default when the box is absent or degenerate.
func pageAspect(p ledong.Page) float64 {
	mb := p.V.Key("MediaBox")
	if mb.IsNull() || mb.Len() != 4 {
		return defaultPageAspect
	}
	w := mb.Index(2).Float64() - mb.Index(0).Float64()
	h := mb.Index(3).Float64() - mb.Index(1).Float64()
	if w <= 0 || h <= 0 {
		return defaultPageAspect
	}
	return h / w
}
