package pdfops

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdfbinder/backend/internal/models"
)

// Builder is the stateful merge service: Append stages documents in order,
// Finalize produces the single merged PDF. A Builder is single-use.
type Builder struct {
	profile models.MergeProfile
	conf    *model.Configuration
	docs    []io.ReadSeeker
}

// NewBuilder begins a merge with the given output profile.
func NewBuilder(profile models.MergeProfile) *Builder {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Builder{profile: profile, conf: conf}
}

// Append validates one document and stages it at the end of the merge order.
// A failed Append leaves the builder as it was; the error names the document
// so the caller can attribute the failure.
func (b *Builder) Append(name string, data []byte) error {
	rs := bytes.NewReader(data)
	if err := api.Validate(rs, b.conf); err != nil {
		return fmt.Errorf("validating %s: %w", name, err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return err
	}

	b.docs = append(b.docs, rs)
	return nil
}

// Finalize merges the staged documents in append order into one PDF. With
// Optimize set in the profile, a pdfcpu optimization pass runs over the
// output; an optimization failure falls back to the unoptimized merge.
func (b *Builder) Finalize() ([]byte, error) {
	if len(b.docs) == 0 {
		return nil, errors.New("nothing to merge")
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(b.docs, &buf, b.profile.DividerPage, b.conf); err != nil {
		return nil, fmt.Errorf("merging documents: %w", err)
	}

	if b.profile.Optimize {
		var opt bytes.Buffer
		if err := api.Optimize(bytes.NewReader(buf.Bytes()), &opt, b.conf); err != nil {
			fmt.Printf("[Builder] Warning: optimize pass failed, keeping unoptimized output: %v\n", err)
			return buf.Bytes(), nil
		}
		return opt.Bytes(), nil
	}

	return buf.Bytes(), nil
}
