package tagkit

import (
	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/tagmodel"
)

// File is the parsed form of one audio file: its detected container
// type, logical tag, and stream properties, plus enough engine state to
// re-render. Per spec.md §6's per-engine surface ("read(bytes) →
// Result<file, error>", "render(original_bytes) → bytes", accessors for
// tag/audio_properties/format), generalized into one facade type that
// dispatches to whichever format package actually parsed it.
type File struct {
	Type  tagmodel.FileType
	Tag   *tagmodel.Tag
	Props tagmodel.AudioProperties

	render func(cfg Config) ([]byte, error)
}

// CanRender reports whether this file's container supports Render. All
// containers this package recognizes do; the field exists so a facade
// caller can branch without attempting a render that would error.
func (f *File) CanRender() bool { return f.render != nil }

// Render re-serializes f.Tag into f's original container, applying cfg.
func (f *File) Render(cfg Config) ([]byte, error) {
	if f.render == nil {
		return nil, errors.New("tagkit: this file's container does not support rendering")
	}
	return f.render(cfg)
}

// Result is the outcome of Read, per spec.md §6: is_success, error?,
// bytes_consumed, and (ID3v2 only) has_duplicate_tag.
type Result struct {
	File *File
	Err  error

	// BytesConsumed is how many bytes of the input Read accounts for.
	// Every container reader sets it to the whole input length; a
	// container's declared total length is not consulted.
	BytesConsumed int

	// HasDuplicateTag is set when a second valid ID3v2 header
	// immediately follows the first, the "two taggers wrote to one
	// file" artifact spec.md §6 calls out explicitly.
	HasDuplicateTag bool
}

// IsSuccess reports whether Read completed without error.
func (r Result) IsSuccess() bool { return r.Err == nil }
