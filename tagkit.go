// Package tagkit is the root facade tying every format engine together
// behind one Read/Render surface, per spec.md §6's "Programmatic
// surface (per engine)" and dhowden-tag's tag.go ReadFrom dispatch,
// generalized from a single magic-byte switch returning a read-only
// Metadata interface into one that also renders, using detect.Detect
// for the sniffing step teacher inlined into ReadFrom itself.
package tagkit

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/aiff"
	"github.com/go-tagkit/tagkit/ape"
	"github.com/go-tagkit/tagkit/asf"
	"github.com/go-tagkit/tagkit/detect"
	"github.com/go-tagkit/tagkit/dsd"
	"github.com/go-tagkit/tagkit/flac"
	"github.com/go-tagkit/tagkit/id3v2"
	"github.com/go-tagkit/tagkit/mp3probe"
	"github.com/go-tagkit/tagkit/mp4"
	"github.com/go-tagkit/tagkit/musepack"
	"github.com/go-tagkit/tagkit/oggcontainer"
	"github.com/go-tagkit/tagkit/riff"
	"github.com/go-tagkit/tagkit/tagmodel"
)

// extensionFallback maps a lowercased file extension to the container
// Detect would have reported from its magic bytes, per spec.md §4.6's
// final detection rule: "Fallback: file-name extension. Missing mapping
// → unknown".
var extensionFallback = map[string]tagmodel.FileType{
	".mp3":  tagmodel.FileMP3,
	".flac": tagmodel.FileFLAC,
	".m4a":  tagmodel.FileAAC,
	".m4b":  tagmodel.FileAAC,
	".m4p":  tagmodel.FileAAC,
	".aac":  tagmodel.FileAAC,
	".ogg":  tagmodel.FileOggVorbis,
	".opus": tagmodel.FileOggOpus,
	".oga":  tagmodel.FileOggFLAC,
	".wav":  tagmodel.FileWAV,
	".aiff": tagmodel.FileAIFF,
	".aif":  tagmodel.FileAIFF,
	".aifc": tagmodel.FileAIFF,
	".dsf":  tagmodel.FileDSF,
	".dff":  tagmodel.FileDFF,
	".wv":   tagmodel.FileWavPack,
	".ape":  tagmodel.FileMonkeysAudio,
	".mpc":  tagmodel.FileMusepack,
	".wma":  tagmodel.FileASF,
}

// Read detects b's container and decodes its tag and audio properties.
// filename may be empty; it is only consulted when the byte prefix does
// not match any known magic, per spec.md §4.6's extension fallback.
func Read(b []byte, filename string) Result {
	ft := detect.Detect(b)
	if ft == tagmodel.FileUnknown && filename != "" {
		ft = extensionFallback[strings.ToLower(filepath.Ext(filename))]
	}

	switch ft {
	case tagmodel.FileFLAC:
		return readFLAC(b)
	case tagmodel.FileOggVorbis, tagmodel.FileOggOpus, tagmodel.FileOggFLAC:
		return readOgg(b)
	case tagmodel.FileAAC, tagmodel.FileALAC:
		return readMP4(b)
	case tagmodel.FileWAV:
		return readRIFF(b)
	case tagmodel.FileAIFF:
		return readAIFF(b)
	case tagmodel.FileDSF:
		return readDSF(b)
	case tagmodel.FileDFF:
		return readDFF(b)
	case tagmodel.FileWavPack:
		return readAPETrailer(b, tagmodel.FileWavPack, "WavPack")
	case tagmodel.FileMonkeysAudio:
		return readAPETrailer(b, tagmodel.FileMonkeysAudio, "Monkey's Audio")
	case tagmodel.FileMusepack:
		return readMusepack(b)
	case tagmodel.FileASF:
		return readASF(b)
	case tagmodel.FileMP3:
		return readMP3(b)
	}
	return Result{Err: errors.Errorf("tagkit: could not identify container for %q", filename)}
}

func readFLAC(b []byte) Result {
	ff, err := flac.Parse(b)
	if err != nil {
		return Result{Err: errors.Wrap(err, "tagkit: parse FLAC")}
	}
	f := &File{Type: tagmodel.FileFLAC, Tag: ff.Tag, Props: ff.Info.Properties()}
	f.render = func(Config) ([]byte, error) { return ff.Render(), nil }
	return Result{File: f, BytesConsumed: len(b)}
}

func readOgg(b []byte) Result {
	of, err := oggcontainer.Parse(b)
	if err != nil {
		return Result{Err: errors.Wrap(err, "tagkit: parse Ogg container")}
	}
	ft := tagmodel.FileOggVorbis
	switch of.Codec {
	case oggcontainer.CodecOpus:
		ft = tagmodel.FileOggOpus
	case oggcontainer.CodecFLAC:
		ft = tagmodel.FileOggFLAC
	}
	f := &File{Type: ft, Tag: of.Tag, Props: of.Properties()}
	f.render = func(Config) ([]byte, error) {
		return of.Render()
	}
	return Result{File: f, BytesConsumed: len(b)}
}

func readMP4(b []byte) Result {
	mf, err := mp4.Parse(b)
	if err != nil {
		return Result{Err: errors.Wrap(err, "tagkit: parse MP4 boxes")}
	}
	ft := tagmodel.FileAAC
	if strings.Contains(strings.ToLower(mf.Props.Codec), "alac") {
		ft = tagmodel.FileALAC
	}
	f := &File{Type: ft, Tag: mf.Tag, Props: mf.Props}
	f.render = func(Config) ([]byte, error) { return mf.Render() }
	return Result{File: f, BytesConsumed: len(b)}
}

func readRIFF(b []byte) Result {
	rf, err := riff.Parse(b)
	if err != nil {
		return Result{Err: errors.Wrap(err, "tagkit: parse RIFF container")}
	}
	tag := &tagmodel.Tag{Extension: map[string]any{}}
	id3ID := "id3 "
	if c := rf.Find(id3ID); c != nil {
		if t, err := riff.ProjectID3Chunk(c.Data); err == nil {
			tag = t
		}
	} else if c := rf.Find("ID3 "); c != nil {
		id3ID = "ID3 "
		if t, err := riff.ProjectID3Chunk(c.Data); err == nil {
			tag = t
		}
	} else if info := rf.FindList("INFO"); info != nil {
		tag = riff.ProjectInfo(info)
	}

	var props tagmodel.AudioProperties
	if fc := rf.Find("fmt "); fc != nil {
		if parsed, err := riff.ParseFmtChunk(fc.Data); err == nil {
			props = parsed.Properties()
		}
	}

	f := &File{Type: tagmodel.FileWAV, Tag: tag, Props: props}
	f.render = func(Config) ([]byte, error) {
		chunk, err := riff.RenderID3Chunk(tag)
		if err != nil {
			return nil, err
		}
		chunk.ID = id3ID
		out := replaceOrAppendRIFFChunk(rf.Chunks, chunk)
		return riff.Render(&riff.File{FormType: rf.FormType, Chunks: out}), nil
	}
	return Result{File: f, BytesConsumed: len(b)}
}

func replaceOrAppendRIFFChunk(chunks []riff.Chunk, chunk riff.Chunk) []riff.Chunk {
	out := make([]riff.Chunk, len(chunks))
	copy(out, chunks)
	for i, c := range out {
		if c.ID == chunk.ID {
			out[i] = chunk
			return out
		}
	}
	return append(out, chunk)
}

func readAIFF(b []byte) Result {
	af, err := aiff.Parse(b)
	if err != nil {
		return Result{Err: errors.Wrap(err, "tagkit: parse AIFF container")}
	}
	tag := &tagmodel.Tag{Extension: map[string]any{}}
	if c := af.Find("ID3 "); c != nil {
		if t, err := aiff.ProjectID3Chunk(c.Data); err == nil {
			tag = t
		}
	}
	var props tagmodel.AudioProperties
	if c := af.Find("COMM"); c != nil {
		if cc, err := aiff.ParseCommonChunk(c.Data); err == nil {
			props = cc.Properties()
		}
	}

	f := &File{Type: tagmodel.FileAIFF, Tag: tag, Props: props}
	f.render = func(Config) ([]byte, error) {
		chunk, err := aiff.RenderID3Chunk(tag)
		if err != nil {
			return nil, err
		}
		out := replaceOrAppendAIFFChunk(af.Chunks, chunk)
		return aiff.Render(&aiff.File{FormType: af.FormType, Chunks: out}), nil
	}
	return Result{File: f, BytesConsumed: len(b)}
}

func replaceOrAppendAIFFChunk(chunks []aiff.Chunk, chunk aiff.Chunk) []aiff.Chunk {
	out := make([]aiff.Chunk, len(chunks))
	copy(out, chunks)
	for i, c := range out {
		if c.ID == chunk.ID {
			out[i] = chunk
			return out
		}
	}
	return append(out, chunk)
}

func readDSF(b []byte) Result {
	df, err := dsd.ParseDSF(b)
	if err != nil {
		return Result{Err: errors.Wrap(err, "tagkit: parse DSF container")}
	}
	f := &File{Type: tagmodel.FileDSF, Tag: df.Tag, Props: df.Properties()}
	f.render = func(Config) ([]byte, error) { return df.Render() }
	return Result{File: f, BytesConsumed: len(b)}
}

func readDFF(b []byte) Result {
	root, err := dsd.ParseDFF(b)
	if err != nil {
		return Result{Err: errors.Wrap(err, "tagkit: parse DFF container")}
	}
	tag, err := dsd.ProjectDFFTag(root)
	if err != nil {
		return Result{Err: errors.Wrap(err, "tagkit: project DFF ID3 chunk")}
	}
	props := dsd.ReadDFFProperties(root)

	f := &File{Type: tagmodel.FileDFF, Tag: tag, Props: props}
	f.render = func(Config) ([]byte, error) {
		newRoot, err := dsd.ApplyDFFTag(root, tag)
		if err != nil {
			return nil, err
		}
		return dsd.RenderDFFChunk(newRoot), nil
	}
	return Result{File: f, BytesConsumed: len(b)}
}

// id3v1Size is the fixed length of a trailing ID3v1 tag: readMP3 strips
// one from the audio range, and locateAPETrailer also looks for an APE
// tag positioned before one.
const id3v1Size = 128

// locateAPETrailer finds a trailing APEv2 tag's byte range [start, end),
// either at EOF or immediately before a trailing 128-byte ID3v1 tag, the
// same convention musepack.findAPETag uses (duplicated here since that
// helper is unexported and this file serves three container types that
// share the identical trailer convention: WavPack, Monkey's Audio, and
// Musepack).
func locateAPETrailer(b []byte) (start, end int) {
	for _, trailerSize := range []int{0, id3v1Size} {
		footerStart := len(b) - trailerSize - ape.FooterSize
		if footerStart < 0 || footerStart+8 > len(b) {
			continue
		}
		if string(b[footerStart:footerStart+8]) != "APETAGEX" {
			continue
		}
		footer, err := ape.ParseFooter(b[footerStart : footerStart+ape.FooterSize])
		if err != nil {
			continue
		}
		itemsStart := footerStart + ape.FooterSize - int(footer.TagSize)
		tagStart := itemsStart
		const flagContainsHeader = 1 << 31
		if footer.Flags&flagContainsHeader != 0 {
			tagStart -= ape.FooterSize
		}
		if tagStart >= 0 {
			return tagStart, footerStart + ape.FooterSize
		}
	}
	return -1, -1
}

func readAPETrailer(b []byte, ft tagmodel.FileType, codec string) Result {
	tag := &tagmodel.Tag{Extension: map[string]any{}}
	var base *ape.Tag
	start, end := locateAPETrailer(b)
	if start >= 0 {
		if t, err := ape.ParseTag(b[start:end]); err == nil {
			base = t
			tag = ape.Project(t)
		}
	}

	f := &File{Type: ft, Tag: tag, Props: tagmodel.AudioProperties{Codec: codec}}
	f.render = func(Config) ([]byte, error) {
		newTag := ape.Apply(base, tag)
		rendered := newTag.Render()
		if start < 0 {
			return append(append([]byte(nil), b...), rendered...), nil
		}
		out := append([]byte(nil), b[:start]...)
		out = append(out, rendered...)
		out = append(out, b[end:]...)
		return out, nil
	}
	return Result{File: f, BytesConsumed: len(b)}
}

func readMusepack(b []byte) Result {
	mf, err := musepack.Parse(b)
	if err != nil {
		return Result{Err: errors.Wrap(err, "tagkit: parse Musepack stream")}
	}
	tag := mf.Tag
	start, end := locateAPETrailer(b)
	var base *ape.Tag
	if start >= 0 {
		base, _ = ape.ParseTag(b[start:end])
	}

	f := &File{Type: tagmodel.FileMusepack, Tag: tag, Props: mf.Props}
	f.render = func(Config) ([]byte, error) {
		newTag := ape.Apply(base, tag)
		rendered := newTag.Render()
		if start < 0 {
			return append(append([]byte(nil), b...), rendered...), nil
		}
		out := append([]byte(nil), b[:start]...)
		out = append(out, rendered...)
		out = append(out, b[end:]...)
		return out, nil
	}
	return Result{File: f, BytesConsumed: len(b)}
}

func readASF(b []byte) Result {
	af, err := asf.Parse(b)
	if err != nil {
		return Result{Err: errors.Wrap(err, "tagkit: parse ASF object tree")}
	}
	f := &File{Type: tagmodel.FileASF, Tag: af.Tag, Props: af.Props}
	f.render = func(Config) ([]byte, error) { return af.Render(), nil }
	return Result{File: f, BytesConsumed: len(b)}
}

// readMP3 decodes an MP3 stream's leading ID3v2 tag (if any, including
// the duplicate-header case spec.md §6 calls out), trailing ID3v1 tag
// (if any), and frame-level stream properties via mp3probe, then
// combines whichever tag is present (ID3v2 taking priority, per the
// common convention every example in the pack that handles both
// follows) into one logical tagmodel.Tag.
func readMP3(b []byte) Result {
	var id3v2Tag *id3v2.Tag
	var hasDuplicate bool
	audioStart := 0

	if len(b) >= 3 && string(b[0:3]) == "ID3" {
		size, err := id3v2.Size(b)
		if err != nil {
			return Result{Err: errors.Wrap(err, "tagkit: read ID3v2 header")}
		}
		if size > len(b) {
			return Result{Err: errors.New("tagkit: ID3v2 header declares a size larger than the file")}
		}
		id3v2Tag, err = id3v2.Parse(b)
		if err != nil {
			return Result{Err: errors.Wrap(err, "tagkit: parse ID3v2 tag")}
		}
		audioStart = size
		if audioStart+3 <= len(b) && string(b[audioStart:audioStart+3]) == "ID3" {
			if dupSize, err := id3v2.Size(b[audioStart:]); err == nil {
				hasDuplicate = true
				audioStart += dupSize
			}
		}
	}

	audioEnd := len(b)
	var id3v1Tag id3v2.ID3v1Tag
	hasID3v1 := false
	if len(b)-audioStart >= id3v1Size {
		if t, err := id3v2.ParseID3v1(b[len(b)-id3v1Size:]); err == nil {
			id3v1Tag = t
			hasID3v1 = true
			audioEnd = len(b) - id3v1Size
		}
	}
	if audioEnd < audioStart {
		audioEnd = audioStart
	}

	tag := &tagmodel.Tag{Extension: map[string]any{}}
	switch {
	case id3v2Tag != nil:
		tag = id3v2.Project(id3v2Tag)
	case hasID3v1:
		tag = id3v2.ProjectID3v1(id3v1Tag)
	}

	props, err := mp3probe.Probe(b[audioStart:audioEnd], false)
	if err != nil {
		props = tagmodel.AudioProperties{Codec: "MP3"}
	}

	f := &File{Type: tagmodel.FileMP3, Tag: tag, Props: props}
	audio := append([]byte(nil), b[audioStart:audioEnd]...)
	f.render = func(cfg Config) ([]byte, error) {
		var base *id3v2.Tag
		if id3v2Tag != nil {
			base = id3v2Tag
		}
		newTag := id3v2.Apply(cfg.ID3v2WriteVersion, base, tag)
		rendered, err := newTag.Render(cfg.ID3v2PreservePaddingBytes)
		if err != nil {
			return nil, err
		}
		out := append(rendered, audio...)
		if hasID3v1 {
			trailer := id3v2.ApplyID3v1(tag).Render()
			out = append(out, trailer[:]...)
		}
		return out, nil
	}
	return Result{File: f, BytesConsumed: len(b), HasDuplicateTag: hasDuplicate}
}
