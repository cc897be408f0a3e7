package mp4

import (
	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/tagmodel"
)

// ErrNoMetadata is returned when a file has no moov/udta/meta/ilst path.
var ErrNoMetadata = errors.New("mp4: no ilst metadata atom present")

// File is a parsed MP4 box tree plus the decoded logical tag and stream
// properties, the MP4 analogue of id3v2.Tag. Grounded on teacher's
// mp4.go metadataMP4 type, generalized to hold the full tree so Render
// can re-serialize it rather than only ever reading once.
type File struct {
	Root  []*Box
	Tag   *tagmodel.Tag
	Props tagmodel.AudioProperties
}

// Parse reads box b (a whole MP4/M4A file) and decodes its iTunes
// metadata and stream properties.
func Parse(b []byte) (*File, error) {
	root, err := ParseBoxes(b)
	if err != nil {
		return nil, errors.Wrap(err, "mp4: parse boxes")
	}
	f := &File{Root: root}
	f.Props = ReadProperties(root)

	ilst := FindPath(root, "moov", "udta", "meta", "ilst")
	if ilst == nil {
		f.Tag = &tagmodel.Tag{Extension: map[string]any{}}
		return f, nil
	}
	items, err := ParseIlst(ilst)
	if err != nil {
		return nil, errors.Wrap(err, "mp4: parse ilst")
	}
	f.Tag = Project(items)
	return f, nil
}

// Render re-serializes f.Root after replacing its ilst atoms with the
// encoding of f.Tag, keeping the top-level box order, and rewriting
// stco/co64 chunk offsets for the new moov size when moov precedes mdat,
// per spec.md §9 Open Question (a).
func (f *File) Render() ([]byte, error) {
	moov := FindPath(f.Root, "moov")
	if moov == nil {
		return nil, errors.New("mp4: no moov box to render metadata into")
	}
	oldMoovSize := boxSize(moov)

	udta := ensureChild(moov, "udta")
	meta := ensureFullBoxChild(udta, "meta")
	items := Apply(f.Tag)
	newIlst := RenderIlst(items)
	replaceChild(meta, "ilst", newIlst)

	// moov's size change moves the absolute offsets stco/co64 record
	// into mdat only when moov comes before mdat.
	shift := false
	for _, b := range f.Root {
		if b.Type == "mdat" {
			break
		}
		if b == moov {
			shift = true
			break
		}
	}
	if shift {
		RewriteForNewMoovSize(moov, oldMoovSize)
	}

	return Render(f.Root), nil
}

func ensureChild(parent *Box, typ string) *Box {
	if b := parent.Find(typ); b != nil {
		return b
	}
	child := &Box{Type: typ, Children: []*Box{}}
	parent.Children = append(parent.Children, child)
	return child
}

func ensureFullBoxChild(parent *Box, typ string) *Box {
	if b := parent.Find(typ); b != nil {
		return b
	}
	child := &Box{Type: typ, Children: []*Box{}, Data: []byte{0, 0, 0, 0}}
	parent.Children = append(parent.Children, child)
	return child
}

func replaceChild(parent *Box, typ string, replacement *Box) {
	for i, c := range parent.Children {
		if c.Type == typ {
			parent.Children[i] = replacement
			return
		}
	}
	parent.Children = append(parent.Children, replacement)
}
