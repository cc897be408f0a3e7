package aiff

import "github.com/go-tagkit/tagkit/tagmodel"

// ParseTag locates and decodes the "ID3 " chunk in f, returning an
// empty tag if none is present.
func (f *File) ParseTag() (*tagmodel.Tag, error) {
	if c := f.Find("ID3 "); c != nil {
		return ProjectID3Chunk(c.Data)
	}
	return &tagmodel.Tag{Extension: map[string]any{}}, nil
}

// SetTag replaces (or adds) f's "ID3 " chunk with the encoding of in.
func (f *File) SetTag(in *tagmodel.Tag) error {
	chunk, err := RenderID3Chunk(in)
	if err != nil {
		return err
	}
	for i, c := range f.Chunks {
		if c.ID == "ID3 " {
			f.Chunks[i] = chunk
			return nil
		}
	}
	f.Chunks = append(f.Chunks, chunk)
	return nil
}

// Properties decodes f's "COMM" chunk into AudioProperties, returning
// the zero value if absent.
func (f *File) Properties() tagmodel.AudioProperties {
	c := f.Find("COMM")
	if c == nil {
		return tagmodel.AudioProperties{}
	}
	comm, err := ParseCommonChunk(c.Data)
	if err != nil {
		return tagmodel.AudioProperties{}
	}
	return comm.Properties()
}
