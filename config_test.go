package tagkit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-tagkit/tagkit/id3v2"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, id3v2.Version2_4, cfg.ID3v2WriteVersion)
	assert.Equal(t, 1024, cfg.ID3v2PreservePaddingBytes)
	assert.True(t, cfg.ID3v2PreferUTF8)
	assert.True(t, cfg.APICDetectMIMEFromBytes)
	assert.True(t, cfg.MP4RebuildMoov)
}
