package tagkit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-tagkit/tagkit/tagmodel"
)

func TestResultIsSuccess(t *testing.T) {
	ok := Result{File: &File{}}
	assert.True(t, ok.IsSuccess())

	failed := Result{Err: assert.AnError}
	assert.False(t, failed.IsSuccess())
}

func TestFileCanRenderAndRenderError(t *testing.T) {
	f := &File{Tag: &tagmodel.Tag{}}
	assert.False(t, f.CanRender())

	_, err := f.Render(DefaultConfig())
	assert.Error(t, err)
}

func TestFileRenderDelegatesToClosure(t *testing.T) {
	called := false
	f := &File{Tag: &tagmodel.Tag{}}
	f.render = func(cfg Config) ([]byte, error) {
		called = true
		return []byte("rendered"), nil
	}
	assert.True(t, f.CanRender())

	out, err := f.Render(DefaultConfig())
	assert.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, []byte("rendered"), out)
}
