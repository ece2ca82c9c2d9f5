package shell

import (
	"errors"
	"strings"
	"testing"

	"github.com/blacktop/strongarm/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoGroupOrder(t *testing.T) {
	g := NewInfoGroup(session.Session{Binary: newFakeBinary(), Analyzer: newFakeAnalyzer()}, false)
	assert.Equal(t, []string{
		"all", "metadata", "segments", "sections", "loads", "classes",
		"protocols", "methods", "imports", "exports", "strings",
	}, g.Names())
	assert.Equal(t, g.Names()[1:], g.Reports())
	assert.Equal(t,
		"Read binary information. info [all] [metadata] [segments] [sections] [loads] [classes] [protocols] [methods] [imports] [exports] [strings]",
		g.Describe())
}

func TestInfoGroupUnknown(t *testing.T) {
	g := NewInfoGroup(session.Session{Binary: newFakeBinary(), Analyzer: newFakeAnalyzer()}, false)
	var out strings.Builder
	err := g.Run(&out, "everything")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, KindInfo, nf.Kind)
	assert.Equal(t, "Unknown argument supplied to info: everything", err.Error())
	assert.Empty(t, out.String())
}

type failingBinary struct{ *fakeBinary }

func (b failingBinary) Strings() ([]session.CString, error) {
	return nil, errBoom
}

func TestInfoAllStopsAtFailure(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		an := newFakeAnalyzer()
		g := NewInfoGroup(session.Session{Binary: failingBinary{newFakeBinary()}, Analyzer: an}, parallel)
		var out strings.Builder
		err := g.Run(&out, "all")
		assert.ErrorIs(t, err, errBoom)
		// strings is last, so everything before it was written in order
		assertInOrder(t, out.String(), reportTitles)
	}
}
