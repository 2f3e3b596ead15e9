package xfanout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	d := Default()
	require.NotNil(t, d)
	assert.Same(t, d, Default())
	assert.Equal(t, Outputs(KindStructured), d.Outputs())

	structured := &recordingLogger{}
	custom := New(WithStructured(structured), WithOutputs(Outputs(KindStructured)))
	old := SetDefault(custom)
	assert.Same(t, d, old)
	require.NoError(t, old.Close())

	assert.Nil(t, SetDefault(nil))
	assert.Same(t, custom, Default())

	Debug(CategoryDefault, "d")
	Info(CategoryDefault, "i")
	Warn(CategoryNetwork, "w", 1)
	Error(CategoryNetwork, "e")
	custom.Flush()

	got := structured.snapshot()
	require.Len(t, got, 4)
	assert.Equal(t, "w 1", got[2].msg)
	assert.Equal(t, CategoryNetwork, got[3].category)

	require.NoError(t, custom.Close())
}
