package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchCmd_Use(t *testing.T) {
	assert.Equal(t, "watch [dir]", watchCmd.Use)
}

func TestWatchCmd_DefaultExtensions(t *testing.T) {
	flag := watchCmd.Flags().Lookup("ext")
	require.NotNil(t, flag)
	assert.Contains(t, flag.DefValue, ".pdf")
	assert.Contains(t, flag.DefValue, ".md")
}

func TestWatchCmd_RequiresDir(t *testing.T) {
	_, err := execute(t, nil, "watch")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestWatchCmd_RejectsMissingDir(t *testing.T) {
	_, err := execute(t, nil, "watch", "/does/not/exist")

	assert.Error(t, err)
}

func TestWatchableExt(t *testing.T) {
	old := watchExts
	watchExts = []string{".pdf", ".TXT"}
	defer func() { watchExts = old }()

	assert.True(t, watchableExt("/in/report.pdf"))
	assert.True(t, watchableExt("/in/REPORT.PDF"))
	assert.True(t, watchableExt("/in/notes.txt"))
	assert.False(t, watchableExt("/in/image.png"))
	assert.False(t, watchableExt("/in/noext"))
}
