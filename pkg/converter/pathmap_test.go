package converter_test

import (
	"path/filepath"
	"testing"

	"github.com/samhuann/SuperEbookMachine/pkg/converter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOutputPath_Mirrored(t *testing.T) {
	root := filepath.FromSlash("/in")
	outRoot := filepath.FromSlash("/out")

	out, err := converter.BuildOutputPath(root, outRoot, filepath.FromSlash("/in/x/y/doc.pdf"), "epub", false, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/out/x/y/doc.epub"), out)
}

func TestBuildOutputPath_Flattened(t *testing.T) {
	root := filepath.FromSlash("/in")
	outRoot := filepath.FromSlash("/out")

	out, err := converter.BuildOutputPath(root, outRoot, filepath.FromSlash("/in/x/y/doc.pdf"), "epub", true, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/out/doc__x__y.epub"), out)
}

func TestBuildOutputPath_FlattenedRootLevelFile(t *testing.T) {
	root := filepath.FromSlash("/in")
	outRoot := filepath.FromSlash("/out")

	out, err := converter.BuildOutputPath(root, outRoot, filepath.FromSlash("/in/doc.pdf"), "azw3", true, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/out/doc.azw3"), out)
}

func TestBuildOutputPath_KeepOriginalExt(t *testing.T) {
	root := filepath.FromSlash("/in")
	outRoot := filepath.FromSlash("/out")

	out, err := converter.BuildOutputPath(root, outRoot, filepath.FromSlash("/in/a/doc.PDF"), "epub", false, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/out/a/doc.PDF"), out)
}

func TestBuildOutputPath_TargetExtNormalized(t *testing.T) {
	root := filepath.FromSlash("/in")
	outRoot := filepath.FromSlash("/out")

	out, err := converter.BuildOutputPath(root, outRoot, filepath.FromSlash("/in/doc.pdf"), ".EPUB", false, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/out/doc.epub"), out)
}

func TestBuildOutputPath_FlattenSanitizesComponents(t *testing.T) {
	root := filepath.FromSlash("/in")
	outRoot := filepath.FromSlash("/out")

	out, err := converter.BuildOutputPath(root, outRoot, filepath.FromSlash("/in/a?b/doc.pdf"), "epub", true, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/out/doc__a_b.epub"), out)
}

func TestBuildOutputPath_NoExtensionInput(t *testing.T) {
	root := filepath.FromSlash("/in")
	outRoot := filepath.FromSlash("/out")

	out, err := converter.BuildOutputPath(root, outRoot, filepath.FromSlash("/in/x/README"), "epub", false, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/out/x/README.epub"), out)
}

func TestNormalizeExtensions(t *testing.T) {
	testCases := []struct {
		name     string
		raw      []string
		expected []string
	}{
		{name: "Comma separated, no dots", raw: []string{"pdf, epub"}, expected: []string{".pdf", ".epub"}},
		{name: "Mixed dots and case", raw: []string{".PDF", "Epub"}, expected: []string{".pdf", ".epub"}},
		{name: "Duplicates collapse", raw: []string{"pdf", ".pdf", "PDF"}, expected: []string{".pdf"}},
		{name: "Blank tokens dropped", raw: []string{" , ,pdf,"}, expected: []string{".pdf"}},
		{name: "Empty input", raw: nil, expected: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, converter.NormalizeExtensions(tc.raw))
		})
	}
}
