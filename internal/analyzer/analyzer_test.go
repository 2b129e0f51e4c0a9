package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Analyze:
// - Analyze the checked-in fixture end to end
// - Module name derives from the file's base name without extension
// - Nonexistent path reports NotFound with the path in the message
// - Directory path reports a read failure
// - Broken source reports a syntax error naming the location
// - Empty file analyzes cleanly to an empty structure

func TestAnalyze_Fixture(t *testing.T) {
	t.Parallel()

	s, err := Analyze("../../testdata/code/python/simple.py")
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, "simple", s.ModuleName)
	assert.Equal(t, []string{"os", "json"}, s.Imports.Direct)
	assert.Equal(t, []string{"typing.List", "collections.OrderedDict"}, s.Imports.From)

	require.Len(t, s.GlobalVariables, 2)
	assert.Equal(t, "MAX_USERS: int = <?>", s.GlobalVariables[0].Text())
	assert.Equal(t, "default_region = <?>", s.GlobalVariables[1].Text())

	fetch, ok := s.FunctionByName("fetch")
	require.True(t, ok)
	assert.Equal(t, []string{"traced"}, fetch.Decorators)
	assert.Equal(t, []string{"url", "timeout=<?>"}, fetch.Args)
	assert.Equal(t, "Fetch a URL.", fetch.Docstring)

	user, ok := s.ClassByName("User")
	require.True(t, ok)
	assert.Equal(t, "A registered user.", user.Docstring)
	require.Len(t, user.Attributes, 2)
	assert.Equal(t, "role = <?>", user.Attributes[0].Text())
	assert.Equal(t, "region: str = default_region", user.Attributes[1].Text())
	require.Len(t, user.Methods, 3)

	admin, ok := s.ClassByName("Admin")
	require.True(t, ok)
	assert.Equal(t, []string{"User"}, admin.Bases)

	assert.Equal(t, []string{"json.dumps"}, s.Calls.Callees("simple.helper"))
	assert.Equal(t, []string{"helper", "os.popen"}, s.Calls.Callees("simple.fetch"))
	assert.Equal(t, []string{"helper"}, s.Calls.Callees("simple.User.describe"))
	assert.Equal(t, []string{"User"}, s.Calls.Callees("simple.User.default"))
	assert.Equal(t, []string{"Condition: <?>", "fetch"}, s.Calls.Callees("simple"))
}

func TestAnalyze_ModuleName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "app", ModuleName("/some/dir/app.py"))
	assert.Equal(t, "noext", ModuleName("noext"))
	assert.Equal(t, "archive.v2", ModuleName("archive.v2.py"))
}

func TestAnalyze_NotFound(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.py")
	s, err := Analyze(path)

	assert.Nil(t, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestAnalyze_DirectoryIsReadFailure(t *testing.T) {
	t.Parallel()

	s, err := Analyze(t.TempDir())

	assert.Nil(t, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRead)
}

func TestAnalyze_SyntaxError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.py")
	require.NoError(t, os.WriteFile(path, []byte("def broken(:\n    pass\n"), 0644))

	s, err := Analyze(path)

	assert.Nil(t, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyntax)
	assert.Contains(t, err.Error(), "syntax")
	assert.Contains(t, err.Error(), path)
}

func TestAnalyze_EmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.py")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	s, err := Analyze(path)
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, "empty", s.ModuleName)
	assert.Empty(t, s.Functions)
	assert.Empty(t, s.Classes)
	assert.Empty(t, s.GlobalVariables)
	assert.Equal(t, "--- Module: empty ---", Render(s))
}
