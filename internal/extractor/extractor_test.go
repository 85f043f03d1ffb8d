package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
)

const goSample = `package sample

type Widget struct {
	Name string
}

func (w *Widget) Render() string {
	return helper(w.Name)
}

func helper(name string) string {
	return name
}

func unexportedHelper() {}
`

func TestExtract_Go_GrammarBased(t *testing.T) {
	e := New(nil)
	parsed, err := e.Extract("acme/widgets", "main", "widget.go", goSample)
	require.NoError(t, err)

	var names []string
	for _, s := range parsed.Symbols {
		names = append(names, s.Name)
		assert.Equal(t, core.ParseQualityHigh, s.ParseQuality)
		assert.True(t, s.Valid())
	}
	assert.Contains(t, names, "Widget")
	assert.Contains(t, names, "Render")
	assert.Contains(t, names, "helper")
	assert.Contains(t, names, "unexportedHelper")
}

func TestExtract_Go_VisibilityFromCase(t *testing.T) {
	e := New(nil)
	parsed, err := e.Extract("acme/widgets", "main", "widget.go", goSample)
	require.NoError(t, err)

	byName := map[string]core.Symbol{}
	for _, s := range parsed.Symbols {
		byName[s.Name] = s
	}

	require.Contains(t, byName, "helper")
	assert.Equal(t, core.VisibilityPrivate, byName["helper"].Signature.Visibility)
}

func TestExtract_UnsupportedLanguage_UsesRegexFallback(t *testing.T) {
	e := New(nil)
	source := "class Widget {\n  public void render() {\n    System.out.println(\"hi\");\n  }\n}\n"

	parsed, err := e.Extract("acme/widgets", "main", "Widget.java", source)
	require.NoError(t, err)
	require.NotEmpty(t, parsed.Symbols)
	for _, s := range parsed.Symbols {
		assert.Equal(t, core.ParseQualityLow, s.ParseQuality)
	}
}

func TestPostProcess_DropsUnknownNamedSymbols(t *testing.T) {
	parsed := core.ParsedFile{Symbols: []core.Symbol{
		{Name: "unknown", StartLine: 1, EndLine: 2},
		{Name: "real", StartLine: 1, EndLine: 2},
	}}
	out := postProcess(parsed)
	require.Len(t, out.Symbols, 1)
	assert.Equal(t, "real", out.Symbols[0].Name)
}

const jsSample = `const helper = () => {
  return 1;
};

function named() {
  return 2;
}

function wrapper() {
  const inline = () => 3;
  return inline();
}
`

func TestExtract_JavaScript_TopLevelArrowAssignmentIsCaptured(t *testing.T) {
	e := New(nil)
	parsed, err := e.Extract("acme/widgets", "main", "widget.js", jsSample)
	require.NoError(t, err)

	var names []string
	for _, s := range parsed.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "helper", "top-level arrow-function assignment must be extracted as a named symbol")
	assert.Contains(t, names, "named")
	assert.NotContains(t, names, "inline", "an anonymous function nested inside another function body is not a top-level assignment and stays skipped")
}

func TestLanguageFor(t *testing.T) {
	assert.Equal(t, langGo, languageFor("internal/foo/bar.go"))
	assert.Equal(t, langPython, languageFor("script.py"))
	assert.Equal(t, langUnknown, languageFor("README.md"))
}
