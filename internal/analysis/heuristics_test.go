package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
)

func TestSwallowedExceptions_FlagsEmptyCatch(t *testing.T) {
	a := swallowedExceptions{}
	findings := a.Analyze([]core.Symbol{
		{FilePath: "svc.java", Name: "run", Kind: core.KindMethod, Body: "try { doWork(); } catch (Exception e) {}", StartLine: 1},
	})
	require.Len(t, findings, 1)
	assert.Equal(t, a.Source(), findings[0].Source)
}

func TestMissingErrorLogging_FlagsSilentErrorReturn(t *testing.T) {
	a := missingErrorLogging{}
	findings := a.Analyze([]core.Symbol{
		{FilePath: "svc.go", Name: "Save", Kind: core.KindFunction, Body: "func Save() error {\nif err != nil {\nreturn err\n}\nreturn nil\n}", StartLine: 1},
	})
	require.Len(t, findings, 1)
	assert.Equal(t, core.CategoryObservability, findings[0].Category)
}

func TestMissingErrorLogging_SkipsWhenLogged(t *testing.T) {
	a := missingErrorLogging{}
	findings := a.Analyze([]core.Symbol{
		{FilePath: "svc.go", Name: "Save", Kind: core.KindFunction, Body: "func Save() error {\nif err != nil {\nlogger.Error(\"save failed\", \"error\", err)\nreturn err\n}\nreturn nil\n}", StartLine: 1},
	})
	assert.Empty(t, findings)
}

func TestMissingDocumentation_FlagsUndocumentedExport(t *testing.T) {
	a := missingDocumentation{}
	findings := a.Analyze([]core.Symbol{
		{FilePath: "svc.go", Name: "Compute", Kind: core.KindFunction, Body: "func Compute() {}",
			Signature: core.Signature{Visibility: core.VisibilityPublic}, StartLine: 1},
	})
	require.Len(t, findings, 1)
	assert.Equal(t, core.CategoryDocumentation, findings[0].Category)
}

func TestMissingDocumentation_SkipsWhenCommented(t *testing.T) {
	a := missingDocumentation{}
	findings := a.Analyze([]core.Symbol{
		{FilePath: "svc.go", Name: "Compute", Kind: core.KindFunction, Body: "// Compute does the thing.\nfunc Compute() {}",
			Signature: core.Signature{Visibility: core.VisibilityPublic}, StartLine: 1},
	})
	assert.Empty(t, findings)
}

func TestExcessiveNesting_FlagsDeepBraces(t *testing.T) {
	a := excessiveNesting{}
	body := "func f() { if a { if b { if c { if d { if e { doIt() } } } } } }"
	findings := a.Analyze([]core.Symbol{{FilePath: "svc.go", Name: "f", Kind: core.KindFunction, Body: body, StartLine: 1}})
	require.Len(t, findings, 1)
}

func TestMagicNumbers_FlagsUnexplainedLiteral(t *testing.T) {
	a := magicNumbers{}
	findings := a.Analyze([]core.Symbol{
		{FilePath: "svc.go", Name: "f", Kind: core.KindFunction, Body: "timeout := 8743", StartLine: 1},
	})
	require.Len(t, findings, 1)
}

func TestMagicNumbers_AllowsCommonStatusCodes(t *testing.T) {
	a := magicNumbers{}
	findings := a.Analyze([]core.Symbol{
		{FilePath: "svc.go", Name: "f", Kind: core.KindFunction, Body: "w.WriteHeader(404)", StartLine: 1},
	})
	assert.Empty(t, findings)
}

func TestLongMethods_FlagsLongSpan(t *testing.T) {
	a := longMethods{}
	findings := a.Analyze([]core.Symbol{
		{FilePath: "svc.go", Name: "f", Kind: core.KindFunction, StartLine: 1, EndLine: 200},
	})
	require.Len(t, findings, 1)
}
