package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
)

func TestEngine_FlagsNonCamelCaseMethod(t *testing.T) {
	engine := NewEngine(DefaultRules())

	findings := engine.Apply([]core.Symbol{
		{FilePath: "svc.go", Name: "DoThing", Kind: core.KindMethod, StartLine: 5},
	})

	require.Len(t, findings, 1)
	assert.Equal(t, core.CategoryArchitecture, findings[0].Category)
	assert.Equal(t, "architecture.naming", findings[0].Source)
}

func TestEngine_AllowsCamelCaseMethod(t *testing.T) {
	engine := NewEngine(DefaultRules())

	findings := engine.Apply([]core.Symbol{
		{FilePath: "svc.go", Name: "doThing", Kind: core.KindMethod, StartLine: 5},
	})

	assert.Empty(t, findings)
}

func TestEngine_FlagsForbiddenImport(t *testing.T) {
	rules := &Rules{Imports: []ImportRule{{FromLayer: "internal/domain", ToLayer: "internal/storage"}}}
	engine := NewEngine(rules)

	findings := engine.Apply([]core.Symbol{
		{FilePath: "internal/domain/order.go", Name: "placeOrder", Kind: core.KindFunction,
			CallEdges: []string{"internal/storage.Save"}, StartLine: 1},
	})

	require.Len(t, findings, 1)
	assert.Equal(t, "architecture.imports", findings[0].Source)
}

func TestEngine_FlagsPlacementViolation(t *testing.T) {
	rules := &Rules{Placement: []PlacementRule{{Kind: core.KindClass, PathPrefix: "internal/core/"}}}
	engine := NewEngine(rules)

	findings := engine.Apply([]core.Symbol{
		{FilePath: "cmd/main.go", Name: "Widget", Kind: core.KindClass, StartLine: 1},
	})

	require.Len(t, findings, 1)
	assert.Equal(t, "architecture.placement", findings[0].Source)
}
