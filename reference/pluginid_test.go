package reference_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/plugref/reference"
)

func TestPluginDeclarations(t *testing.T) {
	p := newTestProject(t)

	decls := reference.PluginDeclarations(p.codebase)
	var ids []string
	for _, d := range decls {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"alpha", "beta", "Bad", "alpha", "gamma", "9lives"}, ids)
	assert.Equal(t, "Alpha", decls[0].Name)
	assert.True(t, decls[0].Valid)
	assert.False(t, decls[2].Valid)
	assert.False(t, decls[5].Valid)
}

func TestPluginIDStrategy_ConstantIDAndDuplicates(t *testing.T) {
	p := newTestProject(t)
	engine := reference.DefaultEngine()

	category, targets := engine.Resolve(p.codebase, p.site(gammaPlugin, `"alpha"`, 1))
	assert.Equal(t, reference.CategoryPluginID, category)
	require.Len(t, targets, 1)
	assert.Equal(t, "com.example.sponge.AlphaPlugin", targets[0].Name)
	assert.Equal(t, p.path(alphaPlugin), targets[0].File)
	assert.Equal(t, reference.TargetType, targets[0].Kind)

	// The second declaration of alpha resolves to the first one as well.
	_, targets = engine.Resolve(p.codebase, p.site(duplicate, `"alpha"`, 1))
	require.Len(t, targets, 1)
	assert.Equal(t, "com.example.sponge.AlphaPlugin", targets[0].Name)
}

func TestPluginIDStrategy_Lookups(t *testing.T) {
	p := newTestProject(t)
	engine := reference.DefaultEngine()

	_, targets := engine.Resolve(p.codebase, p.site(alphaPlugin, `getPlugin("beta")`, len(`getPlugin("`)))
	require.Len(t, targets, 1)
	assert.Equal(t, "com.example.sponge.BetaPlugin", targets[0].Name)

	nothing := p.site(alphaPlugin, `"nothing"`, 1)
	strategy, pattern, ok := engine.Match(p.codebase, nothing)
	require.True(t, ok)
	assert.Equal(t, reference.CategoryPluginID, strategy.Category())
	assert.Equal(t, "plugin-manager-lookup", pattern.Name)
	assert.True(t, engine.IsUnresolved(p.codebase, nothing))
}

func TestPluginIDStrategy_DependencyVariants(t *testing.T) {
	p := newTestProject(t)
	engine := reference.DefaultEngine()

	empty := p.site(alphaPlugin, `id = "")`, len(`id = "`))
	_, pattern, ok := engine.Match(p.codebase, empty)
	require.True(t, ok)
	assert.Equal(t, "dependency-id", pattern.Name)
	assert.Equal(t, []string{"gamma"}, texts(engine.Complete(p.codebase, empty)))

	beta := p.site(alphaPlugin, `id = "beta"`, len(`id = "`))
	variants := engine.Complete(p.codebase, beta)
	assert.Equal(t, []string{"beta", "gamma"}, texts(variants))
	assert.Equal(t, "Beta", variants[0].TypeText)
	assert.Equal(t, []string{"gamma"}, texts(engine.CompleteAt(p.codebase, beta, "g")))
}

func TestPluginIDStrategy_LookupVariantsIncludeDependencies(t *testing.T) {
	p := newTestProject(t)
	engine := reference.DefaultEngine()

	// Own id and declared dependencies are only hidden inside the
	// dependency list.
	lookup := p.site(alphaPlugin, `getPlugin("beta")`, len(`getPlugin("`))
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, texts(engine.Complete(p.codebase, lookup)))

	lookup = p.site(gammaPlugin, `getPlugin("alpha")`, len(`getPlugin("`))
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, texts(engine.Complete(p.codebase, lookup)))
}

func TestPluginIDStrategy_InvalidDeclaredIDs(t *testing.T) {
	p := newTestProject(t)
	engine := reference.DefaultEngine()

	bad := p.site(badPlugin, `getPlugin("Bad")`, len(`getPlugin("`))
	category, targets := engine.Resolve(p.codebase, bad)
	assert.Equal(t, reference.CategoryPluginID, category)
	assert.Empty(t, targets)
	assert.True(t, engine.IsUnresolved(p.codebase, bad))

	empty := p.site(alphaPlugin, `id = "")`, len(`id = "`))
	variants := texts(engine.Complete(p.codebase, empty))
	assert.NotContains(t, variants, "Bad")
	assert.NotContains(t, variants, "9lives")

	variants = texts(engine.Complete(p.codebase, bad))
	assert.NotContains(t, variants, "Bad")
	assert.NotContains(t, variants, "9lives")
}

func TestPluginIDStrategy_DeclarationHasNoVariants(t *testing.T) {
	p := newTestProject(t)
	engine := reference.DefaultEngine()

	site := p.site(betaPlugin, `"beta"`, 1)
	_, pattern, ok := engine.Match(p.codebase, site)
	require.True(t, ok)
	assert.Equal(t, "plugin-id", pattern.Name)
	assert.Empty(t, engine.Complete(p.codebase, site))
}

func TestFindPlugin_InvalidID(t *testing.T) {
	p := newTestProject(t)

	_, ok := reference.FindPlugin(p.codebase, "Alpha")
	assert.False(t, ok)
	_, ok = reference.FindPlugin(p.codebase, "9lives")
	assert.False(t, ok)
	d, ok := reference.FindPlugin(p.codebase, "gamma")
	require.True(t, ok)
	assert.Equal(t, p.path(gammaPlugin), d.Target().File)
}
