package graph_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/plugref/codebase"
	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/java"
	"github.com/dhamidi/plugref/platform"
)

var sources = map[string]string{
	"com/example/Main.java": `package com.example;

import org.bukkit.plugin.java.JavaPlugin;

public class Main extends JavaPlugin implements Runnable {
    static final String PREFIX = "ex";

    public Registry registry() {
        return null;
    }

    public void run() {}

    public static class Inner {
        public static class Deepest {}
    }
}
`,
	"com/example/Broken.java": `package com.example;

import net.kyori.adventure.platform.AdventurePlugin;

public class Broken extends AdventurePlugin {
}
`,
	"com/example/Registry.java": `package com.example;

public class Registry {
    public Main owner() {
        return null;
    }
}
`,
	"com/example/mixin/TargetsMixin.java": `package com.example.mixin;

import com.example.Main;
import org.spongepowered.asm.mixin.Mixin;

@Mixin(value = Main.class, targets = {"com/example/Registry", "com.example.Main$Inner"})
public class TargetsMixin {
    public static class Nested {}
}
`,
}

func openCodebase(t *testing.T) *codebase.Codebase {
	t.Helper()
	root := t.TempDir()
	for name, content := range sources {
		path := filepath.Join(root, "src", "main", "java", filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	c, err := codebase.Open(context.Background(), root, nil)
	require.NoError(t, err)
	return c
}

func TestHierarchy(t *testing.T) {
	c := openCodebase(t)

	want := []string{
		"com.example.Main",
		platform.BukkitJavaPlugin,
		"java.lang.Runnable",
		platform.BukkitPluginBase,
		platform.BukkitPlugin,
		"org.bukkit.command.TabExecutor",
		"org.bukkit.command.CommandExecutor",
		"org.bukkit.command.TabCompleter",
	}
	if diff := cmp.Diff(want, graph.Hierarchy(c, "com.example.Main", graph.ProjectScope())); diff != "" {
		t.Errorf("Hierarchy mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, graph.IsSubtype(c, "com.example.Main", platform.BukkitPlugin, graph.ProjectScope()))
	assert.False(t, graph.IsSubtype(c, "com.example.Registry", platform.BukkitPlugin, graph.ProjectScope()))
	assert.Empty(t, graph.Hierarchy(c, "", graph.ProjectScope()))
}

func TestHierarchyKnown(t *testing.T) {
	c := openCodebase(t)
	scope := graph.ProjectScope()

	assert.True(t, graph.HierarchyKnown(c, "com.example.Main", scope))
	assert.True(t, graph.HierarchyKnown(c, "com.example.Registry", scope))
	// Broken extends a library class whose supertypes are unknown.
	assert.False(t, graph.HierarchyKnown(c, "com.example.Broken", scope))
}

func TestReturnTypeAndReceivers(t *testing.T) {
	c := openCodebase(t)
	scope := graph.ProjectScope()

	assert.Equal(t, "com.example.Registry", graph.ReturnType(c, "com.example.Main", "registry", scope))
	assert.Equal(t, "org.bukkit.command.PluginCommand", graph.ReturnType(c, "com.example.Main", "getCommand", scope))
	assert.Equal(t, "", graph.ReturnType(c, "com.example.Main", "run", scope))

	// registry().owner().getCommand(...)
	call := &java.CallSite{
		Name: "getCommand",
		Receiver: &java.Receiver{Call: &java.CallSite{
			Name: "owner",
			Receiver: &java.Receiver{Call: &java.CallSite{
				Name:     "registry",
				Receiver: &java.Receiver{Type: "com.example.Main"},
			}},
		}},
	}
	assert.Equal(t, "com.example.Main", graph.ReceiverType(c, call.Receiver, scope))
	assert.True(t, graph.IsCallOn(c, call, platform.BukkitJavaPlugin, "getCommand", scope))
	assert.False(t, graph.IsCallOn(c, call, platform.BukkitServer, "getCommand", scope))
	assert.False(t, graph.IsCallOn(c, nil, platform.BukkitJavaPlugin, "getCommand", scope))
}

func TestStringValue(t *testing.T) {
	c := openCodebase(t)
	scope := graph.ProjectScope()

	v, ok := graph.StringValue(c, java.ElementValue{Kind: java.ValueConstRef, RefType: "com.example.Main", RefField: "PREFIX"}, scope)
	require.True(t, ok)
	assert.Equal(t, "ex", v)

	_, ok = graph.StringValue(c, java.ElementValue{Kind: java.ValueConstRef, RefType: "com.example.Main", RefField: "MISSING"}, scope)
	assert.False(t, ok)
	_, ok = graph.StringValue(c, java.ElementValue{Kind: java.ValueClass, Str: "com.example.Main"}, scope)
	assert.False(t, ok)
}

func TestMixinTargets(t *testing.T) {
	c := openCodebase(t)
	scope := graph.ProjectScope()

	nested := c.FindType("com.example.mixin.TargetsMixin.Nested", scope)
	require.NotNil(t, nested)

	chain := graph.EnclosingClasses(c, nested, scope)
	require.Len(t, chain, 2)
	assert.Equal(t, "com.example.mixin.TargetsMixin", chain[1].Name)

	ann := graph.MixinAnnotation(c, nested, scope)
	require.NotNil(t, ann)
	assert.Equal(t, []string{"com.example.Main", "com.example.Registry", "com.example.Main.Inner"}, graph.MixinTargetNames(ann))

	var names []string
	for _, cls := range graph.MixinTargets(c, nested, scope) {
		names = append(names, cls.Name)
	}
	assert.Equal(t, []string{"com.example.Main", "com.example.Registry", "com.example.Main.Inner"}, names)
}
