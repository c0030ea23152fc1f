package inspect_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/plugref/codebase"
	"github.com/dhamidi/plugref/config"
	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/inspect"
	"github.com/dhamidi/plugref/span"
)

var project = map[string]string{
	"src/main/resources/plugin.yml": `name: Demo
main: com.example.NotAPlugin
commands:
  heal: {}
`,
	"src/main/java/com/example/NotAPlugin.java": `package com.example;

public class NotAPlugin {
}
`,
	"src/main/java/com/example/DemoPlugin.java": `package com.example;

import org.bukkit.plugin.java.JavaPlugin;

public class DemoPlugin extends JavaPlugin {
    public void onEnable() {
        getCommand("heal");
        getCommand("fly");
    }
}
`,
	"src/main/java/com/example/sponge/First.java": `package com.example.sponge;

import org.spongepowered.api.Sponge;
import org.spongepowered.api.asset.AssetId;
import org.spongepowered.api.plugin.Plugin;

@Plugin(id = "first")
public class First {
    @AssetId("present.txt")
    private Object present;

    @AssetId("absent.txt")
    private Object absent;

    void check() {
        Sponge.getPluginManager().getPlugin("Bad Id");
        Sponge.getPluginManager().getPlugin("unknown");
        Sponge.getPluginManager().getPlugin("library");
        Sponge.getPluginManager().getPlugin("second");
    }
}
`,
	"src/main/java/com/example/sponge/Second.java": `package com.example.sponge;

import org.spongepowered.api.plugin.Plugin;

@Plugin(id = "second")
public class Second {
}
`,
	"src/main/java/com/example/sponge/Third.java": `package com.example.sponge;

import org.spongepowered.api.plugin.Plugin;

@Plugin(id = "first")
public class Third {
}
`,
	"src/main/java/com/example/sponge/Invalid.java": `package com.example.sponge;

import org.spongepowered.api.plugin.Plugin;

@Plugin(id = "Invalid")
public class Invalid {
}
`,
	"src/main/java/com/example/mixin/TargetMixin.java": `package com.example.mixin;

import com.example.NotAPlugin;
import org.spongepowered.asm.mixin.Mixin;
import org.spongepowered.asm.mixin.gen.Accessor;
import org.spongepowered.asm.mixin.gen.Invoker;

@Mixin(NotAPlugin.class)
public interface TargetMixin {
    @Accessor
    int getCount();

    @Invoker
    void callReset();
}
`,
	"src/main/resources/assets/first/present.txt": "",
}

func openProject(t *testing.T) (*codebase.Codebase, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range project {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	cfg := config.Default()
	cfg.KnownPluginIDs = []string{"library"}
	c, err := codebase.Open(context.Background(), root, cfg)
	require.NoError(t, err)
	return c, c.RootDir()
}

type finding struct {
	File string
	Line int
	Code string
}

func TestInspector_Check(t *testing.T) {
	c, root := openProject(t)
	files := append(c.JavaFiles(), c.ManifestFiles(graph.ProjectScope())...)

	diags, err := inspect.New(c.Config()).Check(c, files)
	require.NoError(t, err)

	var got []finding
	for _, d := range diags {
		rel, err := filepath.Rel(root, d.File)
		require.NoError(t, err)
		got = append(got, finding{File: filepath.ToSlash(rel), Line: d.Span.Start.Line, Code: d.Code})
	}
	assert.Equal(t, []finding{
		{"src/main/java/com/example/DemoPlugin.java", 8, inspect.CodeUnknownCommand},
		{"src/main/java/com/example/mixin/TargetMixin.java", 11, inspect.CodeUnresolvedAccessor},
		{"src/main/java/com/example/mixin/TargetMixin.java", 14, inspect.CodeUnresolvedInvoker},
		{"src/main/java/com/example/sponge/First.java", 12, inspect.CodeMissingAsset},
		{"src/main/java/com/example/sponge/First.java", 16, inspect.CodeInvalidPluginID},
		{"src/main/java/com/example/sponge/First.java", 17, inspect.CodeUnknownPluginID},
		{"src/main/java/com/example/sponge/Invalid.java", 5, inspect.CodeInvalidPluginID},
		{"src/main/java/com/example/sponge/Third.java", 5, inspect.CodeDuplicatePluginID},
		{"src/main/resources/plugin.yml", 2, inspect.CodeMainClassNotPlugin},
	}, got)
}

func TestInspector_Details(t *testing.T) {
	c, root := openProject(t)
	in := inspect.New(c.Config())

	diags, err := in.CheckFile(c, filepath.Join(root, "src/main/java/com/example/sponge/Third.java"))
	require.NoError(t, err)
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, inspect.SeverityError, d.Severity)
	assert.Equal(t, span.Span{Start: span.Position{Line: 5, Column: 14}, End: span.Position{Line: 5, Column: 21}}, d.Span)
	assert.Contains(t, d.Message, "com.example.sponge.First")

	manifest := filepath.Join(root, "src/main/resources/plugin.yml")
	require.NoError(t, c.SetOverlay(manifest, []byte("main: com.example.Gone\n")))
	diags, err = in.CheckFile(c, manifest)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, inspect.CodeMainClassMissing, diags[0].Code)
	assert.Equal(t, "Main class \"com.example.Gone\" does not exist", diags[0].Message)

	require.NoError(t, c.SetOverlay(manifest, []byte("main: com.example.DemoPlugin\n")))
	diags, err = in.CheckFile(c, manifest)
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestDiagnosticString(t *testing.T) {
	d := inspect.Diagnostic{
		File:     "plugin.yml",
		Span:     span.Span{Start: span.Position{Line: 2, Column: 7}},
		Severity: inspect.SeverityWarning,
		Code:     inspect.CodeUnknownCommand,
		Message:  "Command \"fly\" is not declared in plugin.yml",
	}
	assert.Equal(t, "plugin.yml:2:7: warning: Command \"fly\" is not declared in plugin.yml [unknown-command]", d.String())
}

func TestInspector_MainClassWithUnknownLibraryBase(t *testing.T) {
	c, root := openProject(t)
	in := inspect.New(c.Config())
	manifest := filepath.Join(root, "src/main/resources/plugin.yml")

	require.NoError(t, c.SetOverlay(filepath.Join(root, "src/main/java/com/example/KyoriMain.java"), []byte(`package com.example;

import net.kyori.adventure.platform.AdventurePlugin;

public class KyoriMain extends AdventurePlugin {
}
`)))
	require.NoError(t, c.SetOverlay(manifest, []byte("main: com.example.KyoriMain\n")))
	diags, err := in.CheckFile(c, manifest)
	require.NoError(t, err)
	assert.Empty(t, diags)

	// JDK supertypes are known, so this one is still checked.
	require.NoError(t, c.SetOverlay(filepath.Join(root, "src/main/java/com/example/Task.java"), []byte(`package com.example;

public class Task extends NotAPlugin implements Runnable {
    public void run() {}
}
`)))
	require.NoError(t, c.SetOverlay(manifest, []byte("main: com.example.Task\n")))
	diags, err = in.CheckFile(c, manifest)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, inspect.CodeMainClassNotPlugin, diags[0].Code)
}
