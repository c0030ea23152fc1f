package codebase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/platform"
	"github.com/dhamidi/plugref/span"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func openCodebase(t *testing.T, files map[string]string) (*Codebase, string) {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, files)
	c, err := Open(context.Background(), root, nil)
	require.NoError(t, err)
	return c, c.RootDir()
}

var pluginProject = map[string]string{
	"core/build.gradle": "",
	"core/src/main/java/com/example/ExamplePlugin.java": `package com.example;

import org.bukkit.plugin.java.JavaPlugin;

public class ExamplePlugin extends BasePlugin {
    @Override
    public void onEnable() {
        getCommand("heal").setExecutor(null);
    }
}
`,
	"core/src/main/java/com/example/BasePlugin.java": `package com.example;

import org.bukkit.plugin.java.JavaPlugin;

public abstract class BasePlugin extends JavaPlugin {
}
`,
	"core/src/main/java/com/example/util/Helper.java": `package com.example.util;

import com.example.*;

public class Helper extends BasePlugin {
    @Deprecated
    private String name;

    @Deprecated
    public void run() {}
}
`,
	"core/src/main/resources/plugin.yml": "name: Example\nmain: com.example.ExamplePlugin\n",
	"api/build.gradle":                   "",
	"api/src/main/resources/lang.txt":    "",
	"api/src/main/java/com/example/api/Api.java": `package com.example.api;

@Deprecated
public interface Api {
}
`,
}

func TestCodebase_ScanAll(t *testing.T) {
	c, root := openCodebase(t, pluginProject)
	core := filepath.Join(root, "core")

	assert.Len(t, c.JavaFiles(), 4)

	cls := c.FindType("com.example.ExamplePlugin", graph.ProjectScope())
	require.NotNil(t, cls)
	assert.Equal(t, "com.example.BasePlugin", cls.SuperClass)
	assert.Equal(t, core, c.ModuleOf(cls.SourceFile))

	assert.NotNil(t, c.FindType("com.example.api.Api", graph.ModuleScope(filepath.Join(root, "api"))))
	assert.Nil(t, c.FindType("com.example.api.Api", graph.ModuleScope(core)))
	assert.Nil(t, c.FindType("com.example.Missing", graph.ProjectScope()))
}

func TestCodebase_StarImportsResolveAfterScan(t *testing.T) {
	c, _ := openCodebase(t, pluginProject)

	helper := c.FindType("com.example.util.Helper", graph.ProjectScope())
	require.NotNil(t, helper)
	assert.Equal(t, "com.example.BasePlugin", helper.SuperClass)
}

func TestCodebase_FindSubtypes(t *testing.T) {
	c, _ := openCodebase(t, pluginProject)

	var names []string
	for _, cls := range c.FindSubtypes(platform.BukkitPlugin, graph.ProjectScope()) {
		names = append(names, cls.Name)
	}
	want := []string{"com.example.BasePlugin", "com.example.ExamplePlugin", "com.example.util.Helper"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("FindSubtypes mismatch (-want +got):\n%s", diff)
	}
}

func TestCodebase_FindAnnotationInstances(t *testing.T) {
	c, root := openCodebase(t, pluginProject)

	uses := c.FindAnnotationInstances("java.lang.Deprecated", graph.ProjectScope())
	require.Len(t, uses, 3)
	assert.Equal(t, filepath.Join(root, "api", "src", "main", "java", "com", "example", "api", "Api.java"), uses[0].File())
	assert.Nil(t, uses[0].Method)
	require.NotNil(t, uses[1].Field)
	assert.Equal(t, "name", uses[1].Field.Name)
	require.NotNil(t, uses[2].Method)
	assert.Equal(t, "run", uses[2].Method.Name)

	core := graph.ModuleScope(filepath.Join(root, "core"))
	assert.Len(t, c.FindAnnotationInstances("java.lang.Deprecated", core), 2)
}

func TestCodebase_Overlays(t *testing.T) {
	c, root := openCodebase(t, pluginProject)
	path := filepath.Join(root, "core", "src", "main", "java", "com", "example", "ExamplePlugin.java")

	require.NoError(t, c.SetOverlay(path, []byte("package com.example;\npublic class Renamed {}\n")))
	assert.Nil(t, c.FindType("com.example.ExamplePlugin", graph.ProjectScope()))
	assert.NotNil(t, c.FindType("com.example.Renamed", graph.ProjectScope()))

	content, err := c.Content(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Renamed")

	require.NoError(t, c.ClearOverlay(path))
	assert.NotNil(t, c.FindType("com.example.ExamplePlugin", graph.ProjectScope()))
	assert.Nil(t, c.FindType("com.example.Renamed", graph.ProjectScope()))
}

func TestCodebase_Manifests(t *testing.T) {
	c, root := openCodebase(t, pluginProject)
	manifestPath := filepath.Join(root, "core", "src", "main", "resources", "plugin.yml")

	assert.Equal(t, []string{manifestPath}, c.ManifestFiles(graph.ProjectScope()))
	assert.Empty(t, c.ManifestFiles(graph.ModuleScope(filepath.Join(root, "api"))))

	m, err := c.ParseManifest(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, "Example", m.Name())

	require.NoError(t, c.SetOverlay(manifestPath, []byte("name: Changed\n")))
	m, err = c.ParseManifest(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, "Changed", m.Name())

	apiManifest := filepath.Join(root, "api", "src", "main", "resources", "plugin.yml")
	writeFiles(t, root, map[string]string{"api/src/main/resources/plugin.yml": "name: Api\n"})
	require.NoError(t, c.ScanFile(apiManifest))
	assert.Equal(t, []string{apiManifest}, c.ManifestFiles(graph.ModuleScope(filepath.Join(root, "api"))))

	require.NoError(t, os.Remove(apiManifest))
	require.NoError(t, c.ScanFile(apiManifest))
	assert.Empty(t, c.ManifestFiles(graph.ModuleScope(filepath.Join(root, "api"))))
}

func TestCodebase_Files(t *testing.T) {
	c, root := openCodebase(t, map[string]string{
		"src/main/resources/assets/demo/sounds/hit.ogg": "",
		"src/main/resources/assets/demo/readme.txt":     "",
	})
	resources := filepath.Join(root, "src", "main", "resources")
	assert.Equal(t, []string{resources}, c.SourceRoots(root))

	entry, ok := c.FindByRelativePath(resources, "assets/demo/sounds")
	require.True(t, ok)
	assert.True(t, entry.IsDir)
	_, ok = c.FindByRelativePath(resources, "assets/demo/missing")
	assert.False(t, ok)

	children, err := c.Children(filepath.Join(resources, "assets", "demo"))
	require.NoError(t, err)
	want := []graph.Entry{
		{Name: "readme.txt", Path: filepath.Join(resources, "assets", "demo", "readme.txt")},
		{Name: "sounds", Path: filepath.Join(resources, "assets", "demo", "sounds"), IsDir: true},
	}
	if diff := cmp.Diff(want, children); diff != "" {
		t.Errorf("Children mismatch (-want +got):\n%s", diff)
	}
}

func TestCodebase_RemoveFile(t *testing.T) {
	c, root := openCodebase(t, pluginProject)
	path := filepath.Join(root, "core", "src", "main", "java", "com", "example", "BasePlugin.java")

	c.RemoveFile(path)
	assert.Nil(t, c.FindType("com.example.BasePlugin", graph.ProjectScope()))
	assert.Nil(t, c.GetFile(path))
	assert.Len(t, c.JavaFiles(), 3)
}

func TestPositionConversion(t *testing.T) {
	content := []byte("a\n\"é𝄞x\"\n")

	// é is two bytes and one UTF-16 unit, 𝄞 is four bytes and two units.
	pos := fromProtocolPosition(content, protocol.Position{Line: 1, Character: 4})
	assert.Equal(t, span.Position{Line: 2, Column: 8}, pos)
	assert.Equal(t, protocol.Position{Line: 1, Character: 4}, toProtocolPosition(content, pos))

	assert.Equal(t, span.Position{Line: 1, Column: 2}, fromProtocolPosition(content, protocol.Position{Line: 0, Character: 9}))
}

func TestURIToPath(t *testing.T) {
	path, err := uriToPath("file:///tmp/project/plugin.yml")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/tmp/project/plugin.yml"), path)

	_, err = uriToPath("untitled:Untitled-1")
	assert.Error(t, err)
}
