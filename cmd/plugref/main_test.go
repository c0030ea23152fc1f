package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"src/main/resources/plugin.yml": "name: Demo\nmain: com.example.Demo\ncommands:\n  heal: {}\n",
		"src/main/java/com/example/Demo.java": `package com.example;

import org.bukkit.plugin.java.JavaPlugin;

public class Demo extends JavaPlugin {
    public void onEnable() {
        getCommand("heal");
        getCommand("fly");
    }
}
`,
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCmd(t *testing.T) {
	root := writeProject(t)
	file := filepath.Join(root, "src/main/java/com/example/Demo.java")

	out, err := run(t, "--root", root, "resolve", file, "7", "21")
	require.NoError(t, err)
	assert.Contains(t, out, `command "heal" -> manifest-key commands.heal`)
	assert.Contains(t, out, "plugin.yml:4:3")

	out, err = run(t, "--root", root, "resolve", file, "8", "21")
	require.NoError(t, err)
	assert.Contains(t, out, `command "fly": unresolved`)

	out, err = run(t, "--root", root, "resolve", file, "1", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "no reference")

	_, err = run(t, "--root", root, "resolve", file, "x", "1")
	assert.Error(t, err)
}

func TestCompleteCmd(t *testing.T) {
	root := writeProject(t)
	file := filepath.Join(root, "src/main/java/com/example/Demo.java")

	out, err := run(t, "--root", root, "complete", file, "8", "21")
	require.NoError(t, err)
	assert.Contains(t, out, "heal")
	assert.Contains(t, out, "demo:heal")
}

func TestCheckCmd(t *testing.T) {
	root := writeProject(t)

	out, err := run(t, "--root", root, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "unknown-command")

	require.NoError(t, os.WriteFile(filepath.Join(root, "src/main/resources/plugin.yml"), []byte("main: com.example.Gone\n"), 0o644))
	out, err = run(t, "--root", root, "check")
	assert.Error(t, err)
	assert.Contains(t, out, "main-class-missing")
}

func TestProjectCmd(t *testing.T) {
	root := writeProject(t)

	out, err := run(t, "--root", root, "project")
	require.NoError(t, err)
	assert.Contains(t, out, "bukkit:   com.example.Demo")
	assert.Contains(t, out, filepath.Join("src", "main", "resources", "plugin.yml"))
}

func TestInvalidConfig(t *testing.T) {
	root := writeProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".plugref.yaml"), []byte("known_plugin_ids: [\"Not Valid\"]\n"), 0o644))

	_, err := run(t, "--root", root, "project")
	assert.Error(t, err)
}
