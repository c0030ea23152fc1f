package codebase

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dhamidi/plugref/graph"
)

func TestFileWatcher(t *testing.T) {
	c, root := openCodebase(t, pluginProject)

	w, err := NewFileWatcher(c)
	require.NoError(t, err)
	changed := make(chan string, 64)
	w.OnChange = func(path string) {
		select {
		case changed <- path:
		default:
		}
	}
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })

	path := filepath.Join(root, "core", "src", "main", "java", "com", "example", "Added.java")
	require.NoError(t, os.WriteFile(path, []byte("package com.example;\n\npublic class Added {}\n"), 0o644))
	require.Eventually(t, func() bool {
		return c.FindType("com.example.Added", graph.ProjectScope()) != nil
	}, 5*time.Second, 20*time.Millisecond)

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("OnChange was not called")
	}

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		return c.FindType("com.example.Added", graph.ProjectScope()) == nil
	}, 5*time.Second, 20*time.Millisecond)

	// Directories created later are watched too.
	dir := filepath.Join(root, "core", "src", "main", "java", "com", "example", "later")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.Eventually(t, func() bool {
		if err := os.WriteFile(filepath.Join(dir, "Late.java"), []byte("package com.example.later;\n\npublic class Late {}\n"), 0o644); err != nil {
			return false
		}
		return c.FindType("com.example.later.Late", graph.ProjectScope()) != nil
	}, 5*time.Second, 50*time.Millisecond)
}

func TestFileWatcher_MovedInDirectory(t *testing.T) {
	c, root := openCodebase(t, pluginProject)

	w, err := NewFileWatcher(c)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })

	staging := filepath.Join(t.TempDir(), "moved")
	writeFiles(t, staging, map[string]string{
		"Moved.java":     "package com.example.moved;\n\npublic class Moved {}\n",
		"deep/Deep.java": "package com.example.moved.deep;\n\npublic class Deep {}\n",
	})
	require.NoError(t, os.Rename(staging, filepath.Join(root, "core", "src", "main", "java", "com", "example", "moved")))

	require.Eventually(t, func() bool {
		return c.FindType("com.example.moved.Moved", graph.ProjectScope()) != nil &&
			c.FindType("com.example.moved.deep.Deep", graph.ProjectScope()) != nil
	}, 5*time.Second, 20*time.Millisecond)
}
