package reference_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dhamidi/plugref/codebase"
	"github.com/dhamidi/plugref/reference"
	"github.com/dhamidi/plugref/span"
)

const (
	manifestFile  = "src/main/resources/plugin.yml"
	examplePlugin = "src/main/java/com/example/ExamplePlugin.java"
	alphaPlugin   = "src/main/java/com/example/sponge/AlphaPlugin.java"
	betaPlugin    = "src/main/java/com/example/sponge/BetaPlugin.java"
	gammaPlugin   = "src/main/java/com/example/zeta/GammaPlugin.java"
	duplicate     = "src/main/java/com/example/zeta/DuplicateAlpha.java"
	badPlugin     = "src/main/java/com/example/zeta/BadPlugin.java"
	nineLives     = "src/main/java/com/example/zeta/NineLives.java"
	entityMixin   = "src/main/java/com/example/mixin/EntityAccessor.java"
	entity        = "src/main/java/com/example/world/Entity.java"
)

var fixture = map[string]string{
	manifestFile: `name: Example
main: com.example.ExamplePlugin
commands:
  heal:
    description: Heals
  Feed:
    description: Feeds
`,
	examplePlugin: `package com.example;

import org.bukkit.Bukkit;
import org.bukkit.plugin.java.JavaPlugin;

public class ExamplePlugin extends JavaPlugin {
    @Override
    public void onEnable() {
        getCommand("heal").setExecutor(null);
        getCommand("example:FEED");
        Bukkit.getPluginCommand("missing");
        String plain = "plain";
    }
}
`,
	"src/main/java/com/example/AbstractPlugin.java": `package com.example;

import org.bukkit.plugin.java.JavaPlugin;

public abstract class AbstractPlugin extends JavaPlugin {
}
`,
	alphaPlugin: `package com.example.sponge;

import org.spongepowered.api.Sponge;
import org.spongepowered.api.plugin.Dependency;
import org.spongepowered.api.plugin.Plugin;

@Plugin(id = AlphaPlugin.ID, name = "Alpha", dependencies = {@Dependency(id = "beta"), @Dependency(id = "")})
public class AlphaPlugin {
    static final String ID = "alpha";

    void check() {
        Sponge.getPluginManager().getPlugin("beta");
        Sponge.getPluginManager().isLoaded("nothing");
    }
}
`,
	betaPlugin: `package com.example.sponge;

import org.spongepowered.api.asset.Asset;
import org.spongepowered.api.asset.AssetId;
import org.spongepowered.api.plugin.Plugin;

@Plugin(id = "beta", name = "Beta")
public class BetaPlugin {
    @AssetId("sounds/hit.ogg")
    private Asset hit;

    @AssetId("sounds/")
    private Asset sounds;

    @AssetId("missing.txt")
    private Asset missing;

    @AssetId("../alpha/secret.txt")
    private Asset escape;
}
`,
	gammaPlugin: `package com.example.zeta;

import org.spongepowered.api.Sponge;
import org.spongepowered.api.plugin.Plugin;

@Plugin(id = "gamma")
public class GammaPlugin {
    void check() {
        Sponge.getPluginManager().getPlugin("alpha");
    }
}
`,
	duplicate: `package com.example.zeta;

import org.spongepowered.api.plugin.Plugin;

@Plugin(id = "alpha", name = "Second Alpha")
public class DuplicateAlpha {
}
`,
	badPlugin: `package com.example.zeta;

import org.spongepowered.api.Sponge;
import org.spongepowered.api.plugin.Plugin;

@Plugin(id = "Bad")
public class BadPlugin {
    void check() {
        Sponge.getPluginManager().getPlugin("Bad");
    }
}
`,
	nineLives: `package com.example.zeta;

import org.spongepowered.api.plugin.Plugin;

@Plugin(id = "9lives")
public class NineLives {
}
`,
	entityMixin: `package com.example.mixin;

import com.example.world.Entity;
import org.spongepowered.asm.mixin.Mixin;
import org.spongepowered.asm.mixin.gen.Accessor;
import org.spongepowered.asm.mixin.gen.Invoker;

@Mixin(Entity.class)
public interface EntityAccessor {
    @Accessor
    int getHealth();

    @Accessor("name")
    void setDisplayName(String name);

    @Accessor
    boolean isAlive();

    @Accessor
    int getMana();

    @Invoker
    void callDamage(int amount);

    @Invoker
    Entity newEntity(String name);
}
`,
	entity: `package com.example.world;

public class Entity {
    private int health;
    private String name;
    private boolean alive;

    public Entity(String name) {
        this.name = name;
    }

    public int getHealth() {
        return health;
    }

    void damage(int amount) {
        health -= amount;
    }

    void damage(int amount, String cause) {
    }
}
`,
	"src/main/resources/assets/beta/sounds/hit.ogg":        "",
	"src/main/resources/assets/beta/sounds/music/theme.ogg": "",
	"src/main/resources/assets/beta/lang.txt":               "",
	"src/main/resources/assets/alpha/secret.txt":            "",
}

type testProject struct {
	t        *testing.T
	codebase *codebase.Codebase
	root     string
}

func newTestProject(t *testing.T) *testProject {
	t.Helper()
	root := t.TempDir()
	for name, content := range fixture {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	c, err := codebase.Open(context.Background(), root, nil)
	require.NoError(t, err)
	return &testProject{t: t, codebase: c, root: c.RootDir()}
}

func (p *testProject) path(name string) string {
	return filepath.Join(p.root, filepath.FromSlash(name))
}

// site returns the site with the cursor offset bytes after the first
// occurrence of marker in file.
func (p *testProject) site(file, marker string, offset int) *reference.Site {
	p.t.Helper()
	path := p.path(file)
	content, err := p.codebase.Content(path)
	require.NoError(p.t, err)

	i := strings.Index(string(content), marker)
	require.GreaterOrEqual(p.t, i, 0, "marker %q not found in %s", marker, file)
	i += offset
	line := strings.Count(string(content[:i]), "\n") + 1
	col := i - strings.LastIndex(string(content[:i]), "\n")

	site, err := reference.SiteAt(p.codebase, path, span.Position{Line: line, Column: col})
	require.NoError(p.t, err)
	require.NotNil(p.t, site, "no site at %q in %s", marker, file)
	return site
}

func texts(variants []reference.Variant) []string {
	var result []string
	for _, v := range variants {
		result = append(result, v.Text)
	}
	return result
}
