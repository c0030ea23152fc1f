// Package platform holds the well-known names of the Bukkit, Sponge and
// mixin APIs, and what the resolver needs to know about library types that
// have no sources in a plugin project.
package platform

import (
	"regexp"
	"strings"
)

// Sponge
const (
	SpongePlugin        = "org.spongepowered.api.plugin.Plugin"
	SpongeDependency    = "org.spongepowered.api.plugin.Dependency"
	SpongePluginManager = "org.spongepowered.api.plugin.PluginManager"
	SpongeGameRegistry  = "org.spongepowered.api.GameRegistry"
	SpongeGame          = "org.spongepowered.api.Game"
	SpongeFacade        = "org.spongepowered.api.Sponge"
	SpongeAssetID       = "org.spongepowered.api.asset.AssetId"
	SpongeAssetManager  = "org.spongepowered.api.asset.AssetManager"
)

// Bukkit
const (
	BukkitJavaPlugin = "org.bukkit.plugin.java.JavaPlugin"
	BukkitPluginBase = "org.bukkit.plugin.PluginBase"
	BukkitPlugin     = "org.bukkit.plugin.Plugin"
	BukkitServer     = "org.bukkit.Server"
	BukkitFacade     = "org.bukkit.Bukkit"
)

// Mixin
const (
	Mixin    = "org.spongepowered.asm.mixin.Mixin"
	Accessor = "org.spongepowered.asm.mixin.gen.Accessor"
	Invoker  = "org.spongepowered.asm.mixin.gen.Invoker"
)

const JavaObject = "java.lang.Object"

// DefaultManifestName is the file name of a Bukkit plugin manifest.
const DefaultManifestName = "plugin.yml"

// AssetsDir is the resource directory holding plugin assets, one
// subdirectory per plugin id.
const AssetsDir = "assets"

var pluginIDPattern = regexp.MustCompile(`^[a-z][a-z0-9-_]{1,63}$`)

// IsValidPluginID reports whether id is a well-formed Sponge plugin id.
func IsValidPluginID(id string) bool {
	return pluginIDPattern.MatchString(id)
}

// librarySupertypes lists the direct supertypes of library types a project
// class may extend.
var librarySupertypes = map[string][]string{
	BukkitJavaPlugin: {BukkitPluginBase},
	BukkitPluginBase: {BukkitPlugin},
	BukkitPlugin:     {"org.bukkit.command.TabExecutor"},

	"org.bukkit.command.TabExecutor":    {"org.bukkit.command.CommandExecutor", "org.bukkit.command.TabCompleter"},
	"org.bukkit.command.CommandExecutor": nil,
	"org.bukkit.command.TabCompleter":   nil,
}

// LibrarySupertypes returns the known direct supertypes of a library type.
func LibrarySupertypes(typeName string) []string {
	return librarySupertypes[typeName]
}

// IsKnownLibraryType reports whether the supertypes of a type outside the
// project are known: it is in the library table or belongs to the JDK, which
// never extends plugin types.
func IsKnownLibraryType(typeName string) bool {
	if _, ok := librarySupertypes[typeName]; ok {
		return true
	}
	return strings.HasPrefix(typeName, "java.") || strings.HasPrefix(typeName, "javax.")
}

type methodKey struct {
	owner  string
	method string
}

// libraryReturnTypes maps library methods to their declared return types.
var libraryReturnTypes = map[methodKey]string{
	{SpongeFacade, "getPluginManager"}: SpongePluginManager,
	{SpongeFacade, "getRegistry"}:      SpongeGameRegistry,
	{SpongeFacade, "getGame"}:          SpongeGame,
	{SpongeFacade, "getAssetManager"}:  SpongeAssetManager,
	{SpongeGame, "getPluginManager"}:   SpongePluginManager,
	{SpongeGame, "getRegistry"}:        SpongeGameRegistry,
	{SpongeGame, "getAssetManager"}:    SpongeAssetManager,
	{BukkitFacade, "getServer"}:        BukkitServer,
	{BukkitFacade, "getPluginManager"}: "org.bukkit.plugin.PluginManager",
	{BukkitPlugin, "getServer"}:        BukkitServer,
	{BukkitServer, "getPluginManager"}: "org.bukkit.plugin.PluginManager",
	{BukkitJavaPlugin, "getCommand"}:   "org.bukkit.command.PluginCommand",
	{BukkitServer, "getPluginCommand"}: "org.bukkit.command.PluginCommand",
}

// LibraryReturnType returns the return type of a library method, looking at
// the owner's known supertypes as well.
func LibraryReturnType(owner, method string) (string, bool) {
	seen := make(map[string]bool)
	queue := []string{owner}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if seen[t] {
			continue
		}
		seen[t] = true
		if r, ok := libraryReturnTypes[methodKey{t, method}]; ok {
			return r, true
		}
		queue = append(queue, librarySupertypes[t]...)
	}
	return "", false
}
