package config

// DefaultConfDirectories are the directories the public sdl.New/sdl.NewAsync
// entry points hand to NewReader (which has no default list of its own)
// when a caller does not supply its own list, mirroring
// getDefaultConfDirectories (original_source/src/configurationpaths.cpp):
// a package-installed directory and a runtime-generated one.
var DefaultConfDirectories = []string{
	"/etc/sdl",
	"/run/sdl.d",
}
