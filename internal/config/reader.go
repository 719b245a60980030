package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	logger "github.com/ricplt/sdlgo/internal/telemetry/log"
)

// Environment variable names recognized by Reader. DatabaseDaemonConfEnvVar
// and the HostEnvVar/PortEnvVar pair are two historical ways of pinning the
// database configuration from the environment; either pins the topology to
// redis-standalone and always wins over any JSON "database" block.
const (
	DatabaseDaemonConfEnvVar = "DATABASE_DAEMON_CONF"
	DbHostEnvVarName         = "DB_HOST_ENV_VAR_NAME"
	DbPortEnvVarName         = "DB_PORT_ENV_VAR_NAME"
)

var validate = validator.New()

type databaseJSON struct {
	Type    string               `mapstructure:"type" validate:"required"`
	Servers []databaseServerJSON `mapstructure:"servers" validate:"required,min=1,dive"`
}

type databaseServerJSON struct {
	Address string `mapstructure:"address" validate:"required"`
}

type namespaceEntryJSON struct {
	NamespacePrefix     string `mapstructure:"namespacePrefix" validate:"required"`
	UseDbBackend        *bool  `mapstructure:"useDbBackend" validate:"required"`
	EnableNotifications *bool  `mapstructure:"enableNotifications" validate:"required"`
}

type namespaceSourceEntry struct {
	data   map[string]interface{}
	source string
}

// Reader implements the SDL configuration precedence: an environment
// variable, if present, always overrides an ordered set of JSON files;
// namespace entries accumulate across every file, later files overwriting
// entries for the same prefix.
type Reader struct {
	databasePinnedByEnv bool
	envSource           string
	envServerAddresses  string // raw comma-separated host[:port] list

	jsonDatabaseConfiguration map[string]interface{}
	jsonDatabaseSource        string

	namespaceEntries map[string]namespaceSourceEntry
}

// NewReader builds a Reader from the default environment variables and the
// JSON files found in dirs (searched in the given order, each directory's
// non-hidden "*.json" files merged together and sorted lexicographically
// across the whole set before parsing).
func NewReader(dirs []string) (*Reader, error) {
	r := &Reader{namespaceEntries: make(map[string]namespaceSourceEntry)}
	r.applyEnvironment()

	paths, err := findConfigurationFiles(dirs)
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, NewMalformedSourceError(path, err)
		}
		if err := r.readConfiguration(data, path); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Reader) applyEnvironment() {
	if v := os.Getenv(DatabaseDaemonConfEnvVar); v != "" {
		r.databasePinnedByEnv = true
		r.envSource = DatabaseDaemonConfEnvVar
		r.envServerAddresses = v
		return
	}
	if host := os.Getenv(DbHostEnvVarName); host != "" {
		r.databasePinnedByEnv = true
		r.envSource = DbHostEnvVarName
		if port := os.Getenv(DbPortEnvVarName); port != "" {
			r.envServerAddresses = host + ":" + port
		} else {
			r.envServerAddresses = host
		}
	}
}

// findConfigurationFiles returns every non-hidden "*.json" file across dirs,
// sorted lexicographically across the whole set (not per directory). A
// directory that does not exist or cannot be read is silently skipped, as
// in the original implementation.
func findConfigurationFiles(dirs []string) ([]string, error) {
	var paths []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
				continue
			}
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadConfigurationFromInputStream discards every namespace entry read so
// far and parses input in their place. A "database" block in input replaces
// the JSON-file-sourced one; without one, the earlier block is kept. An
// environment-variable pin is left untouched. Meant for test usage.
func (r *Reader) ReadConfigurationFromInputStream(input io.Reader) error {
	r.namespaceEntries = make(map[string]namespaceSourceEntry)
	data, err := io.ReadAll(input)
	if err != nil {
		return NewMalformedSourceError("<istream>", err)
	}
	return r.readConfiguration(data, "<istream>")
}

func (r *Reader) readConfiguration(data []byte, source string) error {
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		logger.Error("failed to parse SDL configuration", logger.Source(source), logger.Err(err))
		return NewMalformedSourceError(source, err)
	}

	if !r.databasePinnedByEnv {
		if db, ok := tree["database"]; ok {
			if dbMap, ok := db.(map[string]interface{}); ok {
				r.jsonDatabaseConfiguration = dbMap
				r.jsonDatabaseSource = source
			}
		}
	}

	if sdl, ok := tree["sharedDataLayer"]; ok {
		entries, ok := sdl.([]interface{})
		if !ok {
			return NewMalformedSourceError(source, fmt.Errorf("\"sharedDataLayer\" must be an array"))
		}
		for _, raw := range entries {
			entryMap, ok := raw.(map[string]interface{})
			if !ok {
				return NewMalformedSourceError(source, fmt.Errorf("sharedDataLayer entry must be an object"))
			}
			prefix, _ := entryMap["namespacePrefix"].(string)
			if prefix == "" {
				return NewMissingFieldError(source, "namespacePrefix")
			}
			r.namespaceEntries[prefix] = namespaceSourceEntry{data: entryMap, source: source}
		}
	}

	return nil
}

// ReadDatabaseConfiguration populates dbConfig from whichever source has
// precedence. dbConfig must be empty; populating an already-populated
// container is a programming error and aborts the process.
func (r *Reader) ReadDatabaseConfiguration(dbConfig *DatabaseConfiguration) error {
	if !dbConfig.IsEmpty() {
		abort("database configuration can be read only to an empty container")
		return nil
	}

	if r.databasePinnedByEnv {
		if err := dbConfig.CheckAndApplyDbType(r.envSource, "redis-standalone"); err != nil {
			logger.Error("configuration error", logger.Source(r.envSource), logger.Err(err))
			return err
		}
		for _, addr := range strings.Split(r.envServerAddresses, ",") {
			if err := dbConfig.CheckAndApplyServerAddress(r.envSource, addr); err != nil {
				logger.Error("configuration error", logger.Source(r.envSource), logger.Err(err))
				return err
			}
		}
		return nil
	}

	if r.jsonDatabaseConfiguration == nil {
		return nil
	}

	var parsed databaseJSON
	if err := mapstructure.Decode(r.jsonDatabaseConfiguration, &parsed); err != nil {
		return NewMalformedSourceError(r.jsonDatabaseSource, err)
	}
	if err := validateStruct(r.jsonDatabaseSource, &parsed); err != nil {
		logger.Error("configuration error", logger.Source(r.jsonDatabaseSource), logger.Err(err))
		return err
	}

	if err := dbConfig.CheckAndApplyDbType(r.jsonDatabaseSource, parsed.Type); err != nil {
		logger.Error("configuration error", logger.Source(r.jsonDatabaseSource), logger.Err(err))
		return err
	}
	for _, server := range parsed.Servers {
		if err := dbConfig.CheckAndApplyServerAddress(r.jsonDatabaseSource, server.Address); err != nil {
			logger.Error("configuration error", logger.Source(r.jsonDatabaseSource), logger.Err(err))
			return err
		}
	}
	return nil
}

// ReadNamespaceConfigurations populates nsConfigs from every accumulated
// "sharedDataLayer" entry. nsConfigs must be empty; populating an
// already-populated container is a programming error and aborts the
// process.
func (r *Reader) ReadNamespaceConfigurations(nsConfigs *NamespaceConfigurations) error {
	if !nsConfigs.IsEmpty() {
		abort("namespace configurations can be read only to an empty container")
		return nil
	}

	prefixes := make([]string, 0, len(r.namespaceEntries))
	for prefix := range r.namespaceEntries {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	for _, prefix := range prefixes {
		entry := r.namespaceEntries[prefix]

		var parsed namespaceEntryJSON
		if err := mapstructure.Decode(entry.data, &parsed); err != nil {
			return NewMalformedSourceError(entry.source, err)
		}
		if err := validateStruct(entry.source, &parsed); err != nil {
			logger.Error("configuration error", logger.Source(entry.source), logger.Err(err))
			return err
		}

		if err := nsConfigs.AddNamespaceConfiguration(NamespaceConfiguration{
			Prefix:              parsed.NamespacePrefix,
			UseDbBackend:        *parsed.UseDbBackend,
			EnableNotifications: *parsed.EnableNotifications,
			Source:              entry.source,
		}); err != nil {
			logger.Error("configuration error", logger.Source(entry.source), logger.Err(err))
			return err
		}
	}
	return nil
}

// validateStruct runs go-playground/validator tag validation and maps the
// first violation to a ConfigError naming source and field. Business rules
// the tag vocabulary cannot express (enableNotifications implies
// useDbBackend, the namespace character set) are hand-checked in
// NamespaceConfigurations.AddNamespaceConfiguration instead.
func validateStruct(source string, v interface{}) error {
	if err := validate.Struct(v); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return NewMissingFieldError(source, verrs[0].Field())
		}
		return NewMalformedSourceError(source, err)
	}
	return nil
}
