package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv(DatabaseDaemonConfEnvVar, "")
	t.Setenv(DbHostEnvVarName, "")
	t.Setenv(DbPortEnvVarName, "")
}

func TestReader_DatabaseDaemonConfEnvVar(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv(DatabaseDaemonConfEnvVar, "redis1:7000,redis2:7001")

	r, err := NewReader(nil)
	require.NoError(t, err)

	dbCfg := NewDatabaseConfiguration()
	require.NoError(t, r.ReadDatabaseConfiguration(dbCfg))

	assert.Equal(t, DbTypeRedisStandalone, dbCfg.DbType())
	addrs := dbCfg.ServerAddresses()
	require.Len(t, addrs, 2)
	assert.Equal(t, "redis1", addrs[0].Host)
	assert.Equal(t, uint16(7000), addrs[0].Port)
	assert.Equal(t, "redis2", addrs[1].Host)
	assert.Equal(t, uint16(7001), addrs[1].Port)
}

func TestReader_HostPortEnvVarPair(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv(DbHostEnvVarName, "dbhost")
	t.Setenv(DbPortEnvVarName, "6400")

	r, err := NewReader(nil)
	require.NoError(t, err)

	dbCfg := NewDatabaseConfiguration()
	require.NoError(t, r.ReadDatabaseConfiguration(dbCfg))

	assert.Equal(t, DbTypeRedisStandalone, dbCfg.DbType())
	addrs := dbCfg.ServerAddresses()
	require.Len(t, addrs, 1)
	assert.Equal(t, "dbhost", addrs[0].Host)
	assert.Equal(t, uint16(6400), addrs[0].Port)
}

func TestReader_JSONDirectoryScanOrderedAndMerged(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()

	writeFile(t, dir, "0-base.json", `{
		"database": {"type": "redis-cluster", "servers": [{"address": "r1:6379"}]},
		"sharedDataLayer": [
			{"namespacePrefix": "policies", "useDbBackend": true, "enableNotifications": false}
		]
	}`)
	writeFile(t, dir, "1-override.json", `{
		"sharedDataLayer": [
			{"namespacePrefix": "policies", "useDbBackend": true, "enableNotifications": true},
			{"namespacePrefix": "cache", "useDbBackend": false, "enableNotifications": false}
		]
	}`)
	writeFile(t, dir, ".hidden.json", `{"sharedDataLayer": [{"namespacePrefix": "ignored", "useDbBackend": true, "enableNotifications": false}]}`)

	r, err := NewReader([]string{dir})
	require.NoError(t, err)

	dbCfg := NewDatabaseConfiguration()
	require.NoError(t, r.ReadDatabaseConfiguration(dbCfg))
	assert.Equal(t, DbTypeRedisCluster, dbCfg.DbType())

	nsCfgs := NewNamespaceConfigurations()
	require.NoError(t, r.ReadNamespaceConfigurations(nsCfgs))

	policies, ok := nsCfgs.Lookup("policies-1")
	require.True(t, ok)
	assert.True(t, policies.EnableNotifications, "second file's entry should overwrite the first")

	cache, ok := nsCfgs.Lookup("cache-7")
	require.True(t, ok)
	assert.False(t, cache.UseDbBackend)

	_, ok = nsCfgs.Lookup("ignored-x")
	assert.False(t, ok, "hidden files must not be read")
}

func TestReader_EnvVarOverridesJSONDatabase(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv(DatabaseDaemonConfEnvVar, "envhost:6379")

	dir := t.TempDir()
	writeFile(t, dir, "0.json", `{"database": {"type": "redis-cluster", "servers": [{"address": "jsonhost:6379"}]}}`)

	r, err := NewReader([]string{dir})
	require.NoError(t, err)

	dbCfg := NewDatabaseConfiguration()
	require.NoError(t, r.ReadDatabaseConfiguration(dbCfg))

	assert.Equal(t, DbTypeRedisStandalone, dbCfg.DbType())
	addrs := dbCfg.ServerAddresses()
	require.Len(t, addrs, 1)
	assert.Equal(t, "envhost", addrs[0].Host)
}

func TestReader_AbortsOnNonEmptyDatabaseContainer(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv(DatabaseDaemonConfEnvVar, "host:6379")

	var abortMsg string
	orig := FatalFunc
	FatalFunc = func(msg string) { abortMsg = msg }
	defer func() { FatalFunc = orig }()

	r, err := NewReader(nil)
	require.NoError(t, err)

	dbCfg := NewDatabaseConfiguration()
	require.NoError(t, dbCfg.CheckAndApplyServerAddress("prior", "already:1234"))

	require.NoError(t, r.ReadDatabaseConfiguration(dbCfg))
	assert.NotEmpty(t, abortMsg)
}

func TestReader_AbortsOnNonEmptyNamespaceContainer(t *testing.T) {
	clearConfigEnv(t)

	var abortMsg string
	orig := FatalFunc
	FatalFunc = func(msg string) { abortMsg = msg }
	defer func() { FatalFunc = orig }()

	r, err := NewReader(nil)
	require.NoError(t, err)

	nsCfgs := NewNamespaceConfigurations()
	require.NoError(t, nsCfgs.AddNamespaceConfiguration(NamespaceConfiguration{Prefix: "x", UseDbBackend: true}))

	require.NoError(t, r.ReadNamespaceConfigurations(nsCfgs))
	assert.NotEmpty(t, abortMsg)
}

func TestReader_InconsistentNotificationsIsConfigError(t *testing.T) {
	clearConfigEnv(t)

	var r Reader
	r.namespaceEntries = map[string]namespaceSourceEntry{}
	require.NoError(t, r.readConfiguration([]byte(`{
		"sharedDataLayer": [
			{"namespacePrefix": "bad", "useDbBackend": false, "enableNotifications": true}
		]
	}`), "inline"))

	nsCfgs := NewNamespaceConfigurations()
	err := r.ReadNamespaceConfigurations(nsCfgs)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ErrInconsistentNotifications, cfgErr.Code)
}

func TestReader_InvalidNamespacePrefixIsConfigError(t *testing.T) {
	clearConfigEnv(t)

	var r Reader
	r.namespaceEntries = map[string]namespaceSourceEntry{}
	require.NoError(t, r.readConfiguration([]byte(`{
		"sharedDataLayer": [
			{"namespacePrefix": "bad,prefix", "useDbBackend": true, "enableNotifications": false}
		]
	}`), "inline"))

	nsCfgs := NewNamespaceConfigurations()
	err := r.ReadNamespaceConfigurations(nsCfgs)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ErrInvalidNamespacePrefix, cfgErr.Code)
}

func TestReader_MissingFieldIsConfigError(t *testing.T) {
	clearConfigEnv(t)

	var r Reader
	r.namespaceEntries = map[string]namespaceSourceEntry{}
	require.NoError(t, r.readConfiguration([]byte(`{
		"sharedDataLayer": [
			{"namespacePrefix": "incomplete"}
		]
	}`), "inline"))

	nsCfgs := NewNamespaceConfigurations()
	err := r.ReadNamespaceConfigurations(nsCfgs)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ErrMissingField, cfgErr.Code)
}

func TestReader_InvalidDbTypeIsConfigError(t *testing.T) {
	clearConfigEnv(t)

	var r Reader
	r.jsonDatabaseConfiguration = map[string]interface{}{
		"type":    "not-a-real-type",
		"servers": []interface{}{map[string]interface{}{"address": "h:1"}},
	}
	r.jsonDatabaseSource = "inline"

	dbCfg := NewDatabaseConfiguration()
	err := r.ReadDatabaseConfiguration(dbCfg)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, ErrInvalidDbType, cfgErr.Code)
}

func TestReader_ReadConfigurationFromInputStreamReplacesNamespaces(t *testing.T) {
	clearConfigEnv(t)

	r, err := NewReader(nil)
	require.NoError(t, err)

	require.NoError(t, r.ReadConfigurationFromInputStream(strings.NewReader(`{
		"sharedDataLayer": [
			{"namespacePrefix": "stream", "useDbBackend": true, "enableNotifications": false}
		]
	}`)))

	nsCfgs := NewNamespaceConfigurations()
	require.NoError(t, r.ReadNamespaceConfigurations(nsCfgs))
	_, ok := nsCfgs.Lookup("stream-1")
	assert.True(t, ok)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
