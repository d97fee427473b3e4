package config

// Lua schema field names and globals.
const (
	luaGlobalGearbox   = "gearbox"
	luaFieldTools      = "tools"
	luaFieldEnvs       = "envs"
	luaFieldDefaultEnv = "default_env"
	luaFieldSettings   = "settings"
	luaFieldName       = "name"
	luaFieldVersion    = "version"
	luaFieldTags       = "tags"
	luaFieldPath       = "path"
	luaFieldLinks      = "links"
	luaFieldURL        = "url"
	luaFieldMember     = "member"
	luaFieldSHA256     = "sha256"
	luaFieldSignature  = "signature"
	luaFieldKeyring    = "keyring"
	luaFieldWorkers    = "workers"
	luaFieldProbeTO    = "probe_timeout"
	luaFieldRetries    = "download_retries"
	luaFieldCacheDir   = "cache_dir"
	luaFuncGetenv      = "getenv"
)

// Catalog file names searched in order by Discover.
var catalogFileNames = []string{"gearbox.lua", "gearbox.yaml", "gearbox.yml"}

// Resource limits.
const (
	MaxCatalogSize = 10 * 1024 * 1024
	MaxToolCount   = 1000
	MaxEnvCount    = 1000
)
