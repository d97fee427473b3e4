// Package config loads gearbox catalog files.
//
// # Overview
//
// A catalog declares the tools and environments gearbox knows about. It is
// written either in Lua (gearbox.lua) or YAML (gearbox.yaml / gearbox.yml).
// Both formats decode into the same File value, which is validated and
// turned into a catalog.Catalog.
//
// # Lua catalogs
//
// Lua catalogs run in a sandboxed gopher-lua VM. Before user code runs, a
// read-only platform table is injected (see platform.InjectPlatformTable) so
// catalogs can branch on the host:
//
//	gearbox = {
//	  tools = {
//	    { name = "jq", version = "1.7.1", tags = {"json"},
//	      links = {
//	        linux   = { url = "https://example.com/jq-linux64" },
//	        windows = { url = "https://example.com/jq-win64.exe" },
//	      } },
//	    { name = "git", tags = {"all"}, path = "/usr/bin/git" },
//	    platform.when(platform.is_linux, { name = "strace", path = "/usr/bin/strace" }),
//	  },
//	  envs = { { name = "dev" }, { name = "prod", tags = {"release"} } },
//	  default_env = function() return getenv("GEARBOX_ENV") or "dev" end,
//	  settings = { workers = 4, probe_timeout = 10, download_retries = 0 },
//	}
//
// The sandbox removes os, io, debug and every code loading function. A
// read-only getenv(name) helper is provided instead of os.getenv.
//
// # Managed and unmanaged tools
//
// A tool without a path is managed: gearbox installs it under the cache's
// tools directory from the link declared for the current platform. A tool
// with an explicit path is unmanaged and never installed or removed.
package config
