package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/catalog"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// Parser evaluates Lua catalogs with platform detection.
type Parser struct {
	detector platform.Detector
	logger   Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithLogger sets the logger used while parsing.
func WithLogger(l Logger) ParserOption {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewParser creates a parser. A nil detector skips platform injection.
func NewParser(detector platform.Detector, opts ...ParserOption) *Parser {
	p := &Parser{detector: detector, logger: defaultLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseString evaluates a Lua catalog held in memory.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*File, error) {
	if len(luaCode) > MaxCatalogSize {
		return nil, &ParseError{
			Message: "catalog too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", len(luaCode), MaxCatalogSize),
		}
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
		p.logger.Debug("platform injected", "id", info.ID, "arch", info.Arch, "distro", info.Distro)
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua error",
			Detail:  err.Error(),
		}
	}

	f, err := extractFile(L)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("catalog parsed", "tools", len(f.Tools), "envs", len(f.Envs))
	return f, nil
}

// ParseError represents a catalog parsing error with a friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua or YAML error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractFile reads the global "gearbox" table.
func extractFile(L *lua.LState) (*File, error) {
	root, ok := L.GetGlobal(luaGlobalGearbox).(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: "missing or invalid 'gearbox' table",
			Detail:  fmt.Sprintf("expected table, got %s", L.GetGlobal(luaGlobalGearbox).Type()),
		}
	}

	f := &File{}

	if v := root.RawGetString(luaFieldTools); v != lua.LNil {
		tbl, ok := v.(*lua.LTable)
		if !ok {
			return nil, fieldTypeError(luaFieldTools, "table", v)
		}
		err := forEachElement(tbl, luaFieldTools, func(field string, t *lua.LTable) error {
			tool, err := extractTool(field, t)
			if err != nil {
				return err
			}
			f.Tools = append(f.Tools, tool)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if v := root.RawGetString(luaFieldEnvs); v != lua.LNil {
		tbl, ok := v.(*lua.LTable)
		if !ok {
			return nil, fieldTypeError(luaFieldEnvs, "table", v)
		}
		err := forEachElement(tbl, luaFieldEnvs, func(field string, t *lua.LTable) error {
			env := EnvDecl{}
			var err error
			if env.Name, err = optString(t, field, luaFieldName); err != nil {
				return err
			}
			if env.Tags, err = optStrings(t, field, luaFieldTags); err != nil {
				return err
			}
			f.Envs = append(f.Envs, env)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	name, err := extractDefaultEnv(L, root.RawGetString(luaFieldDefaultEnv))
	if err != nil {
		return nil, err
	}
	f.DefaultEnv = name

	if v := root.RawGetString(luaFieldSettings); v != lua.LNil {
		tbl, ok := v.(*lua.LTable)
		if !ok {
			return nil, fieldTypeError(luaFieldSettings, "table", v)
		}
		if f.Settings, err = extractSettings(tbl); err != nil {
			return nil, err
		}
	}

	if err := f.Validate(); err != nil {
		return nil, &ParseError{Message: "catalog validation failed", Detail: err.Error()}
	}
	return f, nil
}

// forEachElement visits the array part of tbl in order. nil holes (from
// platform.when) are skipped; keyed entries are rejected because their
// order is undefined.
func forEachElement(tbl *lua.LTable, field string, fn func(field string, t *lua.LTable) error) error {
	var err error
	tbl.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		idx, ok := k.(lua.LNumber)
		if !ok {
			err = &ParseError{
				Message: fmt.Sprintf("invalid '%s' entry", field),
				Detail:  fmt.Sprintf("key %s: entries must be listed, not keyed", k.String()),
			}
			return
		}
		elemField := fmt.Sprintf("%s[%d]", field, int(idx))
		t, ok := v.(*lua.LTable)
		if !ok {
			err = fieldTypeError(elemField, "table", v)
			return
		}
		err = fn(elemField, t)
	})
	return err
}

func extractTool(field string, t *lua.LTable) (ToolDecl, error) {
	var (
		tool ToolDecl
		err  error
	)
	if tool.Name, err = optString(t, field, luaFieldName); err != nil {
		return tool, err
	}
	if tool.Version, err = optString(t, field, luaFieldVersion); err != nil {
		return tool, err
	}
	if tool.Path, err = optString(t, field, luaFieldPath); err != nil {
		return tool, err
	}
	if tool.Tags, err = optStrings(t, field, luaFieldTags); err != nil {
		return tool, err
	}

	v := t.RawGetString(luaFieldLinks)
	if v == lua.LNil {
		return tool, nil
	}
	links, ok := v.(*lua.LTable)
	if !ok {
		return tool, fieldTypeError(field+"."+luaFieldLinks, "table", v)
	}

	tool.Links = make(map[string]catalog.LinkSpec)
	links.ForEach(func(k, lv lua.LValue) {
		if err != nil {
			return
		}
		key, ok := k.(lua.LString)
		if !ok {
			err = fieldTypeError(field+"."+luaFieldLinks+" key", "string", k)
			return
		}
		linkField := field + "." + luaFieldLinks + "." + string(key)
		var link catalog.LinkSpec
		switch lt := lv.(type) {
		case lua.LString:
			link.URL = string(lt)
		case *lua.LTable:
			link, err = extractLink(linkField, lt)
		default:
			err = fieldTypeError(linkField, "table or string", lv)
		}
		tool.Links[string(key)] = link
	})
	return tool, err
}

func extractLink(field string, t *lua.LTable) (catalog.LinkSpec, error) {
	var (
		link catalog.LinkSpec
		err  error
	)
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{luaFieldURL, &link.URL},
		{luaFieldMember, &link.Member},
		{luaFieldSHA256, &link.SHA256},
		{luaFieldSignature, &link.SignatureURL},
		{luaFieldKeyring, &link.Keyring},
	} {
		if *f.dst, err = optString(t, field, f.name); err != nil {
			return link, err
		}
	}
	return link, nil
}

// extractDefaultEnv accepts a string or a function returning a string. The
// function is called once here; the sandbox leaves it no side effects to
// repeat later.
func extractDefaultEnv(L *lua.LState, v lua.LValue) (string, error) {
	switch dv := v.(type) {
	case *lua.LNilType:
		return "", nil
	case lua.LString:
		return string(dv), nil
	case *lua.LFunction:
		if err := L.CallByParam(lua.P{Fn: dv, NRet: 1, Protect: true}); err != nil {
			return "", &ParseError{Message: "default_env function failed", Detail: err.Error()}
		}
		ret := L.Get(-1)
		L.Pop(1)
		switch rv := ret.(type) {
		case lua.LString:
			return string(rv), nil
		case *lua.LNilType:
			return "", nil
		default:
			return "", fieldTypeError(luaFieldDefaultEnv+"()", "string", ret)
		}
	default:
		return "", fieldTypeError(luaFieldDefaultEnv, "string or function", v)
	}
}

func extractSettings(t *lua.LTable) (Settings, error) {
	var s Settings
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{luaFieldWorkers, &s.Workers},
		{luaFieldProbeTO, &s.ProbeTimeout},
		{luaFieldRetries, &s.DownloadRetries},
	} {
		v := t.RawGetString(f.name)
		if v == lua.LNil {
			continue
		}
		n, ok := v.(lua.LNumber)
		if !ok {
			return s, fieldTypeError(luaFieldSettings+"."+f.name, "number", v)
		}
		*f.dst = int(n)
	}
	var err error
	s.CacheDir, err = optString(t, luaFieldSettings, luaFieldCacheDir)
	return s, err
}

func optString(t *lua.LTable, field, key string) (string, error) {
	switch v := t.RawGetString(key).(type) {
	case *lua.LNilType:
		return "", nil
	case lua.LString:
		return string(v), nil
	default:
		return "", fieldTypeError(field+"."+key, "string", v)
	}
}

func optStrings(t *lua.LTable, field, key string) ([]string, error) {
	v := t.RawGetString(key)
	if v == lua.LNil {
		return nil, nil
	}
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, fieldTypeError(field+"."+key, "list of strings", v)
	}
	var (
		out []string
		err error
	)
	tbl.ForEach(func(_, item lua.LValue) {
		if err != nil {
			return
		}
		s, ok := item.(lua.LString)
		if !ok {
			err = fieldTypeError(field+"."+key, "list of strings", item)
			return
		}
		out = append(out, string(s))
	})
	return out, err
}

func fieldTypeError(field, want string, got lua.LValue) error {
	return &ParseError{
		Message: fmt.Sprintf("invalid '%s'", field),
		Detail:  fmt.Sprintf("expected %s, got %s", want, got.Type()),
	}
}

// FormatError formats a catalog error for display. Without verbose the Lua
// stack traceback is dropped.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
