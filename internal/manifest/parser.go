package manifest

import (
	"fmt"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/mhalloway/rigup/internal/platform"
)

// Parser applies a Lua manifest overlay to a base catalog.
//
// The overlay is a declarative Lua file that sets a global "rig" table:
//
//	rig = {
//	    versions = { k9s = "0.32.6" },
//	    skip = { "ibmcloud", platform.when(platform.is_arm, "oc") },
//	    aliases = {
//	        { file = ".bash_aliases", line = "alias k=kubectl" },
//	    },
//	}
//
// The already-resolved platform info is injected read-only; the overlay
// never re-resolves the architecture.
type Parser struct {
	info *platform.Info
}

// NewParser creates a manifest parser bound to detected platform info.
func NewParser(info *platform.Info) *Parser {
	return &Parser{info: info}
}

// ParseError represents a manifest parsing error with a friendly message.
type ParseError struct {
	Message string // user-facing message
	Detail  string // raw Lua error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// ApplyFile loads a Lua overlay from disk and applies it to base.
func (p *Parser) ApplyFile(base *Manifest, path string) (*Manifest, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return p.ApplyString(base, string(code))
}

// ApplyString applies a Lua overlay to base and returns the adjusted
// manifest. The base manifest is not modified.
func (p *Parser) ApplyString(base *Manifest, luaCode string) (*Manifest, error) {
	L := newSandboxedVM()
	defer L.Close()

	if p.info != nil {
		if err := platform.InjectPlatformTable(L, p.info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	overlay, err := extractOverlay(L)
	if err != nil {
		return nil, err
	}

	result := applyOverlay(base, overlay)
	if err := result.Validate(); err != nil {
		return nil, &ParseError{
			Message: "manifest validation failed",
			Detail:  err.Error(),
		}
	}
	return result, nil
}

// overlay is the parsed form of the Lua "rig" table.
type overlay struct {
	versions map[string]string
	skip     []string
	aliases  []ProfileLine
}

// extractOverlay pulls the overlay out of the Lua state. It expects a
// global "rig" table.
func extractOverlay(L *lua.LState) (*overlay, error) {
	rigVal := L.GetGlobal("rig")
	if rigVal.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'rig' table",
			Detail:  fmt.Sprintf("expected table, got %s", rigVal.Type()),
		}
	}
	table := rigVal.(*lua.LTable)

	o := &overlay{versions: map[string]string{}}

	if versionsVal := table.RawGetString("versions"); versionsVal.Type() == lua.LTTable {
		versionsVal.(*lua.LTable).ForEach(func(key, value lua.LValue) {
			if key.Type() == lua.LTString && value.Type() == lua.LTString {
				o.versions[key.String()] = value.String()
			}
		})
	}

	if skipVal := table.RawGetString("skip"); skipVal.Type() == lua.LTTable {
		skipVal.(*lua.LTable).ForEach(func(key, value lua.LValue) {
			// Skip nil entries from platform conditionals like
			// platform.when(platform.is_arm, "oc").
			if value.Type() != lua.LTString {
				return
			}
			o.skip = append(o.skip, value.String())
		})
	}

	if aliasesVal := table.RawGetString("aliases"); aliasesVal.Type() == lua.LTTable {
		aliasesVal.(*lua.LTable).ForEach(func(key, value lua.LValue) {
			if value.Type() != lua.LTTable {
				return
			}
			entry := value.(*lua.LTable)
			line := ProfileLine{}
			if fileVal := entry.RawGetString("file"); fileVal.Type() == lua.LTString {
				line.File = fileVal.String()
			}
			if lineVal := entry.RawGetString("line"); lineVal.Type() == lua.LTString {
				line.Line = lineVal.String()
			}
			if line.File != "" && line.Line != "" {
				o.aliases = append(o.aliases, line)
			}
		})
	}

	return o, nil
}

// applyOverlay merges an overlay into a copy of the base manifest,
// preserving the base's tool order.
func applyOverlay(base *Manifest, o *overlay) *Manifest {
	skipped := make(map[string]bool, len(o.skip))
	for _, name := range o.skip {
		skipped[strings.TrimSpace(name)] = true
	}

	result := &Manifest{}
	for _, tool := range base.Tools {
		if skipped[tool.Name] {
			continue
		}
		if version, ok := o.versions[tool.Name]; ok {
			tool.Version = version
		}
		result.Tools = append(result.Tools, tool)
	}

	result.ExtraProfileLines = append(result.ExtraProfileLines, base.ExtraProfileLines...)
	result.ExtraProfileLines = append(result.ExtraProfileLines, o.aliases...)
	return result
}
