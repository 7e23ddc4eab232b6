package platform

import "strings"

// archRule is one step of the ordered rewrite chain. Rules are evaluated
// top-to-bottom; the first matching rule wins and no later rule runs.
type archRule struct {
	match   func(raw string) bool
	rewrite func(raw string) Tag
}

// archRules is the ordered substitution chain that maps raw machine
// identifiers to release tags. The exact aarch64 rule is listed before the
// ARM-prefix rule so aarch64 always resolves to arm64 and never to a
// mangled arm tag with residual digits.
var archRules = []archRule{
	{
		match:   func(raw string) bool { return raw == "x86_64" },
		rewrite: func(string) Tag { return ArchAMD64 },
	},
	{
		match:   func(raw string) bool { return raw == "aarch64" },
		rewrite: func(string) Tag { return ArchARM64 },
	},
	{
		match: func(raw string) bool { return strings.HasPrefix(raw, "arm") },
		rewrite: func(raw string) Tag {
			if strings.HasPrefix(raw, "arm64") {
				return ArchARM64
			}
			return ArchARM
		},
	},
}

// ResolveArch maps a raw machine identifier (as reported by uname -m) to a
// canonical release tag. Unrecognized identifiers propagate unchanged with
// no error; downstream URL construction treats a non-canonical tag as a
// possible invalid-architecture condition. Pure function of its input.
func ResolveArch(raw string) Tag {
	for _, rule := range archRules {
		if rule.match(raw) {
			return rule.rewrite(raw)
		}
	}
	return Tag(raw)
}
