package common

import (
	"strings"

	"charm.land/bubbles/v2/key"

	"github.com/miosa/osa-memos/style"
)

// KeyHelp renders a one-line key-binding hint. Each binding is rendered as
//
//	key description
//
// Bindings whose Enabled() is false are omitted.
func KeyHelp(bindings ...key.Binding) string {
	var parts []string
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		keyStr := style.HelpKey.Render(ShortcutLabel(b))
		helpStr := style.HelpDesc.Render(" " + b.Help().Desc)
		parts = append(parts, keyStr+helpStr)
	}
	return strings.Join(parts, style.HelpSeparator.Render(" · "))
}

// ShortcutLabel returns the binding's help key, falling back to its first
// key. Returns an empty string if the binding has neither.
func ShortcutLabel(b key.Binding) string {
	if k := b.Help().Key; k != "" {
		return k
	}
	keys := b.Keys()
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}
