//go:build js && wasm

package currenturl

import "syscall/js"

// BrowserProbe reads window.location.href from the host JavaScript
// environment. It reports false when there is no window, e.g. when running
// under Node.js.
func BrowserProbe() Probe {
	return ProbeFunc(func() (string, bool) {
		window := js.Global().Get("window")
		if window.IsUndefined() || window.IsNull() {
			return "", false
		}
		location := window.Get("location")
		if location.IsUndefined() || location.IsNull() {
			return "", false
		}
		href := location.Get("href")
		if href.Type() != js.TypeString {
			return "", false
		}
		return href.String(), true
	})
}

// DefaultProbe returns BrowserProbe on js/wasm builds.
func DefaultProbe() Probe {
	return BrowserProbe()
}
