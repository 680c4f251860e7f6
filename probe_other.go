//go:build !(js && wasm)

package currenturl

// DefaultProbe returns NoBrowser outside of js/wasm builds.
func DefaultProbe() Probe {
	return NoBrowser
}
