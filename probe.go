package currenturl

// Probe detects whether code is running in a browser and, if so, reports the
// page's current URL.
type Probe interface {
	CurrentURL() (string, bool)
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func() (string, bool)

// CurrentURL calls f.
func (f ProbeFunc) CurrentURL() (string, bool) {
	return f()
}

// NoBrowser never reports a browser context. It is the default on servers.
var NoBrowser Probe = ProbeFunc(func() (string, bool) { return "", false })

// StaticProbe always reports href as the browser URL. Useful for tests and
// for prerendering a page as if it were loaded at a fixed location.
func StaticProbe(href string) Probe {
	return ProbeFunc(func() (string, bool) { return href, true })
}
