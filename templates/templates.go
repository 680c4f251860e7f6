// Package templates renders Go html templates with access to the current URL.
//
// Templates (*.tmpl) are loaded from directories and can call:
//
//	{{ currentURL }}       the absolute URL of the request being rendered
//	{{ currentPath }}      its path
//	{{ absURL "/login" }}  a reference resolved against the current URL
//
// Configuration:
// |------------------------------|-----------------------|
// | Env                          | Key                   |
// | -----------------------------|-----------------------|
// | CU__TEMPLATES__ALWAYS_PARSE  | templates.alwaysParse |
// | CU__TEMPLATES__DIRS          | templates.dirs        |
// |------------------------------|-----------------------|
package templates

import (
	"bufio"
	"bytes"
	"context"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dpup/currenturl"
	"github.com/dpup/currenturl/errors"
	"github.com/dpup/currenturl/logging"
	"google.golang.org/grpc/codes"
)

func init() {
	currenturl.RegisterConfigKeys(
		currenturl.ConfigKeyInfo{
			Key:         "templates.alwaysParse",
			Description: "Re-parse templates on every render, useful in development",
			Type:        "bool",
			Default:     false,
		},
		currenturl.ConfigKeyInfo{
			Key:         "templates.dirs",
			Description: "Directories to load *.tmpl files from",
			Type:        "[]string",
		},
	)
}

// New returns a Renderer configured from currenturl.Config.
func New() *Renderer {
	return &Renderer{
		alwaysParse: currenturl.Config.Bool("templates.alwaysParse"),
		dirs:        currenturl.Config.Strings("templates.dirs"),
	}
}

// Renderer loads and renders go templates.
type Renderer struct {
	alwaysParse bool
	dirs        []string
	inline      [][2]string // name, text

	mu        sync.RWMutex
	templates *template.Template
}

// TemplateData is passed to every template.
type TemplateData struct {
	Data   interface{}
	Config map[string]interface{}
}

// Load templates (*.tmpl) contained within the provided directories, and the
// configured ones, and all sub-directories.
func (r *Renderer) Load(dirs ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirs = append(r.dirs, dirs...)
	return r.parseAll()
}

// Parse adds a named template from a string.
func (r *Renderer) Parse(name, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.init()
	if _, err := r.templates.New(name).Parse(text); err != nil {
		return err
	}
	r.inline = append(r.inline, [2]string{name, text})
	return nil
}

// HasDirs reports whether any template directories are configured.
func (r *Renderer) HasDirs() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.dirs) > 0
}

// Has reports whether a template with the given name has been loaded.
func (r *Renderer) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.templates != nil && r.templates.Lookup(name) != nil
}

// Render a template. Template functions that depend on the request resolve
// it from ctx, see currenturl.FromContext.
func (r *Renderer) Render(ctx context.Context, name string, data interface{}) (string, error) {
	t, err := r.bound(ctx)
	if err != nil {
		return "", err
	}

	var b bytes.Buffer
	w := bufio.NewWriter(&b)
	err = t.ExecuteTemplate(w, name, TemplateData{Data: data, Config: currenturl.Config.All()})
	w.Flush()
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Handler renders a template for each request. The data func may be nil.
func (r *Renderer) Handler(name string, data func(*http.Request) interface{}) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var d interface{}
		if data != nil {
			d = data(req)
		}
		out, err := r.Render(req.Context(), name, d)
		if err != nil {
			logging.Errorw(req.Context(), "template render failed", "template", name, "error", err)
			http.Error(w, http.StatusText(errors.HTTPStatusCode(err)), errors.HTTPStatusCode(err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(out))
	})
}

// bound returns a copy of the templates whose functions are bound to ctx.
func (r *Renderer) bound(ctx context.Context) (*template.Template, error) {
	if r.alwaysParse {
		r.mu.Lock()
		err := r.parseAll()
		r.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.templates == nil {
		return nil, errors.NewC("no templates have been initialized", codes.Internal)
	}
	t, err := r.templates.Clone()
	if err != nil {
		return nil, err
	}
	return t.Funcs(contextFuncs(ctx)), nil
}

func (r *Renderer) init() {
	if r.templates == nil {
		r.templates = template.New("").Funcs(contextFuncs(context.Background()))
	}
}

func (r *Renderer) parseAll() error {
	r.templates = nil
	r.init()
	for _, dir := range r.dirs {
		if err := r.parse(dir); err != nil {
			return err
		}
	}
	for _, t := range r.inline {
		if _, err := r.templates.New(t[0]).Parse(t[1]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) parse(dir string) error {
	return filepath.Walk(dir, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if strings.HasSuffix(path, ".tmpl") {
			if _, err := r.templates.ParseFiles(path); err != nil {
				return err
			}
		}
		return nil
	})
}

func contextFuncs(ctx context.Context) template.FuncMap {
	current := func() *url.URL { return currenturl.URL(ctx) }
	return template.FuncMap{
		"currentURL": func() string {
			if u := current(); u != nil {
				return u.String()
			}
			return ""
		},
		"currentPath": func() string {
			if u := current(); u != nil {
				return u.Path
			}
			return ""
		},
		"absURL": func(ref string) (string, error) {
			u := current()
			if u == nil {
				return ref, nil
			}
			parsed, err := url.Parse(ref)
			if err != nil {
				return "", errors.WithCode(err, codes.InvalidArgument)
			}
			return u.ResolveReference(parsed).String(), nil
		},
	}
}
