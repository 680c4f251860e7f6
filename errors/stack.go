package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// MaxStackDepth caps the number of frames recorded on an error.
var MaxStackDepth = 32

// Frame is a single call site in an error's stack.
type Frame struct {
	File     string
	Line     int
	Function string // without the package path
}

func (f Frame) String() string {
	return fmt.Sprintf("%s:%d %s", f.File, f.Line, f.Function)
}

func callers(skip int) []uintptr {
	pcs := make([]uintptr, MaxStackDepth)
	n := runtime.Callers(skip+1, pcs)
	return pcs[:n]
}

// Frames returns the stack recorded when the error was created, innermost
// call first.
func (err *Error) Frames() []Frame {
	if len(err.stack) == 0 {
		return nil
	}
	var out []Frame
	it := runtime.CallersFrames(err.stack)
	for {
		f, more := it.Next()
		out = append(out, Frame{File: f.File, Line: f.Line, Function: shortName(f.Function)})
		if !more {
			break
		}
	}
	return out
}

// MinimalStack returns one line per frame for at most size frames, starting
// skip frames from the top.
func (err *Error) MinimalStack(skip, size int) []string {
	frames := err.Frames()
	if skip >= len(frames) {
		return nil
	}
	frames = frames[skip:]
	if len(frames) > size {
		frames = frames[:size]
	}
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = f.String()
	}
	return out
}

// shortName trims github.com/dpup/currenturl.(*Resolver).Resolve to
// (*Resolver).Resolve.
func shortName(fn string) string {
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		fn = fn[i+1:]
	}
	if i := strings.Index(fn, "."); i >= 0 {
		fn = fn[i+1:]
	}
	return fn
}
