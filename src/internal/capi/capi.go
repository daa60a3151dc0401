// Package capi is the Go side of the C ABI. Every entry point takes plain Go
// values, runs under a package mutex and returns a Result holding the status
// code, the output document, the captured log and the error kind and message
// the C layer copies into its out parameters.
package capi

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/nmstate"
)

const (
	RCPass = 0
	RCFail = 1
)

// DefaultCheckpointDir lets checkpoints outlive the calling process.
const DefaultCheckpointDir = "/run/nmstate/checkpoints"

// Flags mirror the NMSTATE_FLAG_* bits of nmstate.h.
type Flags uint32

const (
	FlagNone              Flags = 0
	FlagKernelOnly        Flags = 1 << 1
	FlagNoVerify          Flags = 1 << 2
	FlagIncludeStatusData Flags = 1 << 3
	FlagIncludeSecrets    Flags = 1 << 4
	FlagNoCommit          Flags = 1 << 5
	FlagMemoryOnly        Flags = 1 << 6
	FlagRunningConfigOnly Flags = 1 << 7
	FlagYAMLOutput        Flags = 1 << 8
)

// Has reports whether f is set.
func (flags Flags) Has(f Flags) bool {
	return flags&f != 0
}

// Result is what a C entry point reports. Log is a JSON array of records.
type Result struct {
	RC      int
	Output  string
	Log     string
	ErrKind string
	ErrMsg  string
}

var (
	mu  sync.Mutex
	lib *nmstate.Library
)

// The host process owns the console. Records only reach callers through the
// log out parameter.
func init() {
	log.DisableLogs()
}

// library returns the process wide library. mu must be held.
func library() *nmstate.Library {
	if lib == nil {
		lib = nmstate.NewLibrary(nmstate.Options{
			ResolvConfPath: nmstate.DefaultResolvConfPath,
			CheckpointDir:  DefaultCheckpointDir,
		})
	}
	return lib
}

// SetLibrary replaces the process wide library and returns the previous one.
func SetLibrary(l *nmstate.Library) *nmstate.Library {
	mu.Lock()
	defer mu.Unlock()
	prev := lib
	lib = l
	return prev
}

// call serializes fn, captures its logs and turns errors and panics into a
// failed Result.
func call(name string, fn func(ctx context.Context, l *nmstate.Library) (string, error)) (res Result) {
	mu.Lock()
	defer mu.Unlock()

	collector := log.Capture()
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("%s panicked: %v", name, r)
			log.Debugf("%s", debug.Stack())
			res = failure(errors.NewBug(fmt.Sprintf("%s panicked: %v", name, r), nil))
		}
		collector.Stop()
		res.Log = collector.JSON()
	}()

	out, err := fn(context.Background(), library())
	if err != nil {
		log.Errorf("%s failed: %v", name, err)
		return failure(err)
	}
	return Result{RC: RCPass, Output: out}
}

func failure(err error) Result {
	msg := err.Error()
	if e, ok := errors.As(err); ok {
		msg = e.Msg()
	}
	return Result{RC: RCFail, ErrKind: string(errors.KindOf(err)), ErrMsg: msg}
}

func required(name string, value *string) (string, error) {
	if value == nil {
		return "", errors.Newf(errors.KindInvalidArgument, "%s must not be NULL", name)
	}
	return *value, nil
}
