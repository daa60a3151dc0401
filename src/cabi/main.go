// Command cabi builds libnmstate as a C shared or static library:
//
//	go build -buildmode=c-shared -o libnmstate.so ./src/cabi
//	go build -buildmode=c-archive -o libnmstate.a ./src/cabi
//
// The exported functions are declared in nmstate.h. They only convert
// between C and Go values; the work is done by the capi package.
package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/nmstate/nmstate-go/src/internal/capi"
)

var (
	versionOnce sync.Once
	versionStr  *C.char
)

func main() {}

//export nmstate_generate_differences
func nmstate_generate_differences(newState, oldState *C.char, diffState, errKind, errMsg **C.char) C.int {
	res := capi.GenerateDifferences(goString(newState), goString(oldState))
	setOut(diffState, res.Output)
	return finish(res, nil, errKind, errMsg)
}

//export nmstate_net_state_format
func nmstate_net_state_format(state *C.char, flags C.uint32_t, formatted, errKind, errMsg **C.char) C.int {
	res := capi.FormatNetState(goString(state), capi.Flags(flags))
	setOut(formatted, res.Output)
	return finish(res, nil, errKind, errMsg)
}

//export nmstate_cstring_free
func nmstate_cstring_free(cstring *C.char) {
	if cstring != nil {
		C.free(unsafe.Pointer(cstring))
	}
}

//export nmstate_version
func nmstate_version() *C.char {
	versionOnce.Do(func() {
		versionStr = C.CString(capi.Version())
	})
	return versionStr
}

// goString copies a C string. NULL becomes nil.
func goString(s *C.char) *string {
	if s == nil {
		return nil
	}
	v := C.GoString(s)
	return &v
}

// setOut stores a malloc'ed copy of s into out unless out is NULL.
func setOut(out **C.char, s string) {
	if out != nil {
		*out = C.CString(s)
	}
}

func finish(res capi.Result, logOut, errKind, errMsg **C.char) C.int {
	setOut(logOut, res.Log)
	setOut(errKind, res.ErrKind)
	setOut(errMsg, res.ErrMsg)
	return C.int(res.RC)
}
