package main

/*
#include <stdlib.h>
*/
import "C"

// Go callers of the exported functions, such as tests, can't name C types.
// These move strings across without doing so.

func cString(s string) *C.char {
	return C.CString(s)
}

func newOut() **C.char {
	return new(*C.char)
}

// takeOut returns the string stored in out and frees it.
func takeOut(out **C.char) string {
	if out == nil || *out == nil {
		return ""
	}
	s := C.GoString(*out)
	nmstate_cstring_free(*out)
	*out = nil
	return s
}
