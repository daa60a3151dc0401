//go:build !no_query_apply

package main

/*
#include <stdint.h>
*/
import "C"

import "github.com/nmstate/nmstate-go/src/internal/capi"

//export nmstate_net_state_retrieve
func nmstate_net_state_retrieve(flags C.uint32_t, state, logOut, errKind, errMsg **C.char) C.int {
	res := capi.RetrieveNetState(capi.Flags(flags))
	setOut(state, res.Output)
	return finish(res, logOut, errKind, errMsg)
}

// The checkpoint id in res.Output has no out parameter; callers select the
// latest checkpoint with NULL.
//
//export nmstate_net_state_apply
func nmstate_net_state_apply(flags C.uint32_t, state *C.char, rollbackTimeout C.uint32_t, logOut, errKind, errMsg **C.char) C.int {
	res := capi.ApplyNetState(capi.Flags(flags), goString(state), uint32(rollbackTimeout))
	return finish(res, logOut, errKind, errMsg)
}

//export nmstate_checkpoint_commit
func nmstate_checkpoint_commit(checkpoint *C.char, logOut, errKind, errMsg **C.char) C.int {
	return finish(capi.CommitCheckpoint(goString(checkpoint)), logOut, errKind, errMsg)
}

//export nmstate_checkpoint_rollback
func nmstate_checkpoint_rollback(checkpoint *C.char, logOut, errKind, errMsg **C.char) C.int {
	return finish(capi.RollbackCheckpoint(goString(checkpoint)), logOut, errKind, errMsg)
}
