//go:build !no_gen_conf

package main

import "C"

import "github.com/nmstate/nmstate-go/src/internal/capi"

//export nmstate_generate_configurations
func nmstate_generate_configurations(state *C.char, configs, logOut, errKind, errMsg **C.char) C.int {
	res := capi.GenerateConfigurations(goString(state))
	setOut(configs, res.Output)
	return finish(res, logOut, errKind, errMsg)
}
