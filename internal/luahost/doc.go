// Package luahost embeds the Lua interpreter that drives the shell and
// exposes the job-control primitives to it as the "shlib" module.
//
// Scripts see shlib as a global and through require("shlib"):
//
//	shlib.set_signal_mode("interactive")
//	shlib.arm_cleanup()
//	local line = shlib.readline("$ ", function(line, start, finish)
//	    return shlib.glob(line:sub(start + 1, finish) .. "*")
//	end)
//
// Failed primitives raise a Lua error whose message names the operation
// and errno, and leave the errno in shlib.errno.
package luahost
