// Package jobctl keeps a shell's children from outliving it.
//
// It has three cooperating parts:
//
//   - Registry, a fixed-capacity append-only record of every child pid the
//     shell has launched.
//   - Controller, which installs a named signal mode (default, interactive
//     or noninteractive), arbitrates terminal foreground transfers, and
//     routes terminating signals to the orchestrator.
//   - Orchestrator, which on shell exit or on a terminating signal resumes
//     and terminates every child that is still alive, but only in the
//     process that armed it.
//
// The signal path runs on a handler goroutine while the shell goroutine may
// be appending to the registry. The registry never reallocates and
// publishes its length only after the new entry is stored, so the handler
// always reads a consistent prefix.
//
// Typical setup:
//
//	reg := jobctl.NewRegistry(0)
//	orch := jobctl.NewOrchestrator()
//	orch.Register(reg)
//	orch.Arm()
//	ctl := jobctl.NewController(orch)
//	ctl.SetMode(jobctl.ModeInteractive)
//	defer jobctl.Exit(0)
package jobctl
