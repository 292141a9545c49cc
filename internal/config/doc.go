// Package config loads the shell's configuration.
//
// Configuration comes from a TOML or YAML file (selected by extension),
// overridden by LUSH_* environment variables:
//
//	LUSH_PROMPT             shell.prompt
//	LUSH_INIT               shell.init
//	LUSH_HISTORY_FILE       history.file
//	LUSH_HISTORY_LIMIT      history.limit
//	LUSH_REGISTRY_CAPACITY  jobs.registry_capacity
//	LUSH_LOG_LEVEL          log.level
//	LUSH_LOG_FILE           log.file
//
// A missing file is not an error; defaults are used instead. Watch reloads
// the file whenever it changes on disk.
package config
