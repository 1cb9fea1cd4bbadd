// Package all imports every stub package to ensure they register via
// init(). Import this package in session setup to enable all stubs.
//
// Example:
//
//	import _ "github.com/palmrunner/palmrunner/internal/stubs/all"
package all

import (
	_ "github.com/palmrunner/palmrunner/internal/stubs/cxxabi"
	_ "github.com/palmrunner/palmrunner/internal/stubs/libc"
	_ "github.com/palmrunner/palmrunner/internal/stubs/pthread"
)
