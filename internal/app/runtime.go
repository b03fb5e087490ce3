package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

// TestModeEnv makes the binaries return before opening pools, listeners or workers.
const TestModeEnv = "BCS_TEST_MODE"

var testMode atomic.Pointer[bool]

func readTestMode() *bool {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	on = err == nil && on
	return &on
}

// InTestMode reports whether BCS_TEST_MODE is set to a true value. The variable is
// read once and cached.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	testMode.CompareAndSwap(nil, readTestMode())
	return *testMode.Load()
}

// RefreshTestMode re-reads the variable after the environment changed.
func RefreshTestMode() {
	testMode.Store(readTestMode())
}
