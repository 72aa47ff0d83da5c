// Package testing switches the process into test mode when imported by a
// test binary. Test mode keeps request logging quiet and stops the binaries
// from starting their servers.
package testing

import (
	"os"
	"sync"
)

const testModeEnv = "ODYSSEY_TEST_MODE"

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		if os.Getenv(testModeEnv) == "" {
			_ = os.Setenv(testModeEnv, "1")
		}
		// Simulated fetches should not sleep in tests.
		if os.Getenv("FETCH_MAX_DELAY") == "" {
			_ = os.Setenv("FETCH_MIN_DELAY", "0s")
			_ = os.Setenv("FETCH_MAX_DELAY", "0s")
		}
	})
}

func init() {
	ensureTestMode()
}
