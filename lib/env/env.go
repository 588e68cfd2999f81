package env

import (
	"os"
	"strconv"
)

func Test() bool {
	return os.Getenv("TEST_MODE") != ""
}

func Dev() bool {
	return os.Getenv("DEV_MODE") != ""
}

func Debug() bool {
	return os.Getenv("DEBUG") != ""
}

// People have DEV_MODE on while running tests. If that's the case, this
// function will return false.
func DevOnly() bool {
	return Dev() && !Test()
}

// Chaos reports how many random drags sfchaos runs per test, from SF_CHAOS_N.
func Chaos() (int, bool) {
	return intVar("SF_CHAOS_N")
}

// Timeout is SF_TIMEOUT in seconds.
func Timeout() (int, bool) {
	return intVar("SF_TIMEOUT")
}

func intVar(name string) (int, bool) {
	if s := os.Getenv(name); s != "" {
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return int(i), true
		}
	}
	return -1, false
}
