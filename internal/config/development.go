package config

import (
	"os"
	"strconv"
)

// Development reports whether DEVELOPMENT is set to anything but a false
// value such as "0" or "false".
func Development() bool {
	s, ok := os.LookupEnv("DEVELOPMENT")
	if !ok {
		return false
	}
	dev, err := strconv.ParseBool(s)
	return err != nil || dev
}
