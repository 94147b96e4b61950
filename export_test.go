package microwire

import "time"

// SetSleep replaces time.Sleep for tests outside the package.
func SetSleep(e *EEPROM, sleep func(time.Duration)) {
	e.sleep = sleep
}
