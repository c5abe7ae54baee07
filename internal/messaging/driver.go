package messaging

import (
	"errors"
	"sync"
)

// ErrNoDriver indicates no network driver was linked into the binary.
var ErrNoDriver = errors.New("messaging: no network driver registered")

var (
	driverMu sync.RWMutex
	driver   Dialer
)

// RegisterDialer installs the network driver used to reach the messaging
// service. Driver packages call this from init; the last registration wins.
func RegisterDialer(d Dialer) {
	driverMu.Lock()
	defer driverMu.Unlock()
	driver = d
}

// DefaultDialer returns the registered network driver.
func DefaultDialer() (Dialer, error) {
	driverMu.RLock()
	defer driverMu.RUnlock()
	if driver == nil {
		return nil, ErrNoDriver
	}
	return driver, nil
}
