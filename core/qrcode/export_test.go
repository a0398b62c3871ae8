package qrcode

import "time"

// SetNow replaces the clock until the returned func is called.
func SetNow(now time.Time) (restore func()) {
	nowFunc = func() time.Time { return now }
	return func() { nowFunc = func() time.Time { return time.Now().UTC() } }
}
