// ABOUTME: Version and device identity strings
// ABOUTME: Logged in the boot banner and shown in the front panel header
package version

const (
	// Version is the firmware version
	Version = "0.3.0"

	// Product is the device name
	Product = "Sendspin Pico PWM Player"

	// Manufacturer is the device maker
	Manufacturer = "Sendspin"
)
