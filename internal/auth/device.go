package auth

// Device types form a closed set; anything else is rejected at the boundary.
const (
	DeviceWeb     = "WEB"
	DeviceDesktop = "DESKTOP"
)

// ParseDeviceType validates a client-supplied device type.
func ParseDeviceType(deviceType string) (string, error) {
	switch deviceType {
	case DeviceWeb, DeviceDesktop:
		return deviceType, nil
	default:
		return "", ErrInvalidDevice
	}
}
