package provisioning

// DefaultSoftAPSSID is the access point name used when SoftAPUDP.SSID is empty.
const DefaultSoftAPSSID = "qcloud_setup"

// Method selects how network credentials reach the device.
type Method interface {
	methodName() string
}

// SoftAPUDP opens a soft access point and accepts credentials on the
// local control listener. An empty Password opens the AP without security.
type SoftAPUDP struct {
	SSID     string
	Password string
}

func (SoftAPUDP) methodName() string { return "softap" }

// SmartConfig obtains the network from the radio's broadcast configuration
// mode, joins it and then waits for a TOKEN_ONLY command on that network.
type SmartConfig struct{}

func (SmartConfig) methodName() string { return "smartconfig" }

// MethodName returns a short name for m ("softap", "smartconfig").
func MethodName(m Method) string {
	if m == nil {
		return ""
	}
	return m.methodName()
}
