package platform

import "strings"

// resolutionQuery selects the video modes advertised by one controller.
func resolutionQuery(deviceID string) string {
	return `ASSOCIATORS OF {Win32_VideoController.DeviceID="` + wqlEscape(deviceID) +
		`"} WHERE ResultClass = CIM_VideoControllerResolution`
}

func wqlEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// friendlyNames pairs active monitors with controllers in enumeration
// order, falling back to the controller name.
func friendlyNames(controllers, monitors []string) []string {
	names := make([]string, len(controllers))
	for i, c := range controllers {
		names[i] = c
		if i < len(monitors) && strings.TrimSpace(monitors[i]) != "" {
			names[i] = monitors[i]
		}
	}
	return names
}
