package env

import "runtime"

// HostTool returns name with winExt appended on Windows, where SDK tools
// ship as .exe binaries or .bat/.cmd scripts.
func HostTool(name, winExt string) string {
	if runtime.GOOS == "windows" {
		return name + winExt
	}
	return name
}
