package build

// Profile selects the compiler optimisation level, the packaging task and
// whether the bundle is signed.
type Profile int

const (
	Debug Profile = iota
	Release
)

// ProfileOf returns Release when release is set and Debug otherwise.
func ProfileOf(release bool) Profile {
	if release {
		return Release
	}
	return Debug
}

// String returns the directory name Cargo and Gradle use for the profile.
func (p Profile) String() string {
	if p == Release {
		return "release"
	}
	return "debug"
}
