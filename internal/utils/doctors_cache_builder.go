package utils

// Bump the version segment whenever the serialized shape of the
// directory listing changes.
const doctorsListCacheVersion = "v1"

func BuildDoctorsListCacheKey() string {
	return "doctors:list:" + doctorsListCacheVersion
}
