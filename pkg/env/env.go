package env

import (
	"fmt"
	"net/http"

	"github.com/carlmjohnson/versioninfo"
)

const unset = "unset"

// Overridden at link time for release builds; otherwise derived from the embedded VCS info.
var Version = unset

func init() {
	if Version == unset && versioninfo.Revision != "unknown" {
		Version = versioninfo.Short()
	}
}

func VersionHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "%s\n", Version) // nolint:errcheck
}

func IsProd() bool {
	return Version != unset
}
