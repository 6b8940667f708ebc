package snptools

import (
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
)

// ExpandHome expands ~ to its proper path, where appropriate.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	usr, err := user.Current()
	if err != nil {
		return path, pfx.Err(err)
	}

	return filepath.Join(usr.HomeDir, path[2:]), nil
}

// SiblingPath names a file that accompanies filename, such as the .bim next to
// a .bed. The removeSuffix extension is stripped if present (it is optional on
// the input), then addSuffix is appended.
func SiblingPath(filename, removeSuffix, addSuffix string) string {
	if removeSuffix != "" {
		filename = strings.TrimSuffix(filename, "."+removeSuffix)
	}

	return filename + "." + addSuffix
}
