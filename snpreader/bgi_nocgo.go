//go:build !cgo
// +build !cgo

package snpreader

import (
	"github.com/carbocation/bgen"
)

func openBGI(path string) (*bgen.BGIIndex, error) {
	return bgen.OpenBGI(path)
}
