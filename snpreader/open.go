package snpreader

import (
	"io"
	"strings"
)

// FileReader is a Reader backed by a file.
type FileReader interface {
	Reader
	io.Closer
}

// Open picks a reader for path by its extension: .bed, .pgen, .bgen and
// .vcf (optionally .gz or .bgz) are genotype files, and anything else is read
// as a phenotype table.
func Open(path string, opts Options) FileReader {
	switch {
	case strings.HasSuffix(path, ".bed"):
		return NewBed(path, opts)
	case strings.HasSuffix(path, ".pgen"):
		return NewPGen(path, opts)
	case strings.HasSuffix(path, ".bgen"):
		return NewBgen(path, opts)
	case strings.HasSuffix(path, ".vcf"), strings.HasSuffix(path, ".vcf.gz"), strings.HasSuffix(path, ".vcf.bgz"):
		return NewVcf(path, opts)
	}

	return NewPheno(path, opts)
}
