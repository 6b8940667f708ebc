package snpreader

import (
	"context"
	"fmt"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/carbocation/snptools"
)

const (
	plinkMagic0 = 0x6c
	plinkMagic1 = 0x1b

	bedIndividualMajor = 0x00
	bedVariantMajor    = 0x01

	bedHeaderLen = 3
)

// Bed reads PLINK 1 .bed/.bim/.fam filesets. The .bed suffix on Filename is
// optional.
type Bed struct {
	*sidecars

	Filename string
	opts     Options

	mu           sync.Mutex
	file         snptools.ReaderAtCloser
	size         int64
	checked      bool
	variantMajor bool
}

func NewBed(filename string, opts Options) *Bed {
	return &Bed{
		Filename: filename,
		opts:     opts,
		sidecars: newSidecars(opts,
			constPath(snptools.SiblingPath(filename, "bed", "fam")),
			constPath(snptools.SiblingPath(filename, "bed", "bim"))),
	}
}

func constPath(path string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return path, nil }
}

func (b *Bed) String() string {
	return fmt.Sprintf("Bed(%q, CountA1=%t)", b.Filename, b.opts.CountA1)
}

func (b *Bed) path() string {
	return snptools.SiblingPath(b.Filename, "bed", "bed")
}

// Close releases the open .bed handle. A later Read reopens it.
func (b *Bed) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.file == nil {
		return nil
	}
	err := b.file.Close()
	b.file = nil

	return err
}

// open returns the .bed handle, validating the header the first time through.
func (b *Bed) open(nIID, nSID int) (snptools.ReaderAtCloser, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.file == nil {
		// The handle outlives this call, so it must not inherit ctx.
		f, size, err := snptools.OpenReaderAt(context.Background(), b.path(), b.opts.StorageClient)
		if err != nil {
			return nil, false, pfx.Err(err)
		}
		b.file, b.size = f, size
	}

	if !b.checked {
		variantMajor, err := checkBedHeader(b.file, b.size, nIID, nSID, b.opts.SkipFormatCheck)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", b.path(), err)
		}
		b.variantMajor = variantMajor
		b.checked = true
	}

	return b.file, b.variantMajor, nil
}

// checkBedHeader reads the 3 header bytes and reports whether the file is
// variant-major. Unless skip is set, the magic bytes, mode and file size must
// all agree with the sidecar counts.
func checkBedHeader(f snptools.ReaderAtCloser, size int64, nIID, nSID int, skip bool) (bool, error) {
	header := make([]byte, bedHeaderLen)
	if _, err := f.ReadAt(header, 0); err != nil {
		if skip {
			return true, nil
		}
		return false, pfx.Err(err)
	}

	if !skip && (header[0] != plinkMagic0 || header[1] != plinkMagic1) {
		return false, ErrBadMagic
	}

	variantMajor := true
	switch header[2] {
	case bedVariantMajor:
	case bedIndividualMajor:
		variantMajor = false
	default:
		if !skip {
			return false, fmt.Errorf("%w: 0x%02x", ErrUnsupportedMode, header[2])
		}
	}

	if skip {
		return variantMajor, nil
	}

	expected := int64(bedHeaderLen) + int64(nSID)*int64(packedLen(nIID))
	if !variantMajor {
		expected = int64(bedHeaderLen) + int64(nIID)*int64(packedLen(nSID))
	}
	if size != expected {
		return false, fmt.Errorf("%w: file is %d bytes but %d iids and %d sids need %d", ErrShape, size, nIID, nSID, expected)
	}

	return variantMajor, nil
}

func (b *Bed) Read(ctx context.Context, iidIndex, sidIndex []int) (*Data, error) {
	iids, err := b.IIDs()
	if err != nil {
		return nil, err
	}
	variants, err := b.Variants()
	if err != nil {
		return nil, err
	}
	if iidIndex, err = checkIndex(iidIndex, len(iids), "iid"); err != nil {
		return nil, err
	}
	if sidIndex, err = checkIndex(sidIndex, len(variants), "sid"); err != nil {
		return nil, err
	}

	out := newFilledData(b.String(), pickIIDs(iids, iidIndex), pickVariants(variants, sidIndex))
	if out.Val == nil {
		return out, nil
	}

	f, variantMajor, err := b.open(len(iids), len(variants))
	if err != nil {
		return nil, err
	}

	table := bedCountA2
	if b.opts.CountA1 {
		table = bedCountA1
	}

	if variantMajor {
		err = readRecords(ctx, f, bedHeaderLen, packedLen(len(iids)), sidIndex, b.opts.Workers, func(j int, record []byte) error {
			for i, iid := range iidIndex {
				out.Val.Set(i, j, table[code2(record, iid)])
			}
			return nil
		})
	} else {
		err = readRecords(ctx, f, bedHeaderLen, packedLen(len(variants)), iidIndex, b.opts.Workers, func(i int, record []byte) error {
			for j, sid := range sidIndex {
				out.Val.Set(i, j, table[code2(record, sid)])
			}
			return nil
		})
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.path(), err)
	}

	return out, nil
}
