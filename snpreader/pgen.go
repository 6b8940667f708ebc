package snpreader

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/carbocation/snptools"
	"golang.org/x/sync/errgroup"
)

const (
	pgenModeBed          = 0x01
	pgenModeFixedWidth   = 0x02
	pgenModeVariable     = 0x10
	pgenFixedHeaderLen   = 12
	pgenVariantBlockSize = 1 << 16

	// Record type bits for tracks stored after the hardcalls: phase (0x10)
	// and dosage (0x20, 0x40). Bits 0-2 select the hardcall encoding and bit
	// 3 marks a multiallelic record.
	pgenTrailingTracks = 0x70
)

// PGen reads PLINK 2 .pgen files. Individuals come from the .fam (or .psam)
// and variants from the .bim (or .pvar) beside it.
//
// Three storage modes are understood: an embedded variant-major PLINK 1 .bed
// (0x01), fixed-width 2-bit hardcalls (0x02), and the standard variable-width
// layout (0x10). Within the variable-width layout only biallelic records with
// an uncompressed hardcall track can be decoded; others yield
// ErrUnsupportedRecord. Phase and dosage tracks are ignored, so values are
// always hardcalls.
type PGen struct {
	*sidecars

	Filename string
	opts     Options

	mu     sync.Mutex
	file   snptools.ReaderAtCloser
	size   int64
	header *pgenHeader
}

type pgenHeader struct {
	mode         byte
	variantCount int
	sampleCount  int

	// Fixed-width modes
	recordOffset int64

	// Variable-width mode, one entry per variant
	vrtypes  []byte
	offsets  []int64
	vrecLens []int
}

func NewPGen(filename string, opts Options) *PGen {
	p := &PGen{
		Filename: filename,
		opts:     opts,
	}

	p.sidecars = newSidecars(opts,
		func(ctx context.Context) (string, error) {
			return firstExisting(ctx, opts.StorageClient,
				snptools.SiblingPath(filename, "pgen", "fam"),
				snptools.SiblingPath(filename, "pgen", "psam"))
		},
		func(ctx context.Context) (string, error) {
			return firstExisting(ctx, opts.StorageClient,
				snptools.SiblingPath(filename, "pgen", "bim"),
				snptools.SiblingPath(filename, "pgen", "pvar"))
		})

	return p
}

func (p *PGen) String() string {
	return fmt.Sprintf("PGen(%q, CountA1=%t)", p.Filename, p.opts.CountA1)
}

func (p *PGen) path() string {
	return snptools.SiblingPath(p.Filename, "pgen", "pgen")
}

// Close releases the open .pgen handle. A later Read reopens it.
func (p *PGen) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil

	return err
}

func (p *PGen) open(nIID, nSID int) (snptools.ReaderAtCloser, *pgenHeader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		f, size, err := snptools.OpenReaderAt(context.Background(), p.path(), p.opts.StorageClient)
		if err != nil {
			return nil, nil, pfx.Err(err)
		}
		p.file, p.size = f, size
	}

	if p.header == nil {
		header, err := parsePGenHeader(p.file, p.size, nIID, nSID, p.opts.SkipFormatCheck)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", p.path(), err)
		}
		p.header = header
	}

	return p.file, p.header, nil
}

func parsePGenHeader(f snptools.ReaderAtCloser, size int64, nIID, nSID int, skip bool) (*pgenHeader, error) {
	prefix := make([]byte, 3)
	if _, err := f.ReadAt(prefix, 0); err != nil {
		return nil, pfx.Err(err)
	}
	if prefix[0] != plinkMagic0 || prefix[1] != plinkMagic1 {
		return nil, ErrBadMagic
	}

	h := &pgenHeader{mode: prefix[2]}

	switch h.mode {
	case pgenModeBed:
		h.variantCount, h.sampleCount = nSID, nIID
		h.recordOffset = bedHeaderLen
		if expected := int64(bedHeaderLen) + int64(nSID)*int64(packedLen(nIID)); !skip && size != expected {
			return nil, fmt.Errorf("%w: file is %d bytes but %d iids and %d sids need %d", ErrShape, size, nIID, nSID, expected)
		}
		return h, nil
	case pgenModeFixedWidth, pgenModeVariable:
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnsupportedMode, h.mode)
	}

	fixed := make([]byte, pgenFixedHeaderLen)
	if _, err := f.ReadAt(fixed, 0); err != nil {
		return nil, pfx.Err(err)
	}
	h.variantCount = int(binary.LittleEndian.Uint32(fixed[3:7]))
	h.sampleCount = int(binary.LittleEndian.Uint32(fixed[7:11]))

	if !skip && (h.variantCount != nSID || h.sampleCount != nIID) {
		return nil, fmt.Errorf("%w: header declares %d variants and %d samples but the sidecars list %d and %d", ErrShape, h.variantCount, h.sampleCount, nSID, nIID)
	}

	if h.mode == pgenModeFixedWidth {
		h.recordOffset = pgenFixedHeaderLen
		if explicitNonref(fixed[11]) {
			h.recordOffset += int64((h.variantCount + 7) / 8)
		}
		if expected := h.recordOffset + int64(h.variantCount)*int64(packedLen(h.sampleCount)); !skip && size < expected {
			return nil, fmt.Errorf("%w: file is %d bytes but needs at least %d", ErrShape, size, expected)
		}
		return h, nil
	}

	if err := h.readVariableIndex(f, fixed[11]); err != nil {
		return nil, err
	}

	return h, nil
}

// explicitNonref reports whether the header is followed by one nonref flag bit
// per variant.
func explicitNonref(ctrl byte) bool {
	return ctrl>>6 == 3
}

// readVariableIndex loads the per-variant record types and lengths that follow
// the block offset table of a variable-width .pgen.
func (h *pgenHeader) readVariableIndex(f snptools.ReaderAtCloser, ctrl byte) error {
	storage := ctrl & 0x0f
	if storage >= 8 {
		return fmt.Errorf("%w: record index storage 0x%x", ErrUnsupportedMode, storage)
	}
	vrecLenBytes := int(storage&3) + 1
	wideVRTypes := storage&4 != 0
	alleleCountBytes := int((ctrl >> 4) & 3)

	blockCount := (h.variantCount + pgenVariantBlockSize - 1) / pgenVariantBlockSize
	blockOffsets := make([]byte, 8*blockCount)
	if _, err := f.ReadAt(blockOffsets, pgenFixedHeaderLen); err != nil {
		return pfx.Err(err)
	}

	h.vrtypes = make([]byte, h.variantCount)
	h.offsets = make([]int64, h.variantCount)
	h.vrecLens = make([]int, h.variantCount)

	pos := int64(pgenFixedHeaderLen + len(blockOffsets))
	for b := 0; b < blockCount; b++ {
		first := b * pgenVariantBlockSize
		n := h.variantCount - first
		if n > pgenVariantBlockSize {
			n = pgenVariantBlockSize
		}

		vrtypeLen := n
		if !wideVRTypes {
			vrtypeLen = (n + 1) / 2
		}
		index := make([]byte, vrtypeLen+n*vrecLenBytes)
		if _, err := f.ReadAt(index, pos); err != nil {
			return pfx.Err(err)
		}

		offset := int64(binary.LittleEndian.Uint64(blockOffsets[8*b:]))
		lens := index[vrtypeLen:]
		for k := 0; k < n; k++ {
			if wideVRTypes {
				h.vrtypes[first+k] = index[k]
			} else {
				h.vrtypes[first+k] = (index[k>>1] >> (uint(k&1) << 2)) & 0x0f
			}

			var vrecLen int
			for byteIdx := vrecLenBytes - 1; byteIdx >= 0; byteIdx-- {
				vrecLen = vrecLen<<8 | int(lens[k*vrecLenBytes+byteIdx])
			}

			h.offsets[first+k] = offset
			h.vrecLens[first+k] = vrecLen
			offset += int64(vrecLen)
		}

		pos += int64(len(index))
		if alleleCountBytes > 0 {
			pos += int64(n * alleleCountBytes)
		}
		if explicitNonref(ctrl) {
			pos += int64((n + 7) / 8)
		}
	}

	return nil
}

func (p *PGen) Read(ctx context.Context, iidIndex, sidIndex []int) (*Data, error) {
	iids, err := p.IIDs()
	if err != nil {
		return nil, err
	}
	variants, err := p.Variants()
	if err != nil {
		return nil, err
	}
	if iidIndex, err = checkIndex(iidIndex, len(iids), "iid"); err != nil {
		return nil, err
	}
	if sidIndex, err = checkIndex(sidIndex, len(variants), "sid"); err != nil {
		return nil, err
	}

	out := newFilledData(p.String(), pickIIDs(iids, iidIndex), pickVariants(variants, sidIndex))
	if out.Val == nil {
		return out, nil
	}

	f, h, err := p.open(len(iids), len(variants))
	if err != nil {
		return nil, err
	}

	// With SkipFormatCheck the header may disagree with the sidecars; never
	// decode past what the file declares.
	for _, i := range iidIndex {
		if i >= h.sampleCount {
			return nil, fmt.Errorf("%s: %w: iid %d with %d samples in the header", p.path(), ErrIndexOutOfRange, i, h.sampleCount)
		}
	}
	for _, j := range sidIndex {
		if j >= h.variantCount {
			return nil, fmt.Errorf("%s: %w: sid %d with %d variants in the header", p.path(), ErrIndexOutOfRange, j, h.variantCount)
		}
	}

	table := pgenCountA2
	if p.opts.CountA1 {
		table = pgenCountA1
	}
	if h.mode == pgenModeBed {
		table = bedCountA2
		if p.opts.CountA1 {
			table = bedCountA1
		}
	}

	decode := func(j int, record []byte) error {
		for i, iid := range iidIndex {
			out.Val.Set(i, j, table[code2(record, iid)])
		}
		return nil
	}

	if h.mode == pgenModeVariable {
		err = p.readVariable(ctx, f, h, sidIndex, decode)
	} else {
		err = readRecords(ctx, f, h.recordOffset, packedLen(h.sampleCount), sidIndex, p.opts.Workers, decode)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.path(), err)
	}

	return out, nil
}

// readVariable fetches variable-width records one variant at a time, keeping
// only the leading hardcall track of each.
func (p *PGen) readVariable(ctx context.Context, f snptools.ReaderAtCloser, h *pgenHeader, sidIndex []int, fn func(j int, record []byte) error) error {
	trackLen := packedLen(h.sampleCount)

	for _, sid := range sidIndex {
		if vrtype := h.vrtypes[sid]; vrtype&^pgenTrailingTracks != 0 {
			return fmt.Errorf("%w: variant %d has record type 0x%02x", ErrUnsupportedRecord, sid, vrtype)
		}
		if h.vrecLens[sid] < trackLen {
			return fmt.Errorf("%w: variant %d record is %d bytes but %d samples need %d", ErrShape, sid, h.vrecLens[sid], h.sampleCount, trackLen)
		}
	}

	workers := workerCount(p.opts.Workers)
	chunk := (len(sidIndex) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(sidIndex); start += chunk {
		start, stop := start, start+chunk
		if stop > len(sidIndex) {
			stop = len(sidIndex)
		}

		g.Go(func() error {
			record := make([]byte, trackLen)
			for j := start; j < stop; j++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if _, err := f.ReadAt(record, h.offsets[sidIndex[j]]); err != nil {
					return pfx.Err(err)
				}
				if err := fn(j, record); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}
