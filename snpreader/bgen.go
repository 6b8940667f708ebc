package snpreader

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/carbocation/bgen"
	"github.com/carbocation/pfx"
	"github.com/carbocation/snptools"
)

// Bgen reads BGEN files through their .bgi index. Values are expected allele
// counts (dosages) rather than hardcalls.
type Bgen struct {
	Filename string
	opts     Options

	mu       sync.Mutex
	bg       *bgen.BGEN
	index    []bgen.VariantIndex
	iids     []IID
	variants []Variant
}

func NewBgen(filename string, opts Options) *Bgen {
	return &Bgen{
		Filename: filename,
		opts:     opts,
		iids:     opts.IIDs,
		variants: opts.Variants,
	}
}

func (b *Bgen) String() string {
	return fmt.Sprintf("Bgen(%q, CountA1=%t)", b.Filename, b.opts.CountA1)
}

func (b *Bgen) bgiPath() string {
	if b.opts.BGIPath != "" {
		return b.opts.BGIPath
	}
	return b.Filename + ".bgi"
}

// Close releases the BGEN handle.
func (b *Bgen) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bg == nil {
		return nil
	}
	err := b.bg.Close()
	b.bg = nil

	return err
}

func (b *Bgen) openLocked() error {
	if b.bg != nil {
		return nil
	}

	bg, err := bgen.Open(b.Filename)
	if err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", b.Filename, err))
	}
	b.bg = bg

	return nil
}

// loadIndexLocked reads the variant listing from the .bgi, in file order.
func (b *Bgen) loadIndexLocked() error {
	if b.index != nil {
		return nil
	}

	bgi, err := openBGI(b.bgiPath())
	if err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", b.bgiPath(), err))
	}
	defer bgi.Close()

	index := make([]bgen.VariantIndex, 0)
	if err := bgi.DB.Select(&index, "SELECT * FROM Variant ORDER BY file_start_position ASC"); err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", b.bgiPath(), err))
	}
	b.index = index

	return nil
}

func (b *Bgen) Variants() ([]Variant, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.variants != nil {
		return b.variants, nil
	}

	if err := b.loadIndexLocked(); err != nil {
		return nil, err
	}

	variants := make([]Variant, len(b.index))
	for i, vi := range b.index {
		variants[i] = Variant{
			ID:         vi.RSID,
			Chromosome: vi.Chromosome,
			Position:   vi.Position,
			Allele1:    string(vi.Allele1),
			Allele2:    string(vi.Allele2),
		}
	}
	b.variants = variants

	return b.variants, nil
}

func (b *Bgen) IIDs() ([]IID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.iids != nil {
		return b.iids, nil
	}

	if b.opts.SampleFile != "" {
		iids, err := ReadOxfordSampleFile(context.Background(), b.opts.SampleFile, b.opts)
		if err != nil {
			return nil, err
		}
		b.iids = iids
		return b.iids, nil
	}

	if err := b.openLocked(); err != nil {
		return nil, err
	}

	// Sample IDs stored in the file have no family; without them individuals
	// are known only by their position.
	if b.bg.FlagHasSampleIDs {
		samples, err := bgen.ReadSamples(b.bg)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", b.Filename, err))
		}
		iids := make([]IID, len(samples))
		for i, sample := range samples {
			iids[i] = IID{FID: "0", IID: sample.SampleID}
		}
		b.iids = iids
		return b.iids, nil
	}

	iids := make([]IID, b.bg.NSamples)
	for i := range iids {
		iids[i] = IID{FID: "0", IID: strconv.Itoa(i)}
	}
	b.iids = iids

	return b.iids, nil
}

func (b *Bgen) Read(ctx context.Context, iidIndex, sidIndex []int) (*Data, error) {
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

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.openLocked(); err != nil {
		return nil, err
	}
	if err := b.loadIndexLocked(); err != nil {
		return nil, err
	}
	if len(b.index) != len(variants) {
		return nil, fmt.Errorf("%w: %s index lists %d variants but %d were supplied", ErrShape, b.bgiPath(), len(b.index), len(variants))
	}

	vr := b.bg.NewVariantReader()
	for j, sid := range sidIndex {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		variant := vr.ReadAt(int64(b.index[sid].FileStartPosition))
		if err := vr.Error(); err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: variant %s: %w", b.Filename, b.index[sid].RSID, err))
		}
		if variant == nil {
			return nil, fmt.Errorf("%s: variant %s could not be read", b.Filename, b.index[sid].RSID)
		}
		if len(variant.SampleProbabilities) != len(iids) {
			return nil, fmt.Errorf("%w: %s variant %s has %d samples but there are %d iids", ErrShape, b.Filename, b.index[sid].RSID, len(variant.SampleProbabilities), len(iids))
		}

		biallelic := len(variant.Alleles) == 2
		for i, iid := range iidIndex {
			if !biallelic {
				continue
			}
			sp := variant.SampleProbabilities[iid]
			if sp.Missing || sp.Ploidy != 2 {
				continue
			}
			out.Val.Set(i, j, bgenDosage(sp.Probabilities, b.opts.CountA1))
		}
	}

	return out, nil
}

// bgenDosage converts a diploid, biallelic sample's probabilities to an
// expected allele count. Unphased data holds one probability per genotype
// (11, 12, 22); phased data holds one pair per haplotype.
func bgenDosage(probs []float64, countA1 bool) float64 {
	var a1 float64
	switch len(probs) {
	case 4:
		a1 = probs[0] + probs[2]
	case 3:
		a1 = 2*probs[0] + probs[1]
	default:
		return math.NaN()
	}

	if countA1 {
		return a1
	}

	return 2 - a1
}

// ReadOxfordSampleFile reads the individuals of an Oxford .sample file: a
// header line, a column-type line, then one ID_1 ID_2 row per sample.
func ReadOxfordSampleFile(ctx context.Context, path string, opts Options) ([]IID, error) {
	rc, err := snptools.OpenText(ctx, path, opts.StorageClient)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	out := make([]IID, 0)
	for line := 0; scanner.Scan(); line++ {
		if line < 2 {
			continue
		}

		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) < 2 {
			return nil, fmt.Errorf("%s line %d: expected at least 2 columns, found %d", path, line+1, len(cols))
		}
		out = append(out, IID{FID: cols[0], IID: cols[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return out, nil
}
