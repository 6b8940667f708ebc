package snpreader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/carbocation/snptools"
	"github.com/carbocation/vcfgo"
)

// Vcf reads genotypes from a VCF, plain or (b)gzipped. Every read streams the
// file from the top, so it suits modest files or one-off conversions.
//
// Allele 1 is the first ALT allele and allele 2 is REF. Samples become IIDs
// with FID "0". A VCF ID of "." is replaced by CHROM:POS:REF:ALT.
type Vcf struct {
	Filename string
	opts     Options

	mu       sync.Mutex
	iids     []IID
	variants []Variant
}

func NewVcf(filename string, opts Options) *Vcf {
	return &Vcf{
		Filename: filename,
		opts:     opts,
		iids:     opts.IIDs,
		variants: opts.Variants,
	}
}

func (v *Vcf) String() string {
	return fmt.Sprintf("Vcf(%q, CountA1=%t)", v.Filename, v.opts.CountA1)
}

// Close is a nop: no handle is held between reads.
func (v *Vcf) Close() error {
	return nil
}

func (v *Vcf) open(ctx context.Context, lazySamples bool) (*vcfgo.Reader, io.Closer, error) {
	rc, err := snptools.OpenText(ctx, v.Filename, v.opts.StorageClient)
	if err != nil {
		return nil, nil, pfx.Err(err)
	}

	rdr, err := vcfgo.NewReader(bufio.NewReaderSize(rc, 1<<20), lazySamples)
	if err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("%s: %w", v.Filename, err)
	}

	return rdr, rc, nil
}

// loadLocked fills in whichever of the IIDs and variants were not supplied.
func (v *Vcf) loadLocked() error {
	if v.iids != nil && v.variants != nil {
		return nil
	}

	rdr, rc, err := v.open(context.Background(), true)
	if err != nil {
		return err
	}
	defer rc.Close()

	if v.iids == nil {
		iids := make([]IID, len(rdr.Header.SampleNames))
		for i, name := range rdr.Header.SampleNames {
			iids[i] = IID{FID: "0", IID: name}
		}
		v.iids = iids
	}

	if v.variants != nil {
		return nil
	}

	variants := make([]Variant, 0)
	for variant := rdr.Read(); variant != nil; variant = rdr.Read() {
		variants = append(variants, vcfVariant(variant))
	}
	if err := rdr.Error(); err != nil {
		return fmt.Errorf("%s: %w", v.Filename, err)
	}
	v.variants = variants

	return nil
}

func vcfVariant(variant *vcfgo.Variant) Variant {
	alt := ""
	if alts := variant.Alt(); len(alts) > 0 {
		alt = alts[0]
	}

	id := variant.Id()
	if id == "" || id == "." {
		id = fmt.Sprintf("%s:%d:%s:%s", variant.Chromosome, variant.Pos, variant.Ref(), strings.Join(variant.Alt(), ","))
	}

	return Variant{
		ID:         id,
		Chromosome: variant.Chromosome,
		Position:   uint32(variant.Pos),
		Allele1:    alt,
		Allele2:    variant.Ref(),
	}
}

func (v *Vcf) IIDs() ([]IID, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.loadLocked(); err != nil {
		return nil, err
	}
	return v.iids, nil
}

func (v *Vcf) Variants() ([]Variant, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.loadLocked(); err != nil {
		return nil, err
	}
	return v.variants, nil
}

func (v *Vcf) Read(ctx context.Context, iidIndex, sidIndex []int) (*Data, error) {
	iids, err := v.IIDs()
	if err != nil {
		return nil, err
	}
	variants, err := v.Variants()
	if err != nil {
		return nil, err
	}
	if iidIndex, err = checkIndex(iidIndex, len(iids), "iid"); err != nil {
		return nil, err
	}
	if sidIndex, err = checkIndex(sidIndex, len(variants), "sid"); err != nil {
		return nil, err
	}

	out := newFilledData(v.String(), pickIIDs(iids, iidIndex), pickVariants(variants, sidIndex))
	if out.Val == nil {
		return out, nil
	}

	// A variant may be requested more than once
	columns := make(map[int][]int, len(sidIndex))
	for j, sid := range sidIndex {
		columns[sid] = append(columns[sid], j)
	}

	rdr, rc, err := v.open(ctx, true)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	remaining := len(columns)
	for k := 0; remaining > 0; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		variant := rdr.Read()
		if variant == nil {
			break
		}

		cols, wanted := columns[k]
		if !wanted {
			continue
		}
		remaining--

		if err := variant.Header.ParseSamples(variant); err != nil {
			return nil, fmt.Errorf("%s: variant %d: %w", v.Filename, k, err)
		}
		for i, iid := range iidIndex {
			if iid >= len(variant.Samples) {
				return nil, fmt.Errorf("%s: %w: variant %d has %d samples, wanted sample %d", v.Filename, ErrShape, k, len(variant.Samples), iid)
			}

			value := math.NaN()
			if sample := variant.Samples[iid]; sample != nil {
				value = vcfDosage(sample.GT, v.opts.CountA1)
			}
			for _, j := range cols {
				out.Val.Set(i, j, value)
			}
		}
	}
	if err := rdr.Error(); err != nil {
		return nil, fmt.Errorf("%s: %w", v.Filename, err)
	}
	if remaining > 0 {
		return nil, fmt.Errorf("%s: %w: %d requested variants were not found", v.Filename, ErrShape, remaining)
	}

	return out, nil
}

// vcfDosage converts a diploid GT to a count of the first ALT allele (or of
// REF). Missing calls, other ploidies and calls of any other ALT allele are
// NaN.
func vcfDosage(gt []int, countA1 bool) float64 {
	if len(gt) != 2 {
		return math.NaN()
	}

	alt := 0.0
	for _, allele := range gt {
		switch allele {
		case 0:
		case 1:
			alt++
		default:
			return math.NaN()
		}
	}

	if countA1 {
		return alt
	}

	return 2 - alt
}
