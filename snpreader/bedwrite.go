package snpreader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/carbocation/snptools"
)

// WriteBed writes data as a variant-major PLINK 1 fileset: filename.bed,
// filename.bim and filename.fam (a .bed suffix on filename is optional). Values
// must be allele counts, 0, 1 or 2, or NaN for missing. countA1 says which
// allele the values count, as for Options.CountA1.
func WriteBed(ctx context.Context, filename string, data *Data, countA1 bool) error {
	iids, _ := data.IIDs()
	variants, _ := data.Variants()

	if err := writeFam(snptools.SiblingPath(filename, "bed", "fam"), iids); err != nil {
		return err
	}
	if err := writeBim(snptools.SiblingPath(filename, "bed", "bim"), variants); err != nil {
		return err
	}

	bedPath := snptools.SiblingPath(filename, "bed", "bed")
	f, err := os.Create(bedPath)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write([]byte{plinkMagic0, plinkMagic1, bedVariantMajor}); err != nil {
		return pfx.Err(err)
	}

	record := make([]byte, packedLen(len(iids)))
	for j := range variants {
		if err := ctx.Err(); err != nil {
			return err
		}

		for k := range record {
			record[k] = 0
		}
		for i := range iids {
			code, err := bedCode(data.Val.At(i, j), countA1)
			if err != nil {
				return fmt.Errorf("%s: iid %d, sid %d (%s): %w", bedPath, i, j, variants[j].ID, err)
			}
			record[i>>2] |= code << (uint(i&3) << 1)
		}

		if _, err := w.Write(record); err != nil {
			return pfx.Err(err)
		}
	}

	if err := w.Flush(); err != nil {
		return pfx.Err(err)
	}

	if err := f.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func bedCode(v float64, countA1 bool) (byte, error) {
	if math.IsNaN(v) {
		return 0x01, nil
	}

	if !countA1 {
		v = 2 - v
	}

	switch v {
	case 2:
		return 0x00, nil
	case 1:
		return 0x02, nil
	case 0:
		return 0x03, nil
	}

	return 0, fmt.Errorf("value %v is not an allele count", v)
}

func writeFam(path string, iids []IID) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, iid := range iids {
		fmt.Fprintf(w, "%s %s 0 0 0 -9\n", iid.FID, iid.IID)
	}
	if err := w.Flush(); err != nil {
		return pfx.Err(err)
	}

	if err := f.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func writeBim(path string, variants []Variant) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := WriteVariants(w, variants); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return pfx.Err(err)
	}

	if err := f.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// WriteVariants writes variants as tab-delimited .bim rows. Empty chromosomes
// and alleles are written as 0.
func WriteVariants(w io.Writer, variants []Variant) error {
	orZero := func(s string) string {
		if s == "" {
			return "0"
		}
		return s
	}

	for _, v := range variants {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			orZero(v.Chromosome), v.ID, strconv.FormatFloat(v.GeneticDistance, 'g', -1, 64), v.Position, orZero(v.Allele1), orZero(v.Allele2))
		if err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}
