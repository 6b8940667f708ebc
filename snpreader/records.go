package snpreader

import (
	"context"
	"io"
	"math"
	"runtime"

	"github.com/carbocation/pfx"
	"golang.org/x/sync/errgroup"
)

// Runs of adjacent records are fetched with a single ReadAt up to this size,
// which matters most for ranged reads from Google Storage.
const maxRunBytes = 8 << 20

// Lookup tables from 2-bit codes to allele counts. PLINK 1 stores 00 for
// homozygous allele 1, 01 for missing, 10 for heterozygous and 11 for
// homozygous allele 2.
var (
	bedCountA1 = [4]float64{2, math.NaN(), 1, 0}
	bedCountA2 = [4]float64{0, math.NaN(), 1, 2}
)

// PLINK 2 hardcalls store the number of alt alleles, with 3 for missing. The
// alt allele is allele 1.
var (
	pgenCountA1 = [4]float64{0, 1, 2, math.NaN()}
	pgenCountA2 = [4]float64{2, 1, 0, math.NaN()}
)

// code2 extracts the i'th 2-bit code from a packed record, low bits first.
func code2(record []byte, i int) byte {
	return (record[i>>2] >> (uint(i&3) << 1)) & 3
}

// packedLen is the number of bytes needed for n 2-bit codes.
func packedLen(n int) int {
	return (n + 3) / 4
}

func workerCount(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// readRecords fetches the fixed-length records at base+majorIndex[k]*recordLen
// and hands each to fn along with its position k. Positions are split into
// contiguous chunks across workers; fn must be safe to call concurrently for
// different k.
func readRecords(ctx context.Context, ra io.ReaderAt, base int64, recordLen int, majorIndex []int, workers int, fn func(k int, record []byte) error) error {
	if len(majorIndex) == 0 {
		return nil
	}

	workers = workerCount(workers)
	chunk := (len(majorIndex) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(majorIndex); start += chunk {
		start, stop := start, start+chunk
		if stop > len(majorIndex) {
			stop = len(majorIndex)
		}

		g.Go(func() error {
			var buf []byte
			for pos := start; pos < stop; {
				if err := ctx.Err(); err != nil {
					return err
				}

				end := pos + 1
				for end < stop && majorIndex[end] == majorIndex[end-1]+1 && (end-pos+1)*recordLen <= maxRunBytes {
					end++
				}

				n := (end - pos) * recordLen
				if cap(buf) < n {
					buf = make([]byte, n)
				}
				buf = buf[:n]

				got, err := ra.ReadAt(buf, base+int64(majorIndex[pos])*int64(recordLen))
				if err != nil && !(err == io.EOF && got == n) {
					return pfx.Err(err)
				}

				for k := pos; k < end; k++ {
					offset := (k - pos) * recordLen
					if err := fn(k, buf[offset:offset+recordLen]); err != nil {
						return err
					}
				}

				pos = end
			}

			return nil
		})
	}

	return g.Wait()
}
