package kernelreader

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/carbocation/snptools/kernelstandardizer"
	"github.com/carbocation/snptools/snpreader"
	"github.com/carbocation/snptools/standardizer"
	"gonum.org/v1/gonum/mat"
	"golang.org/x/sync/errgroup"
)

const DefaultBlockSize = 1000

type Options struct {
	// Standardizer is applied to each block of variants before it is added
	// to the kernel. It must act column by column; DiagKtoN is the exception
	// and is applied to the finished kernel instead, which is equivalent.
	// A trained per-column standardizer must cover every variant and is
	// sliced to each block.
	Standardizer standardizer.Standardizer

	// BlockSize is the number of variants read at a time.
	BlockSize int

	// Verbose logs progress after every block.
	Verbose bool
}

// FromSnps computes K = X Xᵀ over every variant of r, reading BlockSize
// variants at a time. The next block is read while the current one is being
// accumulated.
func FromSnps(ctx context.Context, r snpreader.Reader, opts Options) (*KernelData, error) {
	iids, err := r.IIDs()
	if err != nil {
		return nil, err
	}
	nSID, err := snpreader.SIDCount(r)
	if err != nil {
		return nil, err
	}
	if len(iids) == 0 {
		return &KernelData{IIDs: iids}, nil
	}

	blockSize := opts.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	var blockStandardizer standardizer.Standardizer = standardizer.Identity{}
	var perColumn standardizer.PerColumn
	var kernelStandardizer kernelstandardizer.KernelStandardizer = kernelstandardizer.Identity{}
	switch s := opts.Standardizer.(type) {
	case nil:
	case standardizer.DiagKtoN, *standardizer.DiagKtoN:
		kernelStandardizer = kernelstandardizer.DiagKtoN{}
	case standardizer.PerColumn:
		if s.ColumnCount() != nSID {
			return nil, fmt.Errorf("%s was trained on %d variants but %s has %d", s, s.ColumnCount(), r, nSID)
		}
		perColumn = s
	default:
		blockStandardizer = s
	}

	K := mat.NewSymDense(len(iids), nil)
	blocks := make(chan *snpreader.Data, 1)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(blocks)
		for start := 0; start < nSID; start += blockSize {
			stop := start + blockSize
			if stop > nSID {
				stop = nSID
			}

			block, err := r.Read(ctx, nil, snpreader.Range(start, stop))
			if err != nil {
				return err
			}

			select {
			case blocks <- block:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		done := 0
		for block := range blocks {
			_, cols := block.Val.Dims()

			s := blockStandardizer
			if perColumn != nil {
				var err error
				if s, err = perColumn.Columns(done, done+cols); err != nil {
					return err
				}
			}
			if _, err := block.Standardize(s); err != nil {
				return err
			}
			if err := checkFinite(block); err != nil {
				return err
			}

			K.SymRankK(K, 1, block.Val)

			done += cols
			if opts.Verbose {
				log.Printf("Kernel: accumulated %d of %d variants\n", done, nSID)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &KernelData{IIDs: iids, Val: K}
	if _, err := out.Standardize(kernelStandardizer); err != nil {
		return nil, err
	}

	return out, nil
}

func checkFinite(block *snpreader.Data) error {
	rows, cols := block.Val.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.IsNaN(block.Val.At(i, j)) {
				variants, _ := block.Variants()
				return fmt.Errorf("%w: variant %s still has missing values after standardization", standardizer.ErrMissingValues, variants[j].ID)
			}
		}
	}
	return nil
}
