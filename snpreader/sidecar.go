package snpreader

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/snptools"
)

// sidecars lazily loads and caches the row and column metadata of a
// file-backed reader. The path functions are consulted only on first use.
type sidecars struct {
	client  *storage.Client
	iidPath func(ctx context.Context) (string, error)
	varPath func(ctx context.Context) (string, error)

	mu       sync.Mutex
	iids     []IID
	variants []Variant
}

func newSidecars(opts Options, iidPath, varPath func(ctx context.Context) (string, error)) *sidecars {
	return &sidecars{
		client:   opts.StorageClient,
		iidPath:  iidPath,
		varPath:  varPath,
		iids:     opts.IIDs,
		variants: opts.Variants,
	}
}

func (s *sidecars) IIDs() ([]IID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.iids != nil {
		return s.iids, nil
	}

	ctx := context.Background()
	path, err := s.iidPath(ctx)
	if err != nil {
		return nil, err
	}
	iids, err := ReadIIDFile(ctx, path, s.client)
	if err != nil {
		return nil, err
	}
	s.iids = iids

	return s.iids, nil
}

func (s *sidecars) Variants() ([]Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.variants != nil {
		return s.variants, nil
	}

	ctx := context.Background()
	path, err := s.varPath(ctx)
	if err != nil {
		return nil, err
	}
	variants, err := ReadVariantFile(ctx, path, s.client)
	if err != nil {
		return nil, err
	}
	s.variants = variants

	return s.variants, nil
}

// ReadIIDFile reads the individuals listed in a .fam or .psam file, which may
// be compressed.
func ReadIIDFile(ctx context.Context, path string, client *storage.Client) ([]IID, error) {
	rc, err := snptools.OpenText(ctx, path, client)
	if err != nil {
		return nil, pfx.Err(err)
	}

	type famScanner interface {
		Read() *snptools.FAMRow
		Err() error
		Close() error
	}
	var scanner famScanner
	if strings.Contains(path, ".psam") {
		scanner = snptools.NewPSAM(rc)
	} else {
		scanner = snptools.NewFAM(rc)
	}
	defer scanner.Close()

	out := make([]IID, 0)
	for row := scanner.Read(); row != nil; row = scanner.Read() {
		out = append(out, IID{FID: row.FID, IID: row.IID})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return out, nil
}

// ReadVariantFile reads the variants listed in a .bim or .pvar file, which may
// be compressed.
func ReadVariantFile(ctx context.Context, path string, client *storage.Client) ([]Variant, error) {
	rc, err := snptools.OpenText(ctx, path, client)
	if err != nil {
		return nil, pfx.Err(err)
	}

	type bimScanner interface {
		Read() *snptools.BIMRow
		Err() error
		Close() error
	}
	var scanner bimScanner
	if strings.Contains(path, ".pvar") {
		scanner = snptools.NewPVAR(rc)
	} else {
		scanner = snptools.NewBIM(rc)
	}
	defer scanner.Close()

	out := make([]Variant, 0)
	for row := scanner.Read(); row != nil; row = scanner.Read() {
		out = append(out, Variant{
			ID:              row.VariantID,
			Chromosome:      row.Chromosome,
			GeneticDistance: row.Morgans,
			Position:        row.Coordinate,
			Allele1:         row.Allele1,
			Allele2:         row.Allele2,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return out, nil
}

// firstExisting returns the first candidate path that exists, or the first
// candidate if none do so that the eventual open reports a useful error.
func firstExisting(ctx context.Context, client *storage.Client, candidates ...string) (string, error) {
	for _, path := range candidates {
		exists, err := snptools.Exists(ctx, path, client)
		if err != nil {
			return "", pfx.Err(err)
		}
		if exists {
			return path, nil
		}
	}

	return candidates[0], nil
}
