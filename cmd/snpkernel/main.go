// snpkernel computes the SNP kernel (genetic similarity matrix) of a genotype
// file and prints it as a tab-delimited matrix.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/snptools"
	_ "github.com/carbocation/snptools/compileinfoprint"
	"github.com/carbocation/snptools/kernelreader"
	"github.com/carbocation/snptools/kernelstandardizer"
	"github.com/carbocation/snptools/snpreader"
	"github.com/carbocation/snptools/standardizer"
)

var (
	BufferSize = 4096
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	defer STDOUT.Flush()

	var (
		file               string
		snpStandardizer    string
		kernelStandardizer string
		blockSize          int
		verbose            bool
		opts               snpreader.Options
	)
	flag.StringVar(&file, "file", "", "Path to a .bed, .pgen, .bgen or .vcf(.gz) file. May be a gs:// path, except for .bgen")
	flag.StringVar(&snpStandardizer, "standardizer", "unit", "Per-variant standardizer: identity, unit, beta, beta(a,b), diag_k_to_n")
	flag.StringVar(&kernelStandardizer, "kernel-standardizer", "diag_k_to_n", "Kernel standardizer: identity or diag_k_to_n")
	flag.IntVar(&blockSize, "block-size", kernelreader.DefaultBlockSize, "Number of variants to read at a time")
	flag.BoolVar(&verbose, "verbose", false, "Log progress after every block")
	flag.IntVar(&opts.Workers, "workers", 0, "Goroutines used to decode variants. 0 means one per CPU")
	flag.StringVar(&opts.SampleFile, "sample", "", "For .bgen: Oxford .sample file naming the samples")
	flag.StringVar(&opts.BGIPath, "bgi", "", "For .bgen: path to the index")
	flag.Parse()

	if file == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --file")
	}

	s, err := standardizer.Parse(snpStandardizer)
	if err != nil {
		log.Fatalln(err)
	}
	ks, err := kernelstandardizer.Parse(kernelStandardizer)
	if err != nil {
		log.Fatalln(err)
	}

	opts.CountA1 = true

	ctx := context.Background()
	if snptools.IsGoogleStoragePath(file) {
		client, err := storage.NewClient(ctx)
		if err != nil {
			log.Fatalln(err)
		}
		opts.StorageClient = client
	}

	kopts := kernelreader.Options{
		Standardizer: s,
		BlockSize:    blockSize,
		Verbose:      verbose,
	}

	if err := run(ctx, file, opts, kopts, ks); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, file string, opts snpreader.Options, kopts kernelreader.Options, ks kernelstandardizer.KernelStandardizer) error {
	r := snpreader.Open(file, opts)
	defer r.Close()

	log.Printf("Computing the kernel of %s with %s\n", r, kopts.Standardizer)

	k, err := kernelreader.FromSnps(ctx, r, kopts)
	if err != nil {
		return err
	}

	trained, err := k.Standardize(ks)
	if err != nil {
		return err
	}
	log.Println("Kernel standardized with", trained)

	header := []string{"FID", "IID"}
	for _, iid := range k.IIDs {
		header = append(header, iid.String())
	}
	fmt.Fprintln(STDOUT, strings.Join(header, "\t"))

	row := make([]string, 0, len(k.IIDs)+2)
	for i, iid := range k.IIDs {
		row = append(row[:0], iid.FID, iid.IID)
		for j := range k.IIDs {
			row = append(row, strconv.FormatFloat(k.Val.At(i, j), 'g', 8, 64))
		}
		if _, err := fmt.Fprintln(STDOUT, strings.Join(row, "\t")); err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}
