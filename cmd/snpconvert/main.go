// snpconvert reads a genotype or phenotype file and writes it as a PLINK 1
// .bed/.bim/.fam fileset.
package main

import (
	"context"
	"flag"
	"log"

	"cloud.google.com/go/storage"
	"github.com/carbocation/snptools"
	_ "github.com/carbocation/snptools/compileinfoprint"
	"github.com/carbocation/snptools/snpreader"
)

func main() {
	var (
		file string
		out  string
		opts snpreader.Options
	)
	flag.StringVar(&file, "file", "", "Path to a .bed, .pgen, .bgen, .vcf(.gz) or phenotype file. May be a gs:// path, except for .bgen")
	flag.StringVar(&out, "out", "", "Output path. The .bed, .bim and .fam suffixes are added")
	flag.IntVar(&opts.Workers, "workers", 0, "Goroutines used to decode variants. 0 means one per CPU")
	flag.StringVar(&opts.SampleFile, "sample", "", "For .bgen: Oxford .sample file naming the samples")
	flag.StringVar(&opts.BGIPath, "bgi", "", "For .bgen: path to the index")
	flag.BoolVar(&opts.SkipFormatCheck, "skip-format-check", false, "Skip validating file headers and sizes")
	flag.Parse()

	if file == "" || out == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --file and --out")
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

	if err := run(ctx, file, out, opts); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, file, out string, opts snpreader.Options) error {
	r := snpreader.Open(file, opts)
	defer r.Close()

	data, err := r.Read(ctx, nil, nil)
	if err != nil {
		return err
	}

	nIID, nSID := data.Dims()
	log.Printf("Writing %d individuals and %d variants to %s\n", nIID, nSID, out)

	return snpreader.WriteBed(ctx, out, data, opts.CountA1)
}
