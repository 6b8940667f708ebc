// snpread prints a subset of a genotype (.bed, .pgen, .bgen) or phenotype file
// as a tab-delimited matrix with one row per individual.
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
	"github.com/carbocation/snptools/snpreader"
	"github.com/carbocation/snptools/standardizer"
)

var (
	BufferSize = 4096
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

var client *storage.Client

func main() {
	defer STDOUT.Flush()

	var (
		file            string
		iidFile         string
		sids            string
		sidStart        int
		sidStop         int
		standardizeWith string
		opts            snpreader.Options
	)
	flag.StringVar(&file, "file", "", "Path to a .bed, .pgen, .bgen, .vcf(.gz) or phenotype file. May be a gs:// path, except for .bgen")
	flag.StringVar(&iidFile, "iids", "", "Optional: file listing the FID and IID of each individual to keep, one per line")
	flag.StringVar(&sids, "sids", "", "Optional: comma-separated variant IDs to keep")
	flag.IntVar(&sidStart, "sid-start", 0, "Optional: first variant (0-based) to keep")
	flag.IntVar(&sidStop, "sid-stop", -1, "Optional: variant (0-based) to stop before. -1 means the end of the file")
	flag.StringVar(&standardizeWith, "standardizer", "identity", "One of identity, unit, beta, beta(a,b), diag_k_to_n")
	flag.BoolVar(&opts.CountA1, "count-a1", true, "Count allele 1 (the PLINK standard) rather than allele 2")
	flag.BoolVar(&opts.SkipFormatCheck, "skip-format-check", false, "Skip validating file headers and sizes")
	flag.IntVar(&opts.Workers, "workers", 0, "Goroutines used to decode variants. 0 means one per CPU")
	flag.StringVar(&opts.SampleFile, "sample", "", "For .bgen: Oxford .sample file naming the samples")
	flag.StringVar(&opts.BGIPath, "bgi", "", "For .bgen: path to the index. Defaults to the .bgen path suffixed with .bgi")
	flag.Parse()

	if file == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --file")
	}

	s, err := standardizer.Parse(standardizeWith)
	if err != nil {
		log.Fatalln(err)
	}

	if file, err = snptools.ExpandHome(file); err != nil {
		log.Fatalln(err)
	}

	ctx := context.Background()
	if snptools.IsGoogleStoragePath(file) {
		if client, err = storage.NewClient(ctx); err != nil {
			log.Fatalln(err)
		}
		opts.StorageClient = client
	}

	if err := run(ctx, file, iidFile, sids, sidStart, sidStop, s, opts); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, file, iidFile, sids string, sidStart, sidStop int, s standardizer.Standardizer, opts snpreader.Options) error {
	r := snpreader.Open(file, opts)
	defer r.Close()

	iidIndex, err := iidSelection(r, iidFile)
	if err != nil {
		return err
	}

	sidIndex, err := sidSelection(r, sids, sidStart, sidStop)
	if err != nil {
		return err
	}

	log.Printf("Reading %s\n", snpreader.Subset(r, iidIndex, sidIndex))

	data, err := snpreader.Subset(r, iidIndex, sidIndex).Read(ctx, nil, nil)
	if err != nil {
		return err
	}

	trained, err := data.Standardize(s)
	if err != nil {
		return err
	}
	log.Println("Standardized with", trained)

	return writeMatrix(data)
}

func iidSelection(r snpreader.Reader, iidFile string) ([]int, error) {
	if iidFile == "" {
		return nil, nil
	}

	f, err := os.Open(iidFile)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	wanted := make([]snpreader.IID, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		cols := strings.Fields(scanner.Text())
		if len(cols) < 2 {
			continue
		}
		wanted = append(wanted, snpreader.IID{FID: cols[0], IID: cols[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return snpreader.IIDIndex(r, wanted)
}

func sidSelection(r snpreader.Reader, sids string, start, stop int) ([]int, error) {
	if sids != "" {
		return snpreader.SIDIndex(r, strings.Split(sids, ","))
	}

	if start == 0 && stop < 0 {
		return nil, nil
	}

	if stop < 0 {
		n, err := snpreader.SIDCount(r)
		if err != nil {
			return nil, err
		}
		stop = n
	}

	return snpreader.Range(start, stop), nil
}

func writeMatrix(data *snpreader.Data) error {
	iids, _ := data.IIDs()
	variants, _ := data.Variants()

	header := make([]string, 0, len(variants)+2)
	header = append(header, "FID", "IID")
	for _, v := range variants {
		header = append(header, v.ID)
	}
	fmt.Fprintln(STDOUT, strings.Join(header, "\t"))

	row := make([]string, 0, len(variants)+2)
	for i, iid := range iids {
		row = append(row[:0], iid.FID, iid.IID)
		for j := range variants {
			row = append(row, strconv.FormatFloat(data.At(i, j), 'g', 6, 64))
		}
		if _, err := fmt.Fprintln(STDOUT, strings.Join(row, "\t")); err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}
