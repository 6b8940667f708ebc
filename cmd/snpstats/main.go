// snpstats computes per-variant call rate, allele frequency, genotype counts
// and the exact Hardy-Weinberg P-value of a genotype file.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"math"
	"os"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/snptools"
	_ "github.com/carbocation/snptools/compileinfoprint"
	"github.com/carbocation/snptools/hwe"
	"github.com/carbocation/snptools/snpreader"
	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"
)

var (
	BufferSize = 4096
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

// VariantStats is one output row.
type VariantStats struct {
	SNP       string  `csv:"SNP"`
	CHR       string  `csv:"CHR"`
	BP        uint32  `csv:"BP"`
	A1        string  `csv:"A1"`
	A2        string  `csv:"A2"`
	NCalled   int64   `csv:"N_CALLED"`
	CallRate  float64 `csv:"CALL_RATE"`
	A1Freq    float64 `csv:"A1_FREQ"`
	MAF       float64 `csv:"MAF"`
	HomA1     int64   `csv:"AA"`
	Het       int64   `csv:"Aa"`
	HomA2     int64   `csv:"aa"`
	HWEExactP float64 `csv:"HWE_EXACT_P"`
}

func main() {
	defer STDOUT.Flush()

	var (
		file      string
		blockSize int
		opts      snpreader.Options
	)
	flag.StringVar(&file, "file", "", "Path to a .bed, .pgen, .bgen or .vcf(.gz) file. May be a gs:// path, except for .bgen")
	flag.IntVar(&blockSize, "block-size", 1000, "Number of variants to read at a time")
	flag.IntVar(&opts.Workers, "workers", 0, "Goroutines used to decode variants. 0 means one per CPU")
	flag.StringVar(&opts.SampleFile, "sample", "", "For .bgen: Oxford .sample file naming the samples")
	flag.StringVar(&opts.BGIPath, "bgi", "", "For .bgen: path to the index")
	flag.Parse()

	if file == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --file")
	}
	if blockSize < 1 {
		log.Fatalln("--block-size must be positive")
	}

	// Genotype counts below are always expressed in terms of allele 1.
	opts.CountA1 = true

	ctx := context.Background()
	if snptools.IsGoogleStoragePath(file) {
		client, err := storage.NewClient(ctx)
		if err != nil {
			log.Fatalln(err)
		}
		opts.StorageClient = client
	}

	if err := run(ctx, file, blockSize, opts); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, file string, blockSize int, opts snpreader.Options) error {
	r := snpreader.Open(file, opts)
	defer r.Close()

	nSID, err := snpreader.SIDCount(r)
	if err != nil {
		return err
	}

	rows := make([]*VariantStats, 0, nSID)
	for start := 0; start < nSID; start += blockSize {
		stop := start + blockSize
		if stop > nSID {
			stop = nSID
		}

		block, err := r.Read(ctx, nil, snpreader.Range(start, stop))
		if err != nil {
			return err
		}

		rows = append(rows, summarize(block)...)
		log.Printf("Processed %d/%d variants\n", stop, nSID)
	}

	w := gocsv.NewSafeCSVWriter(csvWriter(STDOUT))
	if err := gocsv.MarshalCSV(&rows, w); err != nil {
		return pfx.Err(err)
	}

	logSummary(rows)

	return nil
}

func summarize(block *snpreader.Data) []*VariantStats {
	variants, _ := block.Variants()
	nIID, nSID := block.Dims()

	out := make([]*VariantStats, 0, nSID)
	column := make([]float64, nIID)
	for j, v := range variants {
		for i := range column {
			column[i] = block.At(i, j)
		}

		c := hwe.Count(column)
		row := &VariantStats{
			SNP:     v.ID,
			CHR:     v.Chromosome,
			BP:      v.Position,
			A1:      v.Allele1,
			A2:      v.Allele2,
			NCalled: c.Called(),
			A1Freq:  c.A1Frequency(),
			HomA1:   c.HomA1,
			Het:     c.Het,
			HomA2:   c.HomA2,
		}
		if nIID > 0 {
			row.CallRate = float64(c.Called()) / float64(nIID)
		}
		row.MAF = math.Min(row.A1Freq, 1-row.A1Freq)
		row.HWEExactP = math.NaN()
		if c.Called() > 0 {
			row.HWEExactP = c.Exact()
		}

		out = append(out, row)
	}

	return out
}

func logSummary(rows []*VariantStats) {
	callRates := make(stats.Float64Data, 0, len(rows))
	mafs := make(stats.Float64Data, 0, len(rows))
	failing := 0
	for _, row := range rows {
		callRates = append(callRates, row.CallRate)
		if !math.IsNaN(row.MAF) {
			mafs = append(mafs, row.MAF)
		}
		if row.HWEExactP < 1e-6 {
			failing++
		}
	}

	if callRates.Len() < 1 {
		log.Println("No variants")
		return
	}

	medianCallRate, _ := callRates.Median()
	minCallRate, _ := callRates.Min()
	log.Printf("%d variants. Call rate median %.4f, min %.4f\n", len(rows), medianCallRate, minCallRate)

	if mafs.Len() > 0 {
		medianMAF, _ := mafs.Median()
		meanMAF, _ := mafs.Mean()
		log.Printf("MAF median %.4f, mean %.4f\n", medianMAF, meanMAF)
	}

	log.Printf("%d variants with HWE exact P < 1e-6\n", failing)
}
