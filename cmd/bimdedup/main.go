// bimdedup reads a .bim or .pvar and prints it as .bim rows in which every
// variant ID is unique, which lookups by SID require. Repeated IDs get a short
// random suffix. A .pvar comes out as a .bim: ALT is allele 1 and REF allele 2,
// and its header and INFO columns are not kept.
package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log"
	"math/rand"
	"os"

	"cloud.google.com/go/storage"
	"github.com/carbocation/snptools"
	_ "github.com/carbocation/snptools/compileinfoprint"
	"github.com/carbocation/snptools/snpreader"
)

var (
	BufferSize = 4096
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	defer STDOUT.Flush()

	var (
		file string
		seed int64
	)
	flag.StringVar(&file, "file", "", "Path to a .bim or .pvar file, optionally compressed. May be a gs:// path. Output is always .bim")
	flag.Int64Var(&seed, "seed", 1, "Seed for the random suffixes")
	flag.Parse()

	if file == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide --file")
	}

	ctx := context.Background()
	var client *storage.Client
	if snptools.IsGoogleStoragePath(file) {
		var err error
		if client, err = storage.NewClient(ctx); err != nil {
			log.Fatalln(err)
		}
	}

	if err := run(ctx, file, client, rand.New(rand.NewSource(seed)), STDOUT); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, file string, client *storage.Client, rng *rand.Rand, w io.Writer) error {
	variants, err := snpreader.ReadVariantFile(ctx, file, client)
	if err != nil {
		return err
	}

	fixed := Dedup(variants, rng)

	if err := snpreader.WriteVariants(w, variants); err != nil {
		return err
	}

	log.Println("Fixed", fixed, "duplicate SNP IDs")

	return nil
}

// Dedup renames, in place, every variant whose ID was already seen, and
// returns the number renamed. The first occurrence keeps its ID.
func Dedup(variants []snpreader.Variant, rng *rand.Rand) int {
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		seen[v.ID] = struct{}{}
	}

	first := make(map[string]struct{}, len(variants))
	fixed := 0
	for i := range variants {
		if _, exists := first[variants[i].ID]; !exists {
			first[variants[i].ID] = struct{}{}
			continue
		}

		renamed := variants[i].ID + "_" + RandHeteroglyphs(rng, 3)
		for {
			if _, exists := seen[renamed]; !exists {
				break
			}
			renamed = variants[i].ID + "_" + RandHeteroglyphs(rng, 3)
		}
		seen[renamed] = struct{}{}
		variants[i].ID = renamed
		fixed++
	}

	return fixed
}

// RandHeteroglyphs produces n symbols chosen so that none can be mistaken for
// another.
func RandHeteroglyphs(rng *rand.Rand, n int) string {
	letters := []rune("abcdefghkmnpqrstwxyz")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rng.Intn(len(letters))]
	}
	return string(b)
}
