// bim counts the variants in a (possibly compressed, possibly gs://) .bim or
// .pvar file.
package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/snptools"
)

func main() {
	path := flag.String("path", "", "Path to a .bim or .pvar file")
	flag.Parse()

	if *path == "" {
		flag.PrintDefaults()
		log.Fatalln("No path provided")
	}

	ctx := context.Background()

	var client *storage.Client
	if snptools.IsGoogleStoragePath(*path) {
		var err error
		if client, err = storage.NewClient(ctx); err != nil {
			log.Fatalln(err)
		}
	}

	rc, err := snptools.OpenText(ctx, *path, client)
	if err != nil {
		log.Fatalln(err)
	}

	type scanner interface {
		Read() *snptools.BIMRow
		Err() error
		Close() error
	}
	var b scanner = snptools.NewBIM(rc)
	if strings.Contains(*path, ".pvar") {
		b = snptools.NewPVAR(rc)
	}
	defer b.Close()

	j := 0
	chromosomes := make(map[string]int)
	for v := b.Read(); v != nil; v = b.Read() {
		chromosomes[v.Chromosome]++
		j++
	}
	if err := b.Err(); err != nil {
		log.Fatalln(err)
	}

	log.Println(j, "variants on", len(chromosomes), "chromosomes")
}
