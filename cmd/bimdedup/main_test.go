package main

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/snptools/snpreader"
)

func TestDedup(t *testing.T) {
	variants := []snpreader.Variant{{ID: "rs1"}, {ID: "rs2"}, {ID: "rs1"}, {ID: "rs1"}, {ID: "rs3"}}

	fixed := Dedup(variants, rand.New(rand.NewSource(1)))
	if fixed != 2 {
		t.Fatalf("Expected 2 renamed, got %d", fixed)
	}

	seen := make(map[string]struct{})
	for _, v := range variants {
		if _, exists := seen[v.ID]; exists {
			t.Fatalf("Duplicate ID %s remains", v.ID)
		}
		seen[v.ID] = struct{}{}
	}

	if variants[0].ID != "rs1" || variants[1].ID != "rs2" || variants[4].ID != "rs3" {
		t.Fatalf("First occurrences were renamed: %+v", variants)
	}
	if !strings.HasPrefix(variants[2].ID, "rs1_") || len(variants[2].ID) != len("rs1_")+3 {
		t.Fatalf("Unexpected rename %s", variants[2].ID)
	}
}

func TestRunPVAR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pvar")
	pvar := "##fileformat=PVARv1.0\n#CHROM\tPOS\tID\tREF\tALT\tINFO\n1\t100\trs1\tG\tA\t.\n1\t200\trs1\tT\tC\t.\n"
	if err := os.WriteFile(path, []byte(pvar), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), path, nil, rand.New(rand.NewSource(1)), &out); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 rows, got %q", out.String())
	}
	if lines[0] != "1\trs1\t0\t100\tA\tG" {
		t.Fatalf("Unexpected first row %q", lines[0])
	}

	cols := strings.Split(lines[1], "\t")
	if len(cols) != 6 || !strings.HasPrefix(cols[1], "rs1_") || cols[3] != "200" || cols[4] != "C" || cols[5] != "T" {
		t.Fatalf("Unexpected second row %q", lines[1])
	}
}
