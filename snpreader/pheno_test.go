package snpreader

import (
	"compress/gzip"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestParsePheno(t *testing.T) {
	for _, v := range []struct {
		Name  string
		Input string
		Names []string
	}{
		{"tab with header", "FID\tIID\tbmi\tldl\nF1\tI1\t22.5\t3.1\nF2\tI2\tNA\t-9\n", []string{"bmi", "ldl"}},
		{"space without header", "F1 I1 22.5 3.1\nF2 I2 nan -9\n", []string{"pheno0", "pheno1"}},
	} {
		d, err := ParsePheno([]byte(v.Input))
		if err != nil {
			t.Fatalf("%s: %v", v.Name, err)
		}

		sids, _ := SIDs(d)
		if len(sids) != len(v.Names) || sids[0] != v.Names[0] || sids[1] != v.Names[1] {
			t.Fatalf("%s: unexpected columns %v", v.Name, sids)
		}

		iids, _ := d.IIDs()
		if len(iids) != 2 || iids[1] != (IID{"F2", "I2"}) {
			t.Fatalf("%s: unexpected IIDs %v", v.Name, iids)
		}

		checkValues(t, d, [][]float64{{22.5, 3.1}, {math.NaN(), math.NaN()}})
	}
}

func TestParsePhenoErrors(t *testing.T) {
	for _, input := range []string{
		"F1 I1\n",
		"F1 I1 1\nF2 I2 1 2\n",
		"F1 I1 1\nF2 I2 abc\n",
	} {
		if _, err := ParsePheno([]byte(input)); err == nil {
			t.Errorf("Expected an error for %q", input)
		}
	}
}

func TestPhenoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pheno.txt.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := gzip.NewWriter(f)
	w.Write([]byte("FID\tIID\theight\nF1\tI1\t170\nF2\tI2\t180\nF3\tI3\t165\n"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r := Open(path, Options{})
	defer r.Close()

	if _, ok := r.(*Pheno); !ok {
		t.Fatalf("Expected a *Pheno, got %T", r)
	}

	d, err := r.Read(context.Background(), []int{2, 0}, nil)
	if err != nil {
		t.Fatal(err)
	}
	checkValues(t, d, [][]float64{{165}, {170}})
}

func TestOpenByExtension(t *testing.T) {
	for _, v := range []struct {
		Path     string
		Expected string
	}{
		{"x.bed", "*snpreader.Bed"},
		{"x.pgen", "*snpreader.PGen"},
		{"x.bgen", "*snpreader.Bgen"},
		{"x.vcf.gz", "*snpreader.Vcf"},
		{"x.tsv", "*snpreader.Pheno"},
	} {
		r := Open(v.Path, Options{})
		var got string
		switch r.(type) {
		case *Bed:
			got = "*snpreader.Bed"
		case *PGen:
			got = "*snpreader.PGen"
		case *Bgen:
			got = "*snpreader.Bgen"
		case *Vcf:
			got = "*snpreader.Vcf"
		case *Pheno:
			got = "*snpreader.Pheno"
		}
		if got != v.Expected {
			t.Errorf("Open(%q) = %T, expected %s", v.Path, r, v.Expected)
		}
	}
}
