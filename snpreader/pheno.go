package snpreader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/carbocation/snptools"
	"gonum.org/v1/gonum/mat"
)

// Pheno reads a phenotype or covariate table: FID, IID, then one or more value
// columns. The delimiter is detected, the file may be compressed, and a header
// row naming the value columns is optional. -9, NA and nan are missing.
type Pheno struct {
	Filename string
	opts     Options

	once sync.Once
	data *Data
	err  error
}

func NewPheno(filename string, opts Options) *Pheno {
	return &Pheno{Filename: filename, opts: opts}
}

func (p *Pheno) String() string {
	return fmt.Sprintf("Pheno(%q)", p.Filename)
}

func (p *Pheno) load() (*Data, error) {
	p.once.Do(func() {
		rc, err := snptools.OpenText(context.Background(), p.Filename, p.opts.StorageClient)
		if err != nil {
			p.err = pfx.Err(err)
			return
		}
		defer rc.Close()

		raw, err := io.ReadAll(rc)
		if err != nil {
			p.err = pfx.Err(err)
			return
		}

		p.data, p.err = ParsePheno(raw)
		if p.err != nil {
			p.err = fmt.Errorf("%s: %w", p.Filename, p.err)
			return
		}
		p.data.Name = p.String()
	})

	return p.data, p.err
}

func (p *Pheno) IIDs() ([]IID, error) {
	d, err := p.load()
	if err != nil {
		return nil, err
	}
	return d.IIDs()
}

func (p *Pheno) Variants() ([]Variant, error) {
	d, err := p.load()
	if err != nil {
		return nil, err
	}
	return d.Variants()
}

func (p *Pheno) Read(ctx context.Context, iidIndex, sidIndex []int) (*Data, error) {
	d, err := p.load()
	if err != nil {
		return nil, err
	}
	return d.Read(ctx, iidIndex, sidIndex)
}

// ParsePheno parses a phenotype table held in memory.
func ParsePheno(raw []byte) (*Data, error) {
	// Decimal points and signs can look like delimiters to the detector
	delim := snptools.DetermineDelimiterAmong(bytes.NewReader(raw), ",;|\t ")
	split := func(line string) []string {
		if delim == ' ' || delim == '\t' {
			return strings.Fields(line)
		}
		cols := strings.Split(line, string(delim))
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		return cols
	}

	rows := make([][]string, 0)
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, split(line))
	}
	if len(rows) == 0 {
		return NewData([]IID{}, []Variant{}, nil)
	}

	width := len(rows[0])
	if width < 3 {
		return nil, fmt.Errorf("expected FID, IID and at least one value column, found %d columns", width)
	}

	var names []string
	if !allValues(rows[0][2:]) {
		names = rows[0][2:]
		rows = rows[1:]
	} else {
		names = make([]string, width-2)
		for j := range names {
			names[j] = fmt.Sprintf("pheno%d", j)
		}
	}

	variants := make([]Variant, len(names))
	for j, name := range names {
		variants[j] = Variant{ID: name}
	}

	iids := make([]IID, len(rows))
	values := make([]float64, 0, len(rows)*len(names))
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i+1, len(row), width)
		}
		iids[i] = IID{FID: row[0], IID: row[1]}
		for _, cell := range row[2:] {
			v, err := parsePhenoValue(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			values = append(values, v)
		}
	}

	if len(iids) == 0 {
		return NewData(iids, variants, nil)
	}

	return NewData(iids, variants, mat.NewDense(len(iids), len(variants), values))
}

func allValues(cells []string) bool {
	for _, cell := range cells {
		if _, err := parsePhenoValue(cell); err != nil {
			return false
		}
	}
	return true
}

func parsePhenoValue(cell string) (float64, error) {
	switch strings.ToLower(cell) {
	case "", "-9", "na", "nan":
		return math.NaN(), nil
	}

	return strconv.ParseFloat(cell, 64)
}

// Close is a nop: the table is read in full on first use.
func (p *Pheno) Close() error {
	return nil
}
