package snptools

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PVAR scans a PLINK 2 .pvar file into BIMRows. ALT is reported as Allele1 and
// REF as Allele2, which is how PLINK 2 exports them to .bim. A .pvar without a
// #CHROM header line is read as a .bim.
type PVAR struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	line    int
	err     error

	// column name => position; nil until the header line is seen
	header map[string]int
}

func NewPVAR(rc io.ReadCloser) *PVAR {
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	return &PVAR{
		rc:      rc,
		scanner: scanner,
	}
}

func (p *PVAR) Close() error {
	return p.rc.Close()
}

func (p *PVAR) Err() error {
	if p.err != nil {
		return p.err
	}

	return p.scanner.Err()
}

func (p *PVAR) Read() *BIMRow {
	for p.err == nil && p.scanner.Scan() {
		p.line++
		text := p.scanner.Text()

		if strings.HasPrefix(text, "##") {
			continue
		}

		cols := strings.Fields(text)
		if len(cols) == 0 {
			continue
		}

		if strings.HasPrefix(cols[0], "#") {
			if err := p.parseHeader(cols); err != nil {
				p.err = fmt.Errorf("pvar line %d: %w", p.line, err)
				return nil
			}
			continue
		}

		var row *BIMRow
		var err error
		if p.header == nil {
			row, err = ParseBIMFields(cols)
		} else {
			row, err = p.parseRow(cols)
		}
		if err != nil {
			p.err = fmt.Errorf("pvar line %d: %w", p.line, err)
			return nil
		}

		return row
	}

	return nil
}

func (p *PVAR) parseHeader(cols []string) error {
	cols[0] = strings.TrimPrefix(cols[0], "#")
	if cols[0] != "CHROM" {
		return fmt.Errorf("header must begin with #CHROM, found #%s", cols[0])
	}

	p.header = make(map[string]int, len(cols))
	for i, name := range cols {
		p.header[name] = i
	}

	for _, required := range []string{"POS", "ID", "REF", "ALT"} {
		if _, exists := p.header[required]; !exists {
			return fmt.Errorf("header lacks the %s column", required)
		}
	}

	return nil
}

func (p *PVAR) parseRow(cols []string) (*BIMRow, error) {
	if len(cols) < len(p.header) {
		return nil, fmt.Errorf("expected %d columns, found %d", len(p.header), len(cols))
	}

	row := &BIMRow{
		Chromosome: cols[p.header["CHROM"]],
		VariantID:  cols[p.header["ID"]],
		Allele1:    cols[p.header["ALT"]],
		Allele2:    cols[p.header["REF"]],
	}

	coord64, err := strconv.ParseUint(cols[p.header["POS"]], 10, 32)
	if err != nil {
		return nil, err
	}
	row.Coordinate = uint32(coord64)

	if cm, exists := p.header["CM"]; exists {
		if row.Morgans, err = strconv.ParseFloat(cols[cm], 64); err != nil {
			return nil, err
		}
	}

	return row, nil
}

// PSAM scans a PLINK 2 .psam file into FAMRows. When the header has no FID
// column, FID is reported as "0". A .psam without a header line is read as a
// .fam.
type PSAM struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	line    int
	started bool
	err     error

	header map[string]int
}

func NewPSAM(rc io.ReadCloser) *PSAM {
	return &PSAM{
		rc:      rc,
		scanner: bufio.NewScanner(rc),
	}
}

func (p *PSAM) Close() error {
	return p.rc.Close()
}

func (p *PSAM) Err() error {
	if p.err != nil {
		return p.err
	}

	return p.scanner.Err()
}

func (p *PSAM) Read() *FAMRow {
	for p.err == nil && p.scanner.Scan() {
		p.line++

		cols := strings.Fields(p.scanner.Text())
		if len(cols) == 0 {
			continue
		}

		// Only the first non-blank line may be a header
		first := !p.started
		p.started = true

		if first && isPSAMHeader(cols[0]) {
			p.header = make(map[string]int, len(cols))
			for i, name := range cols {
				p.header[strings.TrimPrefix(name, "#")] = i
			}
			if _, exists := p.header["IID"]; !exists {
				p.err = fmt.Errorf("psam line %d: header lacks the IID column", p.line)
				return nil
			}
			continue
		}

		if p.header == nil {
			if len(cols) < IndividualID+1 {
				p.err = fmt.Errorf("psam line %d: expected at least %d columns, found %d", p.line, IndividualID+1, len(cols))
				return nil
			}
			return famRowFromFields(cols)
		}

		if len(cols) < len(p.header) {
			p.err = fmt.Errorf("psam line %d: expected %d columns, found %d", p.line, len(p.header), len(cols))
			return nil
		}

		row := &FAMRow{
			FID: "0",
			IID: cols[p.header["IID"]],
		}
		for name, dst := range map[string]*string{
			"FID":    &row.FID,
			"PAT":    &row.FatherID,
			"MAT":    &row.MotherID,
			"SEX":    &row.Sex,
			"PHENO1": &row.Phenotype,
		} {
			if i, exists := p.header[name]; exists {
				*dst = cols[i]
			}
		}

		return row
	}

	return nil
}

func isPSAMHeader(first string) bool {
	switch first {
	case "#FID", "#IID", "FID", "IID":
		return true
	}

	return false
}
