package snptools

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// BIM scans the rows of a PLINK .bim file. Rows are whitespace delimited.
type BIM struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	line    int
	err     error
}

// NewBIM reads BIM rows from rc. Closing the BIM closes rc.
func NewBIM(rc io.ReadCloser) *BIM {
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	return &BIM{
		rc:      rc,
		scanner: scanner,
	}
}

func (b *BIM) Close() error {
	return b.rc.Close()
}

func (b *BIM) Err() error {
	if b.err != nil {
		return b.err
	}

	return b.scanner.Err()
}

// Read returns the next row, or nil at the end of the file or on error. Blank
// lines are skipped.
func (b *BIM) Read() *BIMRow {
	for b.err == nil && b.scanner.Scan() {
		b.line++

		cols := strings.Fields(b.scanner.Text())
		if len(cols) == 0 {
			continue
		}

		row, err := ParseBIMFields(cols)
		if err != nil {
			b.err = fmt.Errorf("bim line %d: %w", b.line, err)
			return nil
		}

		return row
	}

	return nil
}

// ParseBIMFields converts the six columns of a BIM row.
func ParseBIMFields(cols []string) (*BIMRow, error) {
	if len(cols) < Allele2+1 {
		return nil, fmt.Errorf("expected %d columns, found %d", Allele2+1, len(cols))
	}

	row := &BIMRow{
		Chromosome: cols[Chromosome],
		VariantID:  cols[VariantID],
		Allele1:    cols[Allele1],
		Allele2:    cols[Allele2],
	}

	morgans, err := strconv.ParseFloat(cols[Morgans], 64)
	if err != nil {
		return nil, err
	}
	row.Morgans = morgans

	coord64, err := strconv.ParseUint(cols[Coordinate], 10, 32)
	if err != nil {
		return nil, err
	}
	row.Coordinate = uint32(coord64)

	return row, nil
}
