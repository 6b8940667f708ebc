package snptools

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Map columns in the FAM file to their positions
const (
	FamilyID int = iota
	IndividualID
	FatherID
	MotherID
	Sex
	Phenotype
)

type FAMRow struct {
	FID       string
	IID       string
	FatherID  string
	MotherID  string
	Sex       string
	Phenotype string
}

// FAM scans the rows of a PLINK .fam file. Only the first two columns are
// required; the remainder are kept when present.
type FAM struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	line    int
	err     error
}

func NewFAM(rc io.ReadCloser) *FAM {
	return &FAM{
		rc:      rc,
		scanner: bufio.NewScanner(rc),
	}
}

func (f *FAM) Close() error {
	return f.rc.Close()
}

func (f *FAM) Err() error {
	if f.err != nil {
		return f.err
	}

	return f.scanner.Err()
}

func (f *FAM) Read() *FAMRow {
	for f.err == nil && f.scanner.Scan() {
		f.line++

		cols := strings.Fields(f.scanner.Text())
		if len(cols) == 0 {
			continue
		}

		if len(cols) < IndividualID+1 {
			f.err = fmt.Errorf("fam line %d: expected at least %d columns, found %d", f.line, IndividualID+1, len(cols))
			return nil
		}

		return famRowFromFields(cols)
	}

	return nil
}

func famRowFromFields(cols []string) *FAMRow {
	row := &FAMRow{
		FID: cols[FamilyID],
		IID: cols[IndividualID],
	}

	optional := []*string{&row.FatherID, &row.MotherID, &row.Sex, &row.Phenotype}
	for i, dst := range optional {
		if len(cols) > FatherID+i {
			*dst = cols[FatherID+i]
		}
	}

	return row
}
