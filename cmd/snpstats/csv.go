package main

import (
	"encoding/csv"
	"io"
)

func csvWriter(w io.Writer) *csv.Writer {
	out := csv.NewWriter(w)
	out.Comma = '\t'
	return out
}
