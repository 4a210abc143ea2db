package main

import (
	"io"
	"strings"
	"text/tabwriter"
)

// table collects tab-separated rows and keeps the first write error.
type table struct {
	tw  *tabwriter.Writer
	err error
}

func newTable(w io.Writer) *table {
	return &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (t *table) row(cols ...string) {
	if t.err != nil {
		return
	}
	_, t.err = io.WriteString(t.tw, strings.Join(cols, "\t")+"\n")
}

func (t *table) flush() error {
	if t.err != nil {
		return t.err
	}
	return t.tw.Flush()
}
