package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// LoadCSV reads a delimited file with a header row. A zero delimiter is
// sniffed from the header line; paths ending in .gz are decompressed.
func LoadCSV(path string, delimiter rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var r io.Reader = f
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gunzip %s: %w", filepath.Base(path), err)
		}
		defer gz.Close()
		r = gz
		name = strings.TrimSuffix(name, ".gz")
	}

	if delimiter == 0 && strings.HasSuffix(name, ".tsv") {
		delimiter = '\t'
	}
	return ReadCSV(r, delimiter)
}

// ReadCSV parses delimited text with a header row.
func ReadCSV(r io.Reader, delimiter rune) (*Table, error) {
	br := bufio.NewReader(r)
	if delimiter == 0 {
		head, _ := br.Peek(64 * 1024)
		delimiter = sniffDelimiter(head)
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty dataset: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, cell := range header {
		header[i] = cleanCell(cell)
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
	}
	return NewTable(header, rows), nil
}

// sniffDelimiter picks the candidate occurring most often on the first line.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{',', '\t', ';', '|'} {
		if n := bytes.Count(head, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\ufeff")
	return strings.TrimSpace(v)
}
