package core

import (
	"bufio"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// renameFunc is swapped in tests to simulate a failed final rename.
var renameFunc = os.Rename

// WriteCSV writes t to dest as UTF-8, comma separated, header first, with
// "\n" line endings and no index column. The file is written to a temporary
// name in dest's directory and renamed into place, so dest is either the
// complete table or untouched. An existing dest is replaced.
//
// Every failure is returned as a *WriteError.
func WriteCSV(dest string, t *Table) error {
	if err := writeCSV(dest, t); err != nil {
		return &WriteError{Path: dest, Err: err}
	}
	return nil
}

func writeCSV(dest string, t *Table) error {
	if t == nil || len(t.Header) == 0 {
		return errors.New("table has no header")
	}

	dir, name := filepath.Split(filepath.Clean(dest))
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	bw := bufio.NewWriter(tmp)
	w := csv.NewWriter(bw)
	if err := writeRecord(w, bw, t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writeRecord(w, bw, row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := renameFunc(tmpName, dest); err != nil {
		return err
	}

	syncDir(dir)
	return nil
}

// emptyRecord is a record of one empty field. csv.Writer writes it as a blank
// line, which readers skip.
const emptyRecord = "\"\"\n"

func writeRecord(w *csv.Writer, bw *bufio.Writer, record []string) error {
	if len(record) != 1 || record[0] != "" {
		return w.Write(record)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	_, err := bw.WriteString(emptyRecord)
	return err
}

// syncDir is best effort; directory fsync semantics vary by platform.
func syncDir(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}
