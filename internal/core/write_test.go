package core

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestWriteCSV(t *testing.T) {
	table := &Table{
		Header: []string{"name", "note"},
		Rows: [][]string{
			{"José", "a, b"},
			{"Zoë", "he said \"hi\""},
			{"", "line1\nline2"},
		},
	}
	dest := filepath.Join(t.TempDir(), "out.csv")

	if err := WriteCSV(dest, table); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "name,note\n" +
		"José,\"a, b\"\n" +
		"Zoë,\"he said \"\"hi\"\"\"\n" +
		",\"line1\nline2\"\n"
	if string(got) != want {
		t.Errorf("output:\n%q\nwant:\n%q", got, want)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}
}

func TestWriteCSV_EmptySingleField(t *testing.T) {
	table := &Table{
		Header: []string{"name"},
		Rows:   [][]string{{"x"}, {""}, {"y"}, {""}},
	}
	dest := filepath.Join(t.TempDir(), "out.csv")

	if err := WriteCSV(dest, table); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if want := "name\nx\n\"\"\ny\n\"\"\n"; string(got) != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	f, err := os.Open(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	again, err := ParseTable(f)
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if !reflect.DeepEqual(again.Rows, table.Rows) {
		t.Errorf("re-read rows = %q, want %q", again.Rows, table.Rows)
	}
}

func TestWriteCSV_ReplacesExisting(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(dest, []byte("old contents that are longer\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := WriteCSV(dest, &Table{Header: []string{"a"}, Rows: [][]string{{"1"}}}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	got, _ := os.ReadFile(dest)
	if string(got) != "a\n1\n" {
		t.Errorf("output = %q", got)
	}
}

func TestWriteCSV_RenameFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.csv")

	boom := errors.New("rename refused")
	prev := renameFunc
	renameFunc = func(string, string) error { return boom }
	defer func() { renameFunc = prev }()

	err := WriteCSV(dest, &Table{Header: []string{"a"}, Rows: [][]string{{"1"}}})

	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("error = %v, want *WriteError", err)
	}
	if !errors.Is(err, boom) || we.Path != dest {
		t.Errorf("WriteError = %+v", we)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("directory not empty after failed write: %v", names)
	}
}

func TestWriteCSV_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		dest  string
		table *Table
	}{
		{"missing directory", filepath.Join(dir, "nope", "out.csv"), &Table{Header: []string{"a"}}},
		{"nil table", filepath.Join(dir, "a.csv"), nil},
		{"no header", filepath.Join(dir, "b.csv"), &Table{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WriteCSV(tt.dest, tt.table)
			var we *WriteError
			if !errors.As(err, &we) {
				t.Fatalf("error = %v, want *WriteError", err)
			}
			if _, statErr := os.Stat(tt.dest); !os.IsNotExist(statErr) {
				t.Errorf("destination exists after failed write")
			}
		})
	}
}
