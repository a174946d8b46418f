package satfile

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/csete/gpredict/internal/tle"
)

const (
	issLine1  = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2  = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
	noaaLine1 = "1 33591U 09005A   24100.50000000  .00000100  00000-0  80000-4 0  9991"
	noaaLine2 = "2 33591  99.0500 120.0000 0014000  80.0000 280.0000 14.12000000    01"
	ao7Line1  = "1 07530U 74089B   24100.50000000 -.00000030  00000-0  10000-3 0  9990"
	ao7Line2  = "2 07530 101.9900  90.0000 0012000  10.0000 350.0000 12.53600000    07"
)

func issRecord() Record {
	return NewRecord(tle.TLEEntry{CatalogNumber: "25544", Name: "ISS (ZARYA)", Line1: issLine1, Line2: issLine2}, "ISS")
}

func TestRecordString(t *testing.T) {
	want := "VERSION=1.1\n" +
		"NAME=ISS (ZARYA)\n" +
		"NICKNAME=ISS\n" +
		"TLE1=" + issLine1 + "\n" +
		"TLE2=" + issLine2 + "\n"

	if got := issRecord().String(); got != want {
		t.Errorf("record mismatch:\n got %q\nwant %q", got, want)
	}
}

// TestReadRecordKeepsFields verifies that a written record reads back with
// the same name, nickname and element lines.
func TestReadRecordKeepsFields(t *testing.T) {
	r := issRecord()
	got, err := ReadRecord(strings.NewReader(r.String()))
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	got.CatalogNumber = r.CatalogNumber
	if got != r {
		t.Errorf("got %+v, want %+v", got, r)
	}

	if _, err := ReadRecord(strings.NewReader("NAME=X\n")); err == nil {
		t.Error("expected error for record without VERSION")
	}
	if _, err := ReadRecord(strings.NewReader("VERSION=1.1\ngarbage\n")); err == nil {
		t.Error("expected error for line without '='")
	}
}

func TestWriteSection(t *testing.T) {
	var sb strings.Builder
	if err := WriteSection(&sb, issRecord()); err != nil {
		t.Fatal(err)
	}
	want := "\n[25544]\n" + issRecord().String()
	if sb.String() != want {
		t.Errorf("section mismatch:\n got %q\nwant %q", sb.String(), want)
	}
}

func TestDirWriteOverwrites(t *testing.T) {
	d := NewDir(filepath.Join(t.TempDir(), "tmp"))

	ok, err := d.Exists("25544")
	if err != nil || ok {
		t.Fatalf("Exists before write = %v, %v", ok, err)
	}

	first := issRecord()
	first.Nickname = "OLD"
	if err := d.Write(first); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := d.Write(issRecord()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	ok, err = d.Exists("25544")
	if err != nil || !ok {
		t.Fatalf("Exists after write = %v, %v", ok, err)
	}

	data, err := os.ReadFile(d.Path("25544"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != issRecord().String() {
		t.Errorf("file not overwritten: %q", data)
	}

	got, err := d.Read("25544")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != issRecord() {
		t.Errorf("Read = %+v", got)
	}

	if err := d.Write(Record{Name: "NO NUMBER"}); err == nil {
		t.Error("expected error writing record without catalog number")
	}
}

func TestDirListNumericOrder(t *testing.T) {
	dir := t.TempDir()
	d := NewDir(dir)
	for _, num := range []string{"33591", "7530", "25544", "4321"} {
		r := issRecord()
		r.CatalogNumber = num
		if err := d.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"README", "notes.sat.bak", "abc.sat"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	nums, err := d.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"4321", "7530", "25544", "33591"}
	if !reflect.DeepEqual(nums, want) {
		t.Errorf("List() = %v, want %v", nums, want)
	}
}

// TestAggregateSections verifies every record appears under its own header
// with exactly its five lines, in ascending catalog number order.
func TestAggregateSections(t *testing.T) {
	root := t.TempDir()
	d := NewDir(filepath.Join(root, "tmp"))

	records := []Record{
		NewRecord(tle.TLEEntry{CatalogNumber: "33591", Name: "NOAA 19", Line1: noaaLine1, Line2: noaaLine2}, "NOAA 19"),
		issRecord(),
		NewRecord(tle.TLEEntry{CatalogNumber: "7530", Name: "OSCAR 7 (AO-7)", Line1: ao7Line1, Line2: ao7Line2}, "AO-7"),
	}
	for _, r := range records {
		if err := d.Write(r); err != nil {
			t.Fatal(err)
		}
	}

	dst := filepath.Join(root, "out", "satellites.dat")
	n, err := Aggregate(d, dst)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if n != 3 {
		t.Errorf("sections = %d, want 3", n)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	want := "\n[7530]\n" + records[2].String() +
		"\n[25544]\n" + records[1].String() +
		"\n[33591]\n" + records[0].String()
	if string(data) != want {
		t.Errorf("aggregate mismatch:\n got %q\nwant %q", data, want)
	}

	// Rerunning replaces rather than appends.
	if _, err := Aggregate(d, dst); err != nil {
		t.Fatal(err)
	}
	again, _ := os.ReadFile(dst)
	if string(again) != want {
		t.Error("second Aggregate changed the output")
	}

	leftovers, _ := filepath.Glob(filepath.Join(root, "out", ".satellites.dat.*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestAggregateEmptyDir(t *testing.T) {
	root := t.TempDir()
	dst := filepath.Join(root, "satellites.dat")
	n, err := Aggregate(NewDir(filepath.Join(root, "missing")), dst)
	if err != nil || n != 0 {
		t.Fatalf("Aggregate = %d, %v", n, err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || len(data) != 0 {
		t.Errorf("expected empty aggregate, got %q, %v", data, err)
	}
}

func TestAppender(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "satellites.dat")
	if err := os.WriteFile(dst, []byte("\n[1]\nVERSION=1.1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	a, err := OpenAppender(dst)
	if err != nil {
		t.Fatalf("OpenAppender: %v", err)
	}
	if err := a.Append(issRecord()); err != nil {
		t.Fatal(err)
	}
	if a.Count() != 1 {
		t.Errorf("Count = %d, want 1", a.Count())
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(dst)
	want := "\n[1]\nVERSION=1.1\n" + "\n[25544]\n" + issRecord().String()
	if string(data) != want {
		t.Errorf("appended aggregate mismatch:\n got %q\nwant %q", data, want)
	}
}
