package rollout

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func ensureBuffer(tb testing.TB, got, want []byte) {
	tb.Helper()
	if !bytes.Equal(got, want) {
		tb.Errorf("GOT: %q; WANT: %q", got, want)
	}
}

func ensureError(tb testing.TB, err error, contains ...string) {
	tb.Helper()
	if len(contains) == 0 || (len(contains) == 1 && contains[0] == "") {
		if err != nil {
			tb.Fatalf("GOT: %v; WANT: %v", err, contains)
		}
	} else if err == nil {
		tb.Errorf("GOT: %v; WANT: %v", err, contains)
	} else {
		for _, stub := range contains {
			if stub != "" && !strings.Contains(err.Error(), stub) {
				tb.Errorf("GOT: %v; WANT: %q", err, stub)
			}
		}
	}
}

func ensureIndices(tb testing.TB, got, want []uint64) {
	tb.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		tb.Errorf("GOT: %v; WANT: %v", got, want)
	}
}

// ensureFile checks the contents of the named file in dir.
func ensureFile(tb testing.TB, dir, name, want string) {
	tb.Helper()
	got, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		tb.Errorf("GOT: %v; WANT: %q", err, want)
		return
	}
	ensureBuffer(tb, got, []byte(want))
}

// ensureNoFile checks the named file does not exist in dir.
func ensureNoFile(tb testing.TB, dir, name string) {
	tb.Helper()
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		tb.Errorf("GOT: %v; WANT: %s to not exist", err, name)
	}
}

// ensureDir checks dir holds exactly the named entries.
func ensureDir(tb testing.TB, dir string, want ...string) {
	tb.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		tb.Fatal(err)
	}
	var got []string
	for _, entry := range entries {
		got = append(got, entry.Name())
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		tb.Errorf("GOT: %v; WANT: %v", got, want)
	}
}

// touch creates each named file in dir with the given contents.
func touch(tb testing.TB, dir, contents string, names ...string) {
	tb.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644); err != nil {
			tb.Fatal(err)
		}
	}
}
