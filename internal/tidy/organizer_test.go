package tidy_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"tidy-go/internal/fs"
	"tidy-go/internal/testutil"
	"tidy-go/internal/tidy"
)

func newTestOrganizer(t *testing.T, fsmgr tidy.FilesystemManager) (*tidy.Organizer, *testutil.StubClock, string) {
	t.Helper()
	dir := t.TempDir()
	clock := testutil.FixedClock()
	if fsmgr == nil {
		fsmgr = fs.NewOSFilesystemManager(nil)
	}
	return tidy.NewOrganizer(dir, fsmgr, tidy.NewNopLogger(), clock), clock, dir
}

func mustRule(t *testing.T, op tidy.Operation, ext string, mod tidy.Modifier, opts ...tidy.RuleOption) tidy.Rule {
	t.Helper()
	rule, err := tidy.NewRule(op, ext, mod, opts...)
	if err != nil {
		t.Fatalf("NewRule() error = %v", err)
	}
	return rule
}

func assertNames(t *testing.T, dir string, want ...string) {
	t.Helper()
	got := testutil.ListNames(t, dir)
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("files in %s = %v, want %v", filepath.Base(dir), got, want)
	}
}

func TestOrganizer_BuildIndex(t *testing.T) {
	t.Run("groups files by modification date", func(t *testing.T) {
		org, clock, dir := newTestOrganizer(t, nil)
		testutil.WriteFile(t, dir, "a.txt", "a", clock.DaysAgo(0))
		testutil.WriteFile(t, dir, "b.txt", "b", clock.DaysAgo(0))
		testutil.WriteFile(t, dir, "old.png", "o", clock.DaysAgo(15))
		if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
			t.Fatal(err)
		}

		idx, err := org.BuildIndex()
		if err != nil {
			t.Fatalf("BuildIndex() error = %v", err)
		}
		if idx.Len() != 3 {
			t.Errorf("Len() = %d, want 3 (subdirectories are skipped)", idx.Len())
		}
		today := tidy.DateOf(clock.Now())
		if got := idx[today]; !reflect.DeepEqual(got, []string{"a.txt", "b.txt"}) {
			t.Errorf("today bucket = %v, want [a.txt b.txt]", got)
		}
		if got := idx[today.AddDays(-15)]; !reflect.DeepEqual(got, []string{"old.png"}) {
			t.Errorf("old bucket = %v, want [old.png]", got)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		org, clock, dir := newTestOrganizer(t, nil)
		for i, name := range []string{"x.txt", "y.jpg", "z.png"} {
			testutil.WriteFile(t, dir, name, name, clock.DaysAgo(i*3))
		}

		first, err := org.BuildIndex()
		if err != nil {
			t.Fatalf("BuildIndex() error = %v", err)
		}
		second, err := org.BuildIndex()
		if err != nil {
			t.Fatalf("BuildIndex() error = %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("BuildIndex() not idempotent: %v vs %v", first, second)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		org, _, _ := newTestOrganizer(t, nil)
		idx, err := org.BuildIndex()
		if err != nil {
			t.Fatalf("BuildIndex() error = %v", err)
		}
		if idx.Len() != 0 {
			t.Errorf("Len() = %d, want 0", idx.Len())
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope")
		org := tidy.NewOrganizer(missing, fs.NewOSFilesystemManager(nil), tidy.NewNopLogger(), testutil.FixedClock())

		_, err := org.BuildIndex()
		if !errors.Is(err, tidy.ErrDirectoryUnreadable) {
			t.Errorf("BuildIndex() error = %v, want ErrDirectoryUnreadable", err)
		}

		rule := mustRule(t, tidy.OpDelete, "all", tidy.All())
		if _, err := org.Apply(rule); !errors.Is(err, tidy.ErrDirectoryUnreadable) {
			t.Errorf("Apply() error = %v, want ErrDirectoryUnreadable", err)
		}
	})
}

func TestOrganizer_Select(t *testing.T) {
	org, clock, dir := newTestOrganizer(t, nil)
	testutil.WriteFile(t, dir, "seven.txt", "7", clock.DaysAgo(7))
	testutil.WriteFile(t, dir, "six.txt", "6", clock.DaysAgo(6))
	testutil.WriteFile(t, dir, "today.txt", "0", clock.DaysAgo(0))
	testutil.WriteFile(t, dir, "ancient.txt", "400", clock.DaysAgo(400))

	today := tidy.DateOf(clock.Now())
	names := func(idx tidy.DateIndex) []string {
		var out []string
		for _, d := range idx.Dates() {
			out = append(out, idx[d]...)
		}
		return out
	}

	tests := []struct {
		name string
		mod  tidy.Modifier
		want []string
	}{
		{"all covers every bucket", tidy.All(), []string{"ancient.txt", "seven.txt", "six.txt", "today.txt"}},
		{"newer than 7 days", tidy.NewerThan(7), []string{"six.txt", "today.txt"}},
		{"older than 6 days", tidy.OlderThan(6), []string{"ancient.txt", "seven.txt"}},
		{"range endpoints are inclusive", tidy.Range(today.AddDays(-7), today.AddDays(-6)), []string{"seven.txt", "six.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := org.Select(tt.mod)
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if got := names(idx); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Select() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("follows the clock", func(t *testing.T) {
		clock.Advance(24 * time.Hour)
		defer clock.Advance(-24 * time.Hour)

		idx, err := org.Select(tidy.NewerThan(7))
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if got := names(idx); !reflect.DeepEqual(got, []string{"today.txt"}) {
			t.Errorf("Select() = %v, want [today.txt]", got)
		}
	})

	t.Run("rejects an invalid modifier", func(t *testing.T) {
		if _, err := org.Select(tidy.NewerThan(-1)); !errors.Is(err, tidy.ErrInvalidModifier) {
			t.Errorf("Select() error = %v, want ErrInvalidModifier", err)
		}
	})
}

func TestOrganizer_Copy(t *testing.T) {
	t.Run("creates byte identical copies", func(t *testing.T) {
		org, clock, dir := newTestOrganizer(t, nil)
		testutil.WriteFile(t, dir, "report.png", "png-bytes", clock.DaysAgo(0))
		testutil.WriteFile(t, dir, "notes.txt", "text", clock.DaysAgo(0))

		report, err := org.Apply(mustRule(t, tidy.OpCopy, ".png", tidy.All()))
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if report.Selected != 1 || report.Succeeded != 1 || report.Failed() != 0 {
			t.Errorf("report = %d/%d/%d, want 1/1/0", report.Selected, report.Succeeded, report.Failed())
		}
		assertNames(t, dir, "notes.txt", "report-copy.png", "report.png")
		if got := testutil.ReadFile(t, dir, "report-copy.png"); got != "png-bytes" {
			t.Errorf("copy content = %q, want %q", got, "png-bytes")
		}
	})

	t.Run("second run overwrites instead of chaining", func(t *testing.T) {
		org, clock, dir := newTestOrganizer(t, nil)
		testutil.WriteFile(t, dir, "report.png", "v1", clock.DaysAgo(0))
		rule := mustRule(t, tidy.OpCopy, ".png", tidy.All())

		if _, err := org.Apply(rule); err != nil {
			t.Fatalf("first Apply() error = %v", err)
		}
		testutil.WriteFile(t, dir, "report.png", "v2", clock.DaysAgo(0))
		report, err := org.Apply(rule)
		if err != nil {
			t.Fatalf("second Apply() error = %v", err)
		}

		if report.Selected != 1 {
			t.Errorf("Selected = %d, want 1 (existing copies are skipped)", report.Selected)
		}
		assertNames(t, dir, "report-copy.png", "report.png")
		if got := testutil.ReadFile(t, dir, "report-copy.png"); got != "v2" {
			t.Errorf("copy content = %q, want v2", got)
		}
	})

	t.Run("skips sources already named as copies", func(t *testing.T) {
		org, clock, dir := newTestOrganizer(t, nil)
		testutil.WriteFile(t, dir, "draft-copy.txt", "d", clock.DaysAgo(0))

		report, err := org.Apply(mustRule(t, tidy.OpCopy, "all", tidy.All()))
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if report.Selected != 0 {
			t.Errorf("Selected = %d, want 0", report.Selected)
		}
		assertNames(t, dir, "draft-copy.txt")
	})

	t.Run("keeps files without extension intact", func(t *testing.T) {
		org, clock, dir := newTestOrganizer(t, nil)
		testutil.WriteFile(t, dir, "Makefile", "all:", clock.DaysAgo(0))

		if _, err := org.Apply(mustRule(t, tidy.OpCopy, "all", tidy.All())); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		assertNames(t, dir, "Makefile", "Makefile-copy")
	})
}

func TestOrganizer_Move(t *testing.T) {
	t.Run("creates nested destination", func(t *testing.T) {
		org, clock, dir := newTestOrganizer(t, nil)
		testutil.WriteFile(t, dir, "old.png", "o", clock.DaysAgo(10))
		testutil.WriteFile(t, dir, "new.png", "n", clock.DaysAgo(0))
		testutil.WriteFile(t, dir, "old.txt", "t", clock.DaysAgo(10))
		dest := filepath.Join(t.TempDir(), "archive", "2015", "png")

		report, err := org.Apply(mustRule(t, tidy.OpMove, ".png", tidy.OlderThan(7), tidy.WithDestination(dest)))
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if report.Succeeded != 1 {
			t.Errorf("Succeeded = %d, want 1", report.Succeeded)
		}
		assertNames(t, dir, "new.png", "old.txt")
		assertNames(t, dest, "old.png")
	})

	t.Run("leaves files not matching the pattern", func(t *testing.T) {
		org, clock, dir := newTestOrganizer(t, nil)
		testutil.WriteFile(t, dir, "shot-1.png", "1", clock.DaysAgo(0))
		testutil.WriteFile(t, dir, "photo.png", "p", clock.DaysAgo(0))

		_, err := org.Apply(mustRule(t, tidy.OpMove, "all", tidy.All(),
			tidy.WithPattern("shot"), tidy.WithDestination("screenshots")))
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		assertNames(t, dir, "photo.png")
		assertNames(t, filepath.Join(dir, "screenshots"), "shot-1.png")
	})

	t.Run("destination that cannot be created is fatal", func(t *testing.T) {
		org, clock, dir := newTestOrganizer(t, nil)
		testutil.WriteFile(t, dir, "a.png", "a", clock.DaysAgo(0))
		blocker := testutil.WriteFile(t, t.TempDir(), "file", "x", clock.DaysAgo(0))

		_, err := org.Apply(mustRule(t, tidy.OpMove, ".png", tidy.All(),
			tidy.WithDestination(filepath.Join(blocker, "sub"))))
		if err == nil {
			t.Fatal("Apply() expected error")
		}
		assertNames(t, dir, "a.png")
	})
}

func TestOrganizer_Delete(t *testing.T) {
	t.Run("only files matching extension and pattern", func(t *testing.T) {
		org, clock, dir := newTestOrganizer(t, nil)
		testutil.WriteFile(t, dir, "song-copy.mp3", "1", clock.DaysAgo(0))
		testutil.WriteFile(t, dir, "song.mp3", "2", clock.DaysAgo(0))
		testutil.WriteFile(t, dir, "notes-copy.txt", "3", clock.DaysAgo(0))

		report, err := org.Apply(mustRule(t, tidy.OpDelete, ".mp3", tidy.All(), tidy.WithPattern("-copy")))
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if report.Selected != 1 {
			t.Errorf("Selected = %d, want 1", report.Selected)
		}
		assertNames(t, dir, "notes-copy.txt", "song.mp3")
	})

	t.Run("respects the date filter", func(t *testing.T) {
		org, clock, dir := newTestOrganizer(t, nil)
		testutil.WriteFile(t, dir, "ep1.mp3", "1", clock.DaysAgo(30))
		testutil.WriteFile(t, dir, "ep2.mp3", "2", clock.DaysAgo(2))

		if _, err := org.Apply(mustRule(t, tidy.OpDelete, ".mp3", tidy.OlderThan(7))); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		assertNames(t, dir, "ep2.mp3")
	})
}

func TestOrganizer_Rename(t *testing.T) {
	nov16 := time.Date(2015, 11, 16, 12, 0, 0, 0, time.Local)

	t.Run("numbers files within a date bucket", func(t *testing.T) {
		org, _, dir := newTestOrganizer(t, nil)
		for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
			testutil.WriteFile(t, dir, name, name, nov16)
		}

		report, err := org.Apply(mustRule(t, tidy.OpRename, ".txt", tidy.All()))
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if report.Succeeded != 3 {
			t.Errorf("Succeeded = %d, want 3", report.Succeeded)
		}
		assertNames(t, dir, "2015-Nov-16-000.txt", "2015-Nov-16-001.txt", "2015-Nov-16-002.txt")
		for i, name := range []string{"a.txt", "b.txt", "c.txt"} {
			renamed := []string{"2015-Nov-16-000.txt", "2015-Nov-16-001.txt", "2015-Nov-16-002.txt"}[i]
			if got := testutil.ReadFile(t, dir, renamed); got != name {
				t.Errorf("%s content = %q, want %q", renamed, got, name)
			}
		}
	})

	t.Run("counter restarts per date", func(t *testing.T) {
		org, _, dir := newTestOrganizer(t, nil)
		testutil.WriteFile(t, dir, "a.jpg", "a", nov16)
		testutil.WriteFile(t, dir, "b.jpg", "b", nov16.AddDate(0, 0, -1))

		if _, err := org.Apply(mustRule(t, tidy.OpRename, ".jpg", tidy.All())); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		assertNames(t, dir, "2015-Nov-15-000.jpg", "2015-Nov-16-000.jpg")
	})

	t.Run("running twice changes nothing", func(t *testing.T) {
		org, _, dir := newTestOrganizer(t, nil)
		for _, name := range []string{"a.txt", "b.txt"} {
			testutil.WriteFile(t, dir, name, name, nov16)
		}
		rule := mustRule(t, tidy.OpRename, ".txt", tidy.All())

		if _, err := org.Apply(rule); err != nil {
			t.Fatalf("first Apply() error = %v", err)
		}
		report, err := org.Apply(rule)
		if err != nil {
			t.Fatalf("second Apply() error = %v", err)
		}
		if report.Succeeded != 2 || report.Failed() != 0 {
			t.Errorf("report = %d/%d, want 2/0", report.Succeeded, report.Failed())
		}
		assertNames(t, dir, "2015-Nov-16-000.txt", "2015-Nov-16-001.txt")
	})

	t.Run("pattern skips do not advance the counter", func(t *testing.T) {
		org, _, dir := newTestOrganizer(t, nil)
		for _, name := range []string{"a1.txt", "b.txt", "a2.txt"} {
			testutil.WriteFile(t, dir, name, name, nov16)
		}

		report, err := org.Apply(mustRule(t, tidy.OpRename, ".txt", tidy.All(), tidy.WithPattern("a")))
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if report.Selected != 2 || report.Succeeded != 2 {
			t.Errorf("report = %d/%d, want 2/2", report.Selected, report.Succeeded)
		}
		assertNames(t, dir, "2015-Nov-16-000.txt", "2015-Nov-16-001.txt", "b.txt")
		if got := testutil.ReadFile(t, dir, "2015-Nov-16-001.txt"); got != "a2.txt" {
			t.Errorf("2015-Nov-16-001.txt content = %q, want a2.txt", got)
		}
	})

	t.Run("never overwrites an existing target", func(t *testing.T) {
		org, _, dir := newTestOrganizer(t, nil)
		testutil.WriteFile(t, dir, "2015-Nov-16-000.txt", "keep", nov16)
		testutil.WriteFile(t, dir, "a.txt", "a", nov16)

		report, err := org.Apply(mustRule(t, tidy.OpRename, ".txt", tidy.All(), tidy.WithPattern("a")))
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if report.Succeeded != 1 || report.Failed() != 0 {
			t.Fatalf("report = %d/%d, want 1/0 (failures %v)", report.Succeeded, report.Failed(), report.Failures)
		}
		if got := testutil.ReadFile(t, dir, "2015-Nov-16-000.txt"); got != "keep" {
			t.Errorf("existing file content = %q, want keep", got)
		}
		assertNames(t, dir, "2015-Nov-16-000.txt", "2015-Nov-16-001.txt")
	})

	t.Run("stale occupant from another date does not block the bucket", func(t *testing.T) {
		org, _, dir := newTestOrganizer(t, nil)
		testutil.WriteFile(t, dir, "2015-Nov-16-000.txt", "stale", nov16.AddDate(0, 0, 1))
		for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
			testutil.WriteFile(t, dir, name, name, nov16)
		}

		report, err := org.Apply(mustRule(t, tidy.OpRename, ".txt", tidy.All()))
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if report.Selected != 4 || report.Succeeded != 4 || report.Failed() != 0 {
			t.Errorf("report = %d/%d/%d, want 4/4/0", report.Selected, report.Succeeded, report.Failed())
		}
		assertNames(t, dir,
			"2015-Nov-16-001.txt", "2015-Nov-16-002.txt", "2015-Nov-16-003.txt", "2015-Nov-17-000.txt")
		if got := testutil.ReadFile(t, dir, "2015-Nov-17-000.txt"); got != "stale" {
			t.Errorf("2015-Nov-17-000.txt content = %q, want stale", got)
		}
	})
}

func TestOrganizer_ContinuesPastFailingFile(t *testing.T) {
	nov16 := time.Date(2015, 11, 16, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name     string
		op       tidy.Operation
		opts     []tidy.RuleOption
		wantDir  []string
		wantDest []string
	}{
		{
			name:    "copy",
			op:      tidy.OpCopy,
			wantDir: []string{"a-copy.log", "a.log", "b.log", "c-copy.log", "c.log"},
		},
		{
			name:     "move",
			op:       tidy.OpMove,
			opts:     []tidy.RuleOption{tidy.WithDestination("done")},
			wantDir:  []string{"b.log"},
			wantDest: []string{"a.log", "c.log"},
		},
		{
			name:    "delete",
			op:      tidy.OpDelete,
			wantDir: []string{"b.log"},
		},
		{
			name:    "rename",
			op:      tidy.OpRename,
			wantDir: []string{"2015-Nov-16-000.log", "2015-Nov-16-001.log", "b.log"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faulty := testutil.NewFaultyFilesystemManager()
			faulty.FailOn("b.log", os.ErrPermission)
			org, _, dir := newTestOrganizer(t, faulty)
			for _, name := range []string{"a.log", "b.log", "c.log"} {
				testutil.WriteFile(t, dir, name, name, nov16)
			}

			report, err := org.Apply(mustRule(t, tt.op, ".log", tidy.All(), tt.opts...))
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if report.Selected != 3 || report.Succeeded != 2 || report.Failed() != 1 {
				t.Errorf("report = %d/%d/%d, want 3/2/1", report.Selected, report.Succeeded, report.Failed())
			}
			fe := report.Failures[0]
			if fe.Name != "b.log" || fe.Op != tt.op {
				t.Errorf("failure = %+v, want %s of b.log", fe, tt.op)
			}
			if !errors.Is(fe, tidy.ErrFileOperationFailed) || !errors.Is(fe, os.ErrPermission) {
				t.Errorf("failure error = %v, want ErrFileOperationFailed and ErrPermission", fe)
			}
			assertNames(t, dir, tt.wantDir...)
			if tt.wantDest != nil {
				assertNames(t, filepath.Join(dir, "done"), tt.wantDest...)
			}
		})
	}
}

func TestOrganizer_Apply_ZeroRule(t *testing.T) {
	org, _, _ := newTestOrganizer(t, nil)
	if _, err := org.Apply(tidy.Rule{}); !errors.Is(err, tidy.ErrInvalidRule) {
		t.Errorf("Apply() error = %v, want ErrInvalidRule", err)
	}
}

func TestOrganizer_CopyThenDeleteCopies(t *testing.T) {
	org, clock, dir := newTestOrganizer(t, nil)
	testutil.WriteFile(t, dir, "report.png", "r", clock.DaysAgo(0))
	testutil.WriteFile(t, dir, "old.png", "o", clock.DaysAgo(400))

	if _, err := org.Apply(mustRule(t, tidy.OpCopy, ".png", tidy.All())); err != nil {
		t.Fatalf("copy Apply() error = %v", err)
	}
	assertNames(t, dir, "old-copy.png", "old.png", "report-copy.png", "report.png")

	report, err := org.Apply(mustRule(t, tidy.OpDelete, "all", tidy.All(), tidy.WithPattern("-copy")))
	if err != nil {
		t.Fatalf("delete Apply() error = %v", err)
	}
	if report.Succeeded != 2 {
		t.Errorf("Succeeded = %d, want 2", report.Succeeded)
	}
	assertNames(t, dir, "old.png", "report.png")
}
