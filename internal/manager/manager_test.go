package manager

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jbtracks/internal/handlers"
	"github.com/desertthunder/jbtracks/internal/shared"
	tu "github.com/desertthunder/jbtracks/internal/testing"
)

func quietLogger() *log.Logger {
	l := shared.NewLogger(&strings.Builder{})
	l.SetLevel(log.FatalLevel)
	return l
}

type fixture struct {
	site *tu.Site
	m    *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	site := tu.NewSite(t)
	return &fixture{site: site, m: New(site.Resolver(), nil, quietLogger())}
}

// addTrack writes a data file, its index and an artifact pointing at both.
func (f *fixture) addTrack(t *testing.T, typeID, id string, size int) (artifact, data, index string) {
	t.Helper()
	data = f.site.DataFile(t, filepath.Join("data/tracks/org1/asm1", typeID, id+".dat"), strings.Repeat("x", size))
	index = f.site.DataFile(t, filepath.Join("data/tracks/org1/asm1", typeID, id+".dat.idx"), "i")
	artifact = f.m.artifactPath("org1", "asm1", typeID, id)
	tu.MustWriteJSON(t, artifact, map[string]any{
		"trackId":  id,
		"name":     "Track " + id,
		"category": []string{"Expression", "RNA-seq"},
		"metadata": map[string]any{
			handlers.MetaFilePath:    data,
			handlers.MetaIndexPath:   index,
			handlers.MetaFileSize:    size,
			handlers.MetaAccessLevel: "PUBLIC",
		},
	})
	return artifact, data, index
}

func TestRemoveTrack(t *testing.T) {
	t.Run("removes the artifact only", func(t *testing.T) {
		f := newFixture(t)
		art, data, _ := f.addTrack(t, handlers.BigWigType, "cov1", 4)

		res := f.m.RemoveTrack("cov1", "org1", "asm1", Options{})
		if !res.Success || len(res.ItemsRemoved) != 1 || res.ItemsRemoved[0] != art {
			t.Fatalf("unexpected result %+v", res)
		}
		tu.AssertNoFile(t, art)
		tu.AssertFileExists(t, data)
	})

	t.Run("removes data and index files", func(t *testing.T) {
		f := newFixture(t)
		art, data, index := f.addTrack(t, handlers.BAMType, "reads", 4)

		res := f.m.RemoveTrack("reads", "org1", "asm1", Options{RemoveData: true})
		if !res.Success || len(res.ItemsRemoved) != 3 {
			t.Fatalf("unexpected result %+v", res)
		}
		if len(res.Steps) != 1 || res.Steps[0].Removed != 3 {
			t.Errorf("unexpected steps %+v", res.Steps)
		}
		for _, p := range []string{art, data, index} {
			tu.AssertNoFile(t, p)
		}
	})

	t.Run("remote data is left alone", func(t *testing.T) {
		f := newFixture(t)
		art := f.m.artifactPath("org1", "asm1", handlers.BigWigType, "remote")
		tu.MustWriteJSON(t, art, map[string]any{"name": "remote", "metadata": map[string]any{"file_path": "https://tracks.example.org/x.bw"}})

		res := f.m.RemoveTrack("remote", "org1", "asm1", Options{RemoveData: true})
		if !res.Success || len(res.ItemsRemoved) != 1 {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("dry run has the same shape", func(t *testing.T) {
		f := newFixture(t)
		f.addTrack(t, handlers.BAMType, "reads", 4)
		before := tu.SnapshotTree(t, f.site.Root)

		dry := f.m.RemoveTrack("reads", "org1", "asm1", Options{DryRun: true, RemoveData: true})
		tu.AssertSameTree(t, before, tu.SnapshotTree(t, f.site.Root))

		live := f.m.RemoveTrack("reads", "org1", "asm1", Options{RemoveData: true})
		if dry.Success != live.Success || len(dry.ItemsRemoved) != len(live.ItemsRemoved) || len(dry.Steps) != len(live.Steps) {
			t.Fatalf("dry run %+v differs from live run %+v", dry, live)
		}
		for i, item := range dry.ItemsRemoved {
			if item != live.ItemsRemoved[i]+handlers.DryRunLabel {
				t.Errorf("item %d = %q, want %q", i, item, live.ItemsRemoved[i]+handlers.DryRunLabel)
			}
		}
	})

	t.Run("combo tracks are found case-insensitively", func(t *testing.T) {
		f := newFixture(t)
		art, _, _ := f.addTrack(t, handlers.ComboType, "Leaf_Series", 1)
		if filepath.Base(art) != "leaf_series.json" {
			t.Fatalf("unexpected combo path %s", art)
		}
		if res := f.m.RemoveTrack("LEAF_SERIES", "org1", "asm1", Options{}); !res.Success {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("unknown track", func(t *testing.T) {
		f := newFixture(t)
		res := f.m.RemoveTrack("nope", "org1", "asm1", Options{})
		if res.Success || len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "track not found") {
			t.Errorf("unexpected result %+v", res)
		}
	})
}

func TestCascadingRemoval(t *testing.T) {
	setup := func(t *testing.T) *fixture {
		f := newFixture(t)
		f.addTrack(t, handlers.BigWigType, "a", 1)
		f.addTrack(t, handlers.VCFType, "b", 1)
		r := f.site.Resolver()
		tu.MustWriteJSON(t, r.AssemblyConfigPath("org1", "asm1"), map[string]any{"name": "asm1"})
		tu.MustWriteFile(t, filepath.Join(r.CacheDir("org1", "asm1"), "config.json"), "{}")
		tu.MustWriteFile(t, filepath.Join(r.GenomeDir("org1", "asm1"), "reference.fasta"), ">chr1\nACGT\n")
		return f
	}

	t.Run("RemoveAssembly keeps data by default", func(t *testing.T) {
		f := setup(t)
		r := f.site.Resolver()
		res := f.m.RemoveAssembly("org1", "asm1", Options{})
		if !res.Success {
			t.Fatalf("unexpected errors %v", res.Errors)
		}
		if len(res.Steps) != 3 {
			t.Errorf("expected 3 steps, got %+v", res.Steps)
		}
		tu.AssertNoFile(t, r.AssemblyConfigDir("org1", "asm1"))
		tu.AssertNoFile(t, r.AssemblyConfigPath("org1", "asm1"))
		tu.AssertNoFile(t, r.CacheDir("org1", "asm1"))
		tu.AssertDirExists(t, r.GenomeDir("org1", "asm1"))
	})

	t.Run("RemoveAssembly with data", func(t *testing.T) {
		f := setup(t)
		r := f.site.Resolver()
		res := f.m.RemoveAssembly("org1", "asm1", Options{RemoveData: true})
		if !res.Success || len(res.Steps) != 5 {
			t.Fatalf("unexpected result %+v", res)
		}
		tu.AssertNoFile(t, r.GenomeDir("org1", "asm1"))
		tu.AssertNoFile(t, r.TrackDataDir("org1", "asm1"))
	})

	t.Run("dry run counts without removing", func(t *testing.T) {
		f := setup(t)
		before := tu.SnapshotTree(t, f.site.Root)
		dry := f.m.RemoveAssembly("org1", "asm1", Options{DryRun: true, RemoveData: true})
		tu.AssertSameTree(t, before, tu.SnapshotTree(t, f.site.Root))

		live := f.m.RemoveAssembly("org1", "asm1", Options{RemoveData: true})
		for i := range live.Steps {
			if dry.Steps[i].Removed != live.Steps[i].Removed {
				t.Errorf("step %s: dry run counted %d, live run removed %d", live.Steps[i].Name, dry.Steps[i].Removed, live.Steps[i].Removed)
			}
		}
		// bigwig dir + vcf dir + 2 artifacts + assembly dir
		if live.Steps[0].Removed != 5 {
			t.Errorf("track metadata step removed %d, want 5", live.Steps[0].Removed)
		}
	})

	t.Run("RemoveOrganism", func(t *testing.T) {
		f := setup(t)
		r := f.site.Resolver()
		res := f.m.RemoveOrganism("org1", Options{})
		if !res.Success {
			t.Fatalf("unexpected errors %v", res.Errors)
		}
		tu.AssertNoFile(t, r.OrganismConfigDir("org1"))
		tu.AssertNoFile(t, r.AssemblyConfigPath("org1", "asm1"))
		tu.AssertNoFile(t, r.CacheDir("org1", ""))
		tu.AssertDirExists(t, r.GenomeDir("org1", ""))
	})

	t.Run("failed steps do not stop the others", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("permissions are not enforced for root")
		}
		f := setup(t)
		r := f.site.Resolver()
		locked := r.AssemblyConfigDir("org1", "asm1")
		if err := os.Chmod(locked, 0o500); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { os.Chmod(locked, 0o755) })

		res := f.m.RemoveAssembly("org1", "asm1", Options{})
		if res.Success || len(res.Errors) == 0 {
			t.Fatalf("expected a failure, got %+v", res)
		}
		if res.Steps[0].Error == "" {
			t.Errorf("expected the first step to carry its error: %+v", res.Steps[0])
		}
		tu.AssertNoFile(t, r.AssemblyConfigPath("org1", "asm1"))
		tu.AssertNoFile(t, r.CacheDir("org1", "asm1"))
	})

	t.Run("requires names", func(t *testing.T) {
		f := newFixture(t)
		if res := f.m.RemoveAssembly("org1", "", Options{}); res.Success {
			t.Error("expected an error without an assembly")
		}
		if res := f.m.RemoveOrganism("", Options{}); res.Success {
			t.Error("expected an error without an organism")
		}
	})
}

func TestCleanOrphanedTracks(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"A", "B", "C"} {
		f.addTrack(t, handlers.BigWigType, id, 1)
	}
	f.addTrack(t, handlers.ComboType, "Series", 1)

	dry := f.m.CleanOrphanedTracks([]string{"B", "SERIES"}, "org1", "asm1", Options{DryRun: true})
	if len(dry.ItemsRemoved) != 2 || !strings.HasSuffix(dry.ItemsRemoved[0], handlers.DryRunLabel) {
		t.Errorf("unexpected dry run %+v", dry)
	}

	res := f.m.CleanOrphanedTracks([]string{"B", "SERIES"}, "org1", "asm1", Options{})
	if !res.Success || len(res.ItemsRemoved) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	status, err := f.m.TrackStatus("org1", "asm1")
	if err != nil {
		t.Fatal(err)
	}
	if len(status) != 2 || status[0].TrackID != "B" || status[1].TrackID != "series" {
		t.Errorf("unexpected remaining tracks %+v", status)
	}
}

func TestCleanOrphanedTracksSharedID(t *testing.T) {
	f := newFixture(t)
	regular, _, _ := f.addTrack(t, handlers.BigWigType, "rna", 1)
	combo, _, _ := f.addTrack(t, handlers.ComboType, "rna", 1)

	res := f.m.CleanOrphanedTracks([]string{"RNA"}, "org1", "asm1", Options{})
	if !res.Success {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
	if len(res.ItemsRemoved) != 1 || res.ItemsRemoved[0] != regular {
		t.Errorf("expected only %s removed, got %v", regular, res.ItemsRemoved)
	}
	if _, err := os.Stat(regular); !os.IsNotExist(err) {
		t.Errorf("expected orphaned bigwig artifact removed, stat err = %v", err)
	}
	tu.AssertFileExists(t, combo)
}

func TestListing(t *testing.T) {
	f := newFixture(t)
	f.addTrack(t, handlers.BigWigType, "a", 10)
	f.addTrack(t, handlers.BigWigType, "b", 5)
	f.addTrack(t, handlers.GFFType, "genes", 7)
	tu.MustWriteFile(t, f.m.artifactPath("org1", "asm1", handlers.BEDType, "broken"), "{not json")
	tu.MustWriteFile(t, filepath.Join(f.site.Resolver().GenomeDir("org1", "asm2"), "reference.fasta"), ">c\n")
	tu.MustWriteFile(t, filepath.Join(f.site.Resolver().SyntenyRoot(), "A_B", "paf", "x.json"), "{}")

	t.Run("ListOrganisms skips synteny", func(t *testing.T) {
		orgs, err := f.m.ListOrganisms()
		if err != nil || len(orgs) != 1 || orgs[0] != "org1" {
			t.Errorf("ListOrganisms() = %v, %v", orgs, err)
		}
	})

	t.Run("ListAssemblies includes genome-only assemblies", func(t *testing.T) {
		asms, err := f.m.ListAssemblies("org1")
		if err != nil || strings.Join(asms, ",") != "asm1,asm2" {
			t.Errorf("ListAssemblies() = %v, %v", asms, err)
		}
	})

	t.Run("ListTracks", func(t *testing.T) {
		tracks, err := f.m.ListTracks("org1", "asm1")
		if err != nil {
			t.Fatal(err)
		}
		if len(tracks) != 4 {
			t.Fatalf("expected 4 tracks, got %+v", tracks)
		}
		a := tracks[0]
		if a.TrackID != "a" || a.Type != handlers.BigWigType || a.Name != "Track a" || a.Category != "Expression/RNA-seq" || a.FileSize != 10 {
			t.Errorf("unexpected track %+v", a)
		}
		if broken := tracks[2]; broken.TrackID != "broken" || broken.Name != "" {
			t.Errorf("unexpected unreadable track %+v", broken)
		}
	})

	t.Run("GetTrackStatistics", func(t *testing.T) {
		stats, err := f.m.GetTrackStatistics("org1", "asm1")
		if err != nil {
			t.Fatal(err)
		}
		if stats.Total != 4 || stats.TotalSize != 22 || stats.ByType[handlers.BigWigType] != 2 || stats.ByAccess["PUBLIC"] != 3 {
			t.Errorf("unexpected statistics %+v", stats)
		}
	})

	t.Run("empty assembly", func(t *testing.T) {
		stats, err := f.m.GetTrackStatistics("none", "none")
		if err != nil || stats.Total != 0 || stats.TotalSize != 0 {
			t.Errorf("unexpected statistics %+v (%v)", stats, err)
		}
	})
}
