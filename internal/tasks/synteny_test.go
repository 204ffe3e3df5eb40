package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/shared"
	tu "github.com/desertthunder/jbtracks/internal/testing"
)

func newSyntenyGenerator(t *testing.T, site *tu.Site, source *tu.FakeSheetSource) *SyntenyTrackGenerator {
	t.Helper()
	opts := Options{Resolver: site.Resolver(), Logger: quietLogger()}
	if source != nil {
		opts.Source = source
	}
	g, err := NewSyntenyTrackGenerator(opts)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func pairDescriptor(id, path, asm1, asm2 string) *models.SyntenyTrackDescriptor {
	return &models.SyntenyTrackDescriptor{
		TrackDescriptor: models.TrackDescriptor{TrackID: id, Name: id, SourcePath: path},
		Organism1:       "org_" + asm1,
		Assembly1:       asm1,
		Organism2:       "org_" + asm2,
		Assembly2:       asm2,
	}
}

func TestSyntenyTrackGenerator(t *testing.T) {
	t.Run("AssemblyPairName is symmetric", func(t *testing.T) {
		g := newSyntenyGenerator(t, tu.NewSite(t), nil)
		if a, b := g.AssemblyPairName("Bsub", "Asub"), g.AssemblyPairName("Asub", "Bsub"); a != b || a != "Asub_Bsub" {
			t.Errorf("pair names %q and %q", a, b)
		}
	})

	t.Run("default registry", func(t *testing.T) {
		g := newSyntenyGenerator(t, tu.NewSite(t), nil)
		if got := g.Types(); len(got) != 4 || got[0] != "paf" || got[3] != "mcscan" {
			t.Errorf("Types() = %v", got)
		}
		if typeID, ok := g.DetermineTrackType("/x/a.anchors.simple"); !ok || typeID != "mcscan" {
			t.Errorf("DetermineTrackType() = %q, %v", typeID, ok)
		}
		if _, ok := g.DetermineTrackType("/x/a.bw"); ok {
			t.Error("single-assembly types must not be recognized")
		}
	})

	t.Run("either assembly order maps to one artifact", func(t *testing.T) {
		site := tu.NewSite(t)
		g := newSyntenyGenerator(t, site, nil)
		paf := site.DataFile(t, "data/tracks/synteny/a_b.paf", "paf")

		report, err := g.GenerateTracks([]*models.SyntenyTrackDescriptor{pairDescriptor("aln", paf, "Bsub", "Asub")}, GenerateOptions{})
		if err != nil {
			t.Fatal(err)
		}
		assertCounts(t, report, models.Counts{Total: 1, Created: 1})
		tu.AssertFileExists(t, site.Resolver().SyntenyConfigPath("Asub_Bsub", "paf", "aln"))

		if !g.TrackExists("aln", "Asub", "Bsub") {
			t.Error("expected the reversed pair to find the artifact")
		}
		again, _ := g.GenerateTracks([]*models.SyntenyTrackDescriptor{pairDescriptor("aln", paf, "Asub", "Bsub")}, GenerateOptions{})
		assertCounts(t, again, models.Counts{Total: 1, Skipped: 1})

		forced, _ := g.GenerateTracks([]*models.SyntenyTrackDescriptor{pairDescriptor("aln", paf, "Asub", "Bsub")}, GenerateOptions{Force: models.ForceOnly("aln")})
		assertCounts(t, forced, models.Counts{Total: 1, Created: 1})
	})

	t.Run("unset metadata root aborts", func(t *testing.T) {
		site := tu.NewSite(t)
		paf := site.DataFile(t, "data/tracks/synteny/a_b.paf", "paf")
		site.Settings.MetadataDir = ""
		g := newSyntenyGenerator(t, site, nil)

		report, err := g.GenerateTracks([]*models.SyntenyTrackDescriptor{pairDescriptor("aln", paf, "Asub", "Bsub")}, GenerateOptions{})
		if !errors.Is(err, shared.ErrConfiguration) {
			t.Fatalf("expected ErrConfiguration, got %v", err)
		}
		assertCounts(t, report, models.Counts{})
	})

	t.Run("failures are recorded", func(t *testing.T) {
		site := tu.NewSite(t)
		g := newSyntenyGenerator(t, site, nil)
		anchors := site.DataFile(t, "data/tracks/synteny/a.anchors", "anchors")
		missingAsm := pairDescriptor("noasm", site.DataFile(t, "data/tracks/synteny/x.paf", "paf"), "A", "")

		report, err := g.GenerateTracks([]*models.SyntenyTrackDescriptor{
			pairDescriptor("nobeds", anchors, "A", "B"),
			pairDescriptor("unknown", "/x/a.txt", "A", "B"),
			missingAsm,
		}, GenerateOptions{})
		if err != nil {
			t.Fatal(err)
		}
		assertCounts(t, report, models.Counts{Total: 3, Failed: 3})
	})

	t.Run("dry run", func(t *testing.T) {
		site := tu.NewSite(t)
		g := newSyntenyGenerator(t, site, nil)
		paf := site.DataFile(t, "data/tracks/synteny/a_b.paf", "paf")

		before := tu.SnapshotTree(t, site.Root)
		report, err := g.GenerateTracks([]*models.SyntenyTrackDescriptor{pairDescriptor("aln", paf, "A", "B")}, GenerateOptions{DryRun: true})
		if err != nil {
			t.Fatal(err)
		}
		assertCounts(t, report, models.Counts{Total: 1, Created: 1})
		tu.AssertSameTree(t, before, tu.SnapshotTree(t, site.Root))
	})

	t.Run("CleanOrphanedTracks", func(t *testing.T) {
		site := tu.NewSite(t)
		g := newSyntenyGenerator(t, site, nil)
		var tracks []*models.SyntenyTrackDescriptor
		for _, id := range []string{"x", "y", "z"} {
			tracks = append(tracks, pairDescriptor(id, site.DataFile(t, "data/tracks/synteny/"+id+".paf", id), "A", "B"))
		}
		if _, err := g.GenerateTracks(tracks, GenerateOptions{}); err != nil {
			t.Fatal(err)
		}

		if n := g.CleanOrphanedTracks([]string{"y"}, "B", "A"); n != 2 {
			t.Errorf("removed %d, want 2", n)
		}
		if g.TrackExists("x", "A", "B") || !g.TrackExists("y", "A", "B") {
			t.Error("unexpected artifacts after cleanup")
		}
	})

	t.Run("LoadFromSheet", func(t *testing.T) {
		source := tu.NewFakeSheetSource(map[string]string{
			"syn/3": "track_id\tname\ttrack_path\torganism1\tassembly1\torganism2\tassembly2\n" +
				"aln\tAln\t/x/a.paf\toA\tA\toB\tB\n",
			"bad/0": "track_id\tname\ttrack_path\n",
		})
		g := newSyntenyGenerator(t, tu.NewSite(t), source)

		sheet, err := g.LoadFromSheet(context.Background(), "syn", "3")
		if err != nil {
			t.Fatal(err)
		}
		if len(sheet.Tracks) != 1 || sheet.Tracks[0].Assembly2 != "B" {
			t.Errorf("unexpected sheet %+v", sheet)
		}
		if _, err := g.LoadFromSheet(context.Background(), "bad", "0"); !errors.Is(err, shared.ErrSchema) {
			t.Errorf("expected ErrSchema, got %v", err)
		}
	})
}
