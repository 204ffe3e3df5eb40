package handlers

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/paths"
	"github.com/desertthunder/jbtracks/internal/shared"
	tu "github.com/desertthunder/jbtracks/internal/testing"
)

func quietLogger() *log.Logger {
	l := shared.NewLogger(&strings.Builder{})
	l.SetLevel(log.FatalLevel)
	return l
}

func track(id, path string) *models.TrackDescriptor {
	return &models.TrackDescriptor{
		TrackID:     id,
		Name:        strings.ToUpper(id),
		SourcePath:  path,
		Category:    "Expression/RNA-seq",
		AccessLevel: models.AccessPublic,
		Organism:    "org1",
		Assembly:    "asm1",
	}
}

func adapterOf(t *testing.T, artifact map[string]any) map[string]any {
	t.Helper()
	a, ok := artifact["adapter"].(map[string]any)
	if !ok {
		t.Fatalf("artifact has no adapter: %v", artifact)
	}
	return a
}

func uriOf(t *testing.T, block any) string {
	t.Helper()
	m, ok := block.(map[string]any)
	if !ok {
		t.Fatalf("expected location block, got %T", block)
	}
	return m["uri"].(string)
}

type stubHandler struct {
	typeID string
	exts   []string
}

func (s stubHandler) Type() string         { return s.typeID }
func (s stubHandler) Extensions() []string { return s.exts }
func (s stubHandler) Validate(models.Descriptor) (*Validation, error) {
	return newValidation(), nil
}
func (s stubHandler) Generate(models.Descriptor, string, string, Options) (*Artifact, error) {
	return &Artifact{}, nil
}

func TestRegistry(t *testing.T) {
	t.Run("rejects duplicates and empty types", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register(stubHandler{typeID: "a"}); err != nil {
			t.Fatal(err)
		}
		if err := r.Register(stubHandler{typeID: "a"}); !errors.Is(err, shared.ErrDuplicateHandler) {
			t.Errorf("expected ErrDuplicateHandler, got %v", err)
		}
		if err := r.Register(stubHandler{typeID: " "}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if r.Len() != 1 {
			t.Errorf("expected 1 handler, got %d", r.Len())
		}
	})

	t.Run("first registered extension wins", func(t *testing.T) {
		r := NewRegistry()
		_ = r.Register(stubHandler{typeID: "first", exts: []string{".gz"}})
		_ = r.Register(stubHandler{typeID: "second", exts: []string{".vcf.gz"}})

		if got, _ := r.DetermineType("/x/calls.vcf.gz"); got != "first" {
			t.Errorf("expected registration order to break ties, got %q", got)
		}
		if types := r.Types(); len(types) != 2 || types[0] != "first" {
			t.Errorf("unexpected types %v", types)
		}
	})

	t.Run("DetermineType over the single-assembly set", func(t *testing.T) {
		site := tu.NewSite(t)
		r := NewRegistry()
		for _, h := range SingleAssembly(site.Resolver(), quietLogger()) {
			if err := r.Register(h); err != nil {
				t.Fatal(err)
			}
		}

		tc := []struct {
			path string
			want string
			ok   bool
		}{
			{"AUTO", AutoType, true},
			{" auto ", AutoType, true},
			{"/x/cov.BW", BigWigType, true},
			{"/x/cov.bigwig", BigWigType, true},
			{"https://host/reads.bam?sig=1", BAMType, true},
			{"/x/reads.cram", CRAMType, true},
			{"/x/calls.vcf.gz", VCFType, true},
			{"/x/peaks.bed", BEDType, true},
			{"/x/genes.gtf", GTFType, true},
			{"/x/genes.gff3.gz", GFFType, true},
			{"/x/genes.gff", GFFType, true},
			{"/x/notes.txt", "", false},
			{"/x/reads.bam.bai", "", false},
		}
		for _, tt := range tc {
			got, ok := r.DetermineType(tt.path)
			if got != tt.want || ok != tt.ok {
				t.Errorf("DetermineType(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
			}
		}
	})

	t.Run("DetermineType over the synteny set", func(t *testing.T) {
		r := NewRegistry()
		for _, h := range DualAssembly(paths.NewResolver(paths.Settings{}), quietLogger()) {
			_ = r.Register(h)
		}
		for path, want := range map[string]string{
			"/x/a.paf":            PAFType,
			"/x/a.paf.gz":         PAFType,
			"/x/a.pif.gz":         PIFType,
			"/x/a.maf.gz":         MAFType,
			"/x/a.anchors":        MCScanType,
			"/x/a.anchors.simple": MCScanType,
		} {
			if got, _ := r.DetermineType(path); got != want {
				t.Errorf("DetermineType(%q) = %q, want %q", path, got, want)
			}
		}
	})
}

func TestBigWigHandler(t *testing.T) {
	site := tu.NewSite(t)
	h := NewBigWigHandler(site.Resolver(), quietLogger())
	data := site.DataFile(t, "data/tracks/org1/asm1/bigwig/x.bw", "bigwig-bytes")

	t.Run("Validate", func(t *testing.T) {
		v, err := h.Validate(track("cov1", data))
		if err != nil || !v.Valid {
			t.Fatalf("expected valid descriptor, got %+v (%v)", v, err)
		}

		v, err = h.Validate(track("cov2", filepath.Join(site.Root, "missing.bw")))
		if err != nil {
			t.Fatal(err)
		}
		if v.Valid || !strings.Contains(v.Reason(), "not found") {
			t.Errorf("expected missing file failure, got %+v", v)
		}
		if !errors.Is(v.Err(), shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", v.Err())
		}
	})

	t.Run("Generate", func(t *testing.T) {
		d := track("cov1", data)
		d.Color = "#ff0000"
		d.Technique = "RNA-seq"
		d.Metadata = map[string]string{"replicate": "2", "track_type": "spoofed"}

		art, err := h.Generate(d, "org1", "asm1", Options{})
		if err != nil {
			t.Fatal(err)
		}
		want := filepath.Join(site.Root, "metadata", "jbrowse2-configs", "tracks", "org1", "asm1", "bigwig", "cov1.json")
		if art.Path != want || !art.Written {
			t.Errorf("unexpected artifact %+v", art)
		}

		got := tu.MustReadJSON(t, want)
		if got["type"] != "QuantitativeTrack" || got["trackId"] != "cov1" {
			t.Errorf("unexpected track header: %v", got)
		}
		adapter := adapterOf(t, got)
		wantURI := "/" + filepath.Base(site.Root) + "/data/tracks/org1/asm1/bigwig/x.bw"
		if uri := uriOf(t, adapter["bigWigLocation"]); uri != wantURI {
			t.Errorf("bigWigLocation = %q, want %q", uri, wantURI)
		}

		meta := got["metadata"].(map[string]any)
		if meta["file_path"] != data {
			t.Errorf("file_path = %v", meta["file_path"])
		}
		if meta["file_size"].(float64) != float64(len("bigwig-bytes")) {
			t.Errorf("file_size = %v", meta["file_size"])
		}
		if meta["track_type"] != "bigwig" || meta["replicate"] != "2" || meta["technique"] != "RNA-seq" {
			t.Errorf("unexpected metadata %v", meta)
		}
		if cats := got["category"].([]any); len(cats) != 2 || cats[1] != "RNA-seq" {
			t.Errorf("unexpected category %v", got["category"])
		}
		if _, ok := got["displays"]; !ok {
			t.Error("expected a colored display")
		}
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		before := tu.SnapshotTree(t, site.Root)
		art, err := h.Generate(track("cov9", data), "org1", "asm1", Options{DryRun: true})
		if err != nil {
			t.Fatal(err)
		}
		if art.Written || art.Config == nil {
			t.Errorf("expected an unwritten planned artifact, got %+v", art)
		}
		tu.AssertSameTree(t, before, tu.SnapshotTree(t, site.Root))
	})

	t.Run("unset metadata root is a configuration error", func(t *testing.T) {
		s := site.Settings
		s.MetadataDir = ""
		unrooted := NewBigWigHandler(paths.NewResolver(s), quietLogger())
		for _, dryRun := range []bool{false, true} {
			if _, err := unrooted.Generate(track("cov4", data), "org1", "asm1", Options{DryRun: dryRun}); !errors.Is(err, shared.ErrConfiguration) {
				t.Errorf("dry run %v: expected ErrConfiguration, got %v", dryRun, err)
			}
		}
	})

	t.Run("uncreatable metadata directory fails", func(t *testing.T) {
		s := site.Settings
		s.MetadataDir = filepath.Join(t.TempDir(), "blocker")
		tu.MustWriteFile(t, s.MetadataDir, "x")
		blocked := NewBigWigHandler(paths.NewResolver(s), quietLogger())
		if _, err := blocked.Generate(track("cov5", data), "org1", "asm1", Options{}); !errors.Is(err, shared.ErrDirectoryCreate) {
			t.Errorf("expected ErrDirectoryCreate, got %v", err)
		}
	})

	t.Run("remote URL is kept", func(t *testing.T) {
		art, err := h.Generate(track("cov3", "https://tracks.example.org/x.bw"), "org1", "asm1", Options{DryRun: true})
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := art.Config.Metadata[MetaFileSize]; ok {
			t.Error("remote files have no size")
		}
		loc := art.Config.Adapter["bigWigLocation"].(Location)
		if loc.URI != "https://tracks.example.org/x.bw" {
			t.Errorf("unexpected URI %q", loc.URI)
		}
	})
}

func TestAlignmentHandlers(t *testing.T) {
	site := tu.NewSite(t)
	r := site.Resolver()

	t.Run("BAM requires an index", func(t *testing.T) {
		h := NewBAMHandler(r, quietLogger())
		bam := site.DataFile(t, "data/tracks/org1/asm1/bam/reads.bam", "bam")

		v, _ := h.Validate(track("reads", bam))
		if v.Valid || !strings.Contains(v.Reason(), "index file not found") {
			t.Errorf("expected missing index, got %+v", v)
		}
		if _, err := h.Generate(track("reads", bam), "org1", "asm1", Options{}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected generation to fail without index, got %v", err)
		}

		site.DataFile(t, "data/tracks/org1/asm1/bam/reads.bai", "bai")
		v, _ = h.Validate(track("reads", bam))
		if !v.Valid {
			t.Fatalf("expected x.bai to satisfy the index check: %+v", v)
		}
		art, err := h.Generate(track("reads", bam), "org1", "asm1", Options{})
		if err != nil {
			t.Fatal(err)
		}
		if art.Config.Metadata[MetaIndexPath] != strings.TrimSuffix(bam, ".bam")+".bai" {
			t.Errorf("unexpected index path %v", art.Config.Metadata[MetaIndexPath])
		}
	})

	t.Run("CRAM needs the reference fasta", func(t *testing.T) {
		h := NewCRAMHandler(r, quietLogger())
		cram := site.DataFile(t, "data/tracks/org1/asm1/cram/reads.cram", "cram")
		site.DataFile(t, "data/tracks/org1/asm1/cram/reads.cram.crai", "crai")

		v, err := h.Validate(track("c1", cram))
		if err != nil {
			t.Fatal(err)
		}
		if v.Valid {
			t.Fatal("expected missing reference fasta to fail validation")
		}

		site.DataFile(t, "data/genomes/org1/asm1/reference.fasta", ">chr1\nACGT\n")
		site.DataFile(t, "data/genomes/org1/asm1/reference.fasta.fai", "chr1\t4\t6\t4\t5\n")
		v, _ = h.Validate(track("c1", cram))
		if !v.Valid {
			t.Fatalf("expected valid CRAM, got %+v", v)
		}
		art, err := h.Generate(track("c1", cram), "org1", "asm1", Options{DryRun: true})
		if err != nil {
			t.Fatal(err)
		}
		seq := art.Config.Adapter["sequenceAdapter"].(Adapter)
		if seq["type"] != "IndexedFastaAdapter" {
			t.Errorf("unexpected sequence adapter %v", seq)
		}
	})

	t.Run("configuration errors are returned", func(t *testing.T) {
		s := site.Settings
		s.GenomesDir = ""
		h := NewCRAMHandler(paths.NewResolver(s), quietLogger())
		cram := filepath.Join(site.Root, "data/tracks/org1/asm1/cram/reads.cram")

		if _, err := h.Validate(track("c1", cram)); !errors.Is(err, shared.ErrConfiguration) {
			t.Errorf("expected ErrConfiguration, got %v", err)
		}
	})
}

func TestFeatureHandlers(t *testing.T) {
	site := tu.NewSite(t)
	r := site.Resolver()

	t.Run("bgzipped VCF uses tabix", func(t *testing.T) {
		h := NewVCFHandler(r, quietLogger())
		vcf := site.DataFile(t, "data/tracks/org1/asm1/vcf/calls.vcf.gz", "vcf")

		if v, _ := h.Validate(track("v1", vcf)); v.Valid {
			t.Error("expected missing .tbi to fail validation")
		}
		site.DataFile(t, "data/tracks/org1/asm1/vcf/calls.vcf.gz.csi", "csi")

		art, err := h.Generate(track("v1", vcf), "org1", "asm1", Options{DryRun: true})
		if err != nil {
			t.Fatal(err)
		}
		if art.Config.Adapter["type"] != "VcfTabixAdapter" {
			t.Errorf("unexpected adapter %v", art.Config.Adapter)
		}
		index := art.Config.Adapter["index"].(map[string]any)
		if index["indexType"] != "CSI" {
			t.Errorf("expected CSI index, got %v", index)
		}
	})

	t.Run("plain formats need no index", func(t *testing.T) {
		tc := []struct {
			h       *FileHandler
			rel     string
			adapter string
		}{
			{NewVCFHandler(r, quietLogger()), "data/tracks/org1/asm1/vcf/calls.vcf", "VcfAdapter"},
			{NewBEDHandler(r, quietLogger()), "data/tracks/org1/asm1/bed/peaks.bed", "BedAdapter"},
			{NewGTFHandler(r, quietLogger()), "data/tracks/org1/asm1/gtf/genes.gtf", "GtfAdapter"},
			{NewGFFHandler(r, quietLogger()), "data/tracks/org1/asm1/gff/genes.gff3", "Gff3Adapter"},
		}
		for _, tt := range tc {
			t.Run(tt.h.Type(), func(t *testing.T) {
				path := site.DataFile(t, tt.rel, "x")
				if v, _ := tt.h.Validate(track("f1", path)); !v.Valid {
					t.Fatalf("expected valid descriptor: %+v", v)
				}
				art, err := tt.h.Generate(track("f1", path), "org1", "asm1", Options{})
				if err != nil {
					t.Fatal(err)
				}
				if art.Config.Adapter["type"] != tt.adapter {
					t.Errorf("adapter = %v, want %s", art.Config.Adapter["type"], tt.adapter)
				}
				tu.AssertFileExists(t, r.TrackConfigPath("org1", "asm1", tt.h.Type(), "f1"))
			})
		}
	})
}

func TestAutoHandler(t *testing.T) {
	site := tu.NewSite(t)
	h := NewAutoHandler(site.Resolver(), quietLogger())
	site.DataFile(t, "data/genomes/org1/asm1/reference.fasta", ">chr1\n")
	site.DataFile(t, "data/genomes/org1/asm1/reference.fasta.fai", "chr1\t0\t6\t0\t1\n")
	site.DataFile(t, "data/genomes/org1/asm1/annotations.gff3.gz", "gff")

	fasta := track("ref", "AUTO")
	fasta.Metadata = map[string]string{AutoTypeColumn: "fasta"}
	art, err := h.Generate(fasta, "org1", "asm1", Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if art.Config.Type != "ReferenceSequenceTrack" {
		t.Errorf("unexpected track type %s", art.Config.Type)
	}

	if v, _ := h.Validate(track("genes", "AUTO")); v.Valid {
		t.Error("expected gff AUTO track without .tbi to be invalid")
	}

	bad := track("x", "AUTO")
	bad.Metadata = map[string]string{AutoTypeColumn: "bam"}
	v, err := h.Validate(bad)
	if err != nil {
		t.Fatal(err)
	}
	if v.Valid || !strings.Contains(v.Reason(), shared.ErrUnsupportedAutoType.Error()) {
		t.Errorf("expected unsupported AUTO type, got %+v", v)
	}
}

func TestComboHandler(t *testing.T) {
	site := tu.NewSite(t)
	h := NewComboHandler(site.Resolver(), quietLogger())
	a := site.DataFile(t, "data/tracks/org1/asm1/bigwig/a.bw", "aa")
	b := site.DataFile(t, "data/tracks/org1/asm1/bigwig/b.bw", "bbb")

	combo := &models.ComboTrackDescriptor{
		TrackDescriptor: models.TrackDescriptor{TrackID: "Leaf_Series", Name: "Leaf Series", Organism: "org1", Assembly: "asm1"},
		Groups: []*models.ComboGroup{
			{Name: "Control", ColorScheme: "blues", Tracks: []*models.TrackDescriptor{track("a", a), track("b", b)}},
			{Name: "Marked", ColorScheme: "#123456", Tracks: []*models.TrackDescriptor{func() *models.TrackDescriptor {
				d := track("c", a)
				d.Color = "#abcdef"
				return d
			}()}},
		},
	}

	t.Run("Validate", func(t *testing.T) {
		if v, _ := h.Validate(combo); !v.Valid {
			t.Errorf("expected valid combo, got %+v", v)
		}

		empty := &models.ComboTrackDescriptor{TrackDescriptor: models.TrackDescriptor{TrackID: "e"}, Groups: []*models.ComboGroup{{Name: "g"}}}
		if v, _ := h.Validate(empty); v.Valid {
			t.Error("expected combo without members to be invalid")
		}

		if v, _ := h.Validate(track("plain", a)); v.Valid {
			t.Error("expected a regular descriptor to be rejected")
		}
	})

	t.Run("Generate", func(t *testing.T) {
		art, err := h.Generate(combo, "org1", "asm1", Options{})
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(art.Path) != "leaf_series.json" || filepath.Base(filepath.Dir(art.Path)) != "combo" {
			t.Errorf("unexpected combo path %s", art.Path)
		}

		subs := art.Config.Adapter["subadapters"].([]Adapter)
		if len(subs) != 3 {
			t.Fatalf("expected 3 subadapters, got %d", len(subs))
		}
		blues, _ := Palette("blues")
		if subs[0]["color"] != blues[0] || subs[1]["color"] != blues[1] {
			t.Errorf("expected palette colors, got %v %v", subs[0]["color"], subs[1]["color"])
		}
		if subs[2]["color"] != "#abcdef" {
			t.Errorf("expected explicit member color to win, got %v", subs[2]["color"])
		}
		if art.Config.Metadata[MetaFileSize] != int64(2+3+2) {
			t.Errorf("unexpected combined size %v", art.Config.Metadata[MetaFileSize])
		}
		files, ok := art.Config.Metadata[MetaFilePath].([]string)
		if !ok || strings.Join(files, ",") != strings.Join([]string{a, b, a}, ",") {
			t.Errorf("expected member file paths, got %v", art.Config.Metadata[MetaFilePath])
		}
	})
}

func TestPalette(t *testing.T) {
	if p, ok := Palette("#A1B2C3"); !ok || len(p) != 1 || p[0] != "#A1B2C3" {
		t.Errorf("expected literal color palette, got %v", p)
	}
	if _, ok := Palette("Blues"); !ok {
		t.Error("expected palette names to be case-insensitive")
	}
	if p, ok := Palette("plaid"); ok || len(p) == 0 {
		t.Errorf("expected fallback palette, got %v %v", p, ok)
	}
}

func TestSyntenyHandlers(t *testing.T) {
	site := tu.NewSite(t)
	r := site.Resolver()

	synteny := func(id, path string) *models.SyntenyTrackDescriptor {
		return &models.SyntenyTrackDescriptor{
			TrackDescriptor: models.TrackDescriptor{TrackID: id, Name: id, SourcePath: path},
			Organism1:       "orgB",
			Assembly1:       "Bsub",
			Organism2:       "orgA",
			Assembly2:       "Asub",
		}
	}

	t.Run("PAF stored under the sorted pair", func(t *testing.T) {
		h := NewPAFHandler(r, quietLogger())
		paf := site.DataFile(t, "data/tracks/synteny/a.paf", "paf")
		d := synteny("aln1", paf)

		if v, _ := h.Validate(d); !v.Valid {
			t.Fatalf("expected valid synteny descriptor: %+v", v)
		}
		art, err := h.Generate(d, d.Organism1, d.Assembly1, Options{})
		if err != nil {
			t.Fatal(err)
		}
		want := r.SyntenyConfigPath("Asub_Bsub", PAFType, "aln1")
		if art.Path != want {
			t.Errorf("path = %s, want %s", art.Path, want)
		}
		tu.AssertFileExists(t, want)
		names := art.Config.AssemblyNames
		if len(names) != 2 || names[0] != "Bsub" || names[1] != "Asub" {
			t.Errorf("unexpected assembly names %v", names)
		}
	})

	t.Run("MCScan requires both beds", func(t *testing.T) {
		h := NewMCScanHandler(r, quietLogger())
		anchors := site.DataFile(t, "data/tracks/synteny/a.anchors.simple", "anchors")
		d := synteny("anc1", anchors)
		d.Bed1Path = site.DataFile(t, "data/tracks/synteny/a.bed", "bed")

		v, _ := h.Validate(d)
		if v.Valid || !strings.Contains(v.Reason(), "bed2 path") {
			t.Errorf("expected bed2 failure, got %+v", v)
		}

		d.Bed2Path = site.DataFile(t, "data/tracks/synteny/b.bed", "bed")
		art, err := h.Generate(d, d.Organism1, d.Assembly1, Options{DryRun: true})
		if err != nil {
			t.Fatal(err)
		}
		if art.Config.Adapter["type"] != "MCScanSimpleAnchorsAdapter" {
			t.Errorf("unexpected adapter %v", art.Config.Adapter["type"])
		}
		if _, ok := art.Config.Adapter["mcscanSimpleAnchorsLocation"]; !ok {
			t.Error("expected simple anchors location")
		}
	})

	t.Run("rejects regular descriptors", func(t *testing.T) {
		h := NewMAFHandler(r, quietLogger())
		if v, _ := h.Validate(track("x", "/x/a.maf")); v.Valid {
			t.Error("expected non-synteny descriptor to be invalid")
		}
	})

	t.Run("missing assemblies", func(t *testing.T) {
		h := NewPIFHandler(r, quietLogger())
		d := synteny("p1", "https://host/a.pif.gz")
		d.Assembly2 = ""
		v, _ := h.Validate(d)
		if v.Valid || !strings.Contains(v.Reason(), "assembly2 is required") {
			t.Errorf("expected assembly2 failure, got %+v", v)
		}
	})
}
