package drivers

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/UKHO/kluster/internal/errors"
)

const carisSvpText = `[SVP_VERSION_2]
profiles.svp
Section 2020-077 12:33:56 37:14:22.33 -76:04:11.82
0.000000 1489.120000
5.000000 1489.560000
10.000000 1488.910000
Section 2020-077 15:10:00 37:15:01.00 -76:05:30.50
0.000000 1490.000000
12.000000 1489.300000
`

func writeSvpFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.svp")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadSvp(t *testing.T) {
	rec, err := ReadSvp(writeSvpFile(t, carisSvpText))
	if err != nil {
		t.Fatal(err)
	}

	if rec.Type != "caris_svp" {
		t.Errorf("unexpected format tag %q", rec.Type)
	}
	if rec.NumberOfProfiles() != 2 {
		t.Fatalf("expected 2 casts, got %d", rec.NumberOfProfiles())
	}
	if layers := rec.NumberOfLayers(); layers[0] != 3 || layers[1] != 2 {
		t.Errorf("expected layer counts [3 2], got %v", layers)
	}

	first := rec.Profiles[0]
	if first.JulianDay != "2020-077" {
		t.Errorf("unexpected julian day %q", first.JulianDay)
	}
	want := time.Date(2020, 3, 17, 12, 33, 56, 0, time.UTC)
	if !first.TimeUTC.Equal(want) {
		t.Errorf("expected cast time %v, got %v", want, first.TimeUTC)
	}
	if math.Abs(first.Latitude-37.2395) > 0.001 {
		t.Errorf("unexpected latitude %f", first.Latitude)
	}
	if math.Abs(first.Longitude - -76.0699) > 0.001 {
		t.Errorf("unexpected longitude %f", first.Longitude)
	}
	if first.Layers[1] != [2]float64{5.0, 1489.56} {
		t.Errorf("unexpected layer %v", first.Layers[1])
	}

	if rec.SourceEPSG != 4326 {
		t.Errorf("expected EPSG 4326, got %d", rec.SourceEPSG)
	}
	if rec.UTMZone != 18 || rec.UTMHemisphere != "N" {
		t.Errorf("expected UTM 18N, got %d%s", rec.UTMZone, rec.UTMHemisphere)
	}

	casts := rec.CastTimes()
	if len(casts) != 2 || !casts[1].After(casts[0]) {
		t.Errorf("unexpected cast times %v", casts)
	}
}

func TestReadSvpMissingBanner(t *testing.T) {
	_, err := ReadSvp(writeSvpFile(t, "Section 2020-077 12:33:56 37:14:22.33 -76:04:11.82\n0 1489\n"))
	if !errors.HasCode(err, errors.CorruptSourceFile) {
		t.Fatalf("expected CorruptSourceFile, got %v", err)
	}
}

func TestReadSvpNoCasts(t *testing.T) {
	_, err := ReadSvp(writeSvpFile(t, "[SVP_VERSION_2]\nprofiles.svp\n"))
	if !errors.HasCode(err, errors.CorruptSourceFile) {
		t.Fatalf("expected CorruptSourceFile, got %v", err)
	}
}

func TestReadSvpBadCastHeader(t *testing.T) {
	_, err := ReadSvp(writeSvpFile(t, "[SVP_VERSION_2]\nSection not-a-date\n"))
	if !errors.HasCode(err, errors.CorruptSourceFile) {
		t.Fatalf("expected CorruptSourceFile, got %v", err)
	}
}

func TestParseDMSSouthernHemisphere(t *testing.T) {
	got, err := parseDMS("-33:51:35.90")
	if err != nil {
		t.Fatal(err)
	}
	if got >= 0 || math.Abs(got - -33.8600) > 0.001 {
		t.Errorf("unexpected value %f", got)
	}
}
