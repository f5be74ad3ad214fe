package drivers

import (
	"bufio"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/UKHO/kluster/internal/errors"
	"github.com/UKHO/kluster/internal/intel"
)

// ReadSvp parses a Caris svp file. The format is a version banner followed
// by one or more cast sections:
//
//	[SVP_VERSION_2]
//	linename.svp
//	Section 2020-077 12:33:56 37:14:22.33 -76:04:11.82
//	0.000000 1489.120000
//	...
//
// Positions are degrees:minutes:seconds. Only the cast headers and layer
// pairs are read; everything else is ignored.
func ReadSvp(path string) (*intel.SvpRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput, "cannot open svp file", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() || !strings.Contains(strings.ToUpper(scanner.Text()), "SVP_VERSION") {
		return nil, errors.Newf(errors.CorruptSourceFile, "%s: missing svp version banner", path)
	}

	var profiles []intel.SvpProfile
	var current *intel.SvpProfile
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Section") {
			prof, err := parseSvpSection(line)
			if err != nil {
				return nil, errors.Wrapf(errors.CorruptSourceFile, err, "%s: bad cast header", path)
			}
			profiles = append(profiles, prof)
			current = &profiles[len(profiles)-1]
			continue
		}
		if current == nil {
			continue // preamble lines before the first section
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		depth, derr := strconv.ParseFloat(fields[0], 64)
		sv, serr := strconv.ParseFloat(fields[1], 64)
		if derr != nil || serr != nil {
			continue
		}
		current.Layers = append(current.Layers, [2]float64{depth, sv})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.CorruptSourceFile, "failed reading svp file", err)
	}
	if len(profiles) == 0 {
		return nil, errors.Newf(errors.CorruptSourceFile, "%s: no casts found", path)
	}

	info, err := basicFileInfo(path, "caris_svp")
	if err != nil {
		return nil, err
	}
	rec := &intel.SvpRecord{
		FileInfo:   info,
		Profiles:   profiles,
		SourceEPSG: 4326,
	}
	rec.UTMZone, rec.UTMHemisphere = utmZoneFromCasts(profiles)
	return rec, nil
}

// parseSvpSection parses "Section 2020-077 12:33:56 37:14:22.33 -76:04:11.82"
func parseSvpSection(line string) (intel.SvpProfile, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return intel.SvpProfile{}, errors.Newf(errors.InvalidInput, "expected 5 fields, got %d", len(fields))
	}

	julian := fields[1]
	castTime, err := time.Parse("2006-002 15:04:05", julian+" "+fields[2])
	if err != nil {
		return intel.SvpProfile{}, errors.Wrap(errors.InvalidInput, "bad cast timestamp", err)
	}
	lat, err := parseDMS(fields[3])
	if err != nil {
		return intel.SvpProfile{}, errors.Wrap(errors.InvalidInput, "bad latitude", err)
	}
	lon, err := parseDMS(fields[4])
	if err != nil {
		return intel.SvpProfile{}, errors.Wrap(errors.InvalidInput, "bad longitude", err)
	}
	return intel.SvpProfile{
		JulianDay: julian,
		TimeUTC:   castTime.UTC(),
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

// parseDMS converts "37:14:22.33" (degrees:minutes:seconds) to decimal
// degrees, preserving sign
func parseDMS(value string) (float64, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, errors.Newf(errors.InvalidInput, "expected deg:min:sec, got %q", value)
	}
	deg, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, err
	}
	min, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, err
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}
	sign := 1.0
	if strings.HasPrefix(strings.TrimSpace(parts[0]), "-") {
		sign = -1.0
		deg = math.Abs(deg)
	}
	return sign * (deg + min/60.0 + sec/3600.0), nil
}

// utmZoneFromCasts derives the UTM zone and hemisphere of the mean cast
// position
func utmZoneFromCasts(profiles []intel.SvpProfile) (int, string) {
	var sumLat, sumLon float64
	for _, p := range profiles {
		sumLat += p.Latitude
		sumLon += p.Longitude
	}
	lat := sumLat / float64(len(profiles))
	lon := sumLon / float64(len(profiles))

	zone := int(math.Floor((lon+180.0)/6.0)) + 1
	if zone < 1 {
		zone = 1
	}
	if zone > 60 {
		zone = 60
	}
	hemisphere := "N"
	if lat < 0 {
		hemisphere = "S"
	}
	return zone, hemisphere
}
