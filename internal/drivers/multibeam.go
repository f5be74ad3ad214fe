package drivers

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/UKHO/kluster/internal/errors"
	"github.com/UKHO/kluster/internal/intel"
	"github.com/UKHO/kluster/internal/paths"
)

// ReadMultibeam dispatches to the raw-format reader for the file extension
func ReadMultibeam(path string) (*intel.MultibeamRecord, error) {
	switch paths.Ext(path) {
	case ".kmall":
		return ReadKmall(path)
	case ".all":
		return ReadAll(path)
	}
	return nil, errors.Newf(errors.UnsupportedFormat, "no multibeam reader for %s", path)
}

// kmallHeader is the 20 byte header every kmall datagram starts with
type kmallHeader struct {
	NumBytes      uint32
	DgmType       [4]byte
	Version       uint8
	SystemID      uint8
	EchoSounderID uint16
	TimeSec       uint32
	TimeNanosec   uint32
}

const kmallHeaderSize = 20

// ReadKmall reads the header metadata of a Kongsberg kmall file. Start time
// and sonar model come from the first datagram; serial numbers from the
// #IIP installation text; end time from the last datagram, located via the
// repeated length trailer every kmall datagram carries.
func ReadKmall(path string) (*intel.MultibeamRecord, error) {
	info, err := basicFileInfo(path, "kongsberg_kmall")
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput, "cannot open kmall file", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput, "cannot stat kmall file", err)
	}

	first, err := readKmallHeader(f, 0, st.Size())
	if err != nil {
		return nil, errors.Wrapf(errors.CorruptSourceFile, err, "%s: bad first datagram", path)
	}

	rec := &intel.MultibeamRecord{
		FileInfo:     info,
		DataStartUTC: kmallTime(first),
		SonarModel:   "em" + strconv.Itoa(int(first.EchoSounderID)),
	}

	if err := scanKmallInstallation(f, st.Size(), rec); err != nil {
		return nil, errors.Wrapf(errors.CorruptSourceFile, err, "%s: bad installation datagram", path)
	}

	last, err := readLastKmallHeader(f, st.Size())
	if err != nil {
		return nil, errors.Wrapf(errors.CorruptSourceFile, err, "%s: bad last datagram", path)
	}
	rec.DataEndUTC = kmallTime(last)
	if rec.DataEndUTC.Before(rec.DataStartUTC) {
		return nil, errors.Newf(errors.CorruptSourceFile,
			"%s: data end %s precedes data start %s", path, rec.DataEndUTC, rec.DataStartUTC)
	}
	return rec, nil
}

func readKmallHeader(f *os.File, offset, fileSize int64) (kmallHeader, error) {
	var hdr kmallHeader
	var buf [kmallHeaderSize]byte
	if _, err := f.ReadAt(buf[:], offset); err != nil {
		return hdr, err
	}
	hdr.NumBytes = binary.LittleEndian.Uint32(buf[0:4])
	copy(hdr.DgmType[:], buf[4:8])
	hdr.Version = buf[8]
	hdr.SystemID = buf[9]
	hdr.EchoSounderID = binary.LittleEndian.Uint16(buf[10:12])
	hdr.TimeSec = binary.LittleEndian.Uint32(buf[12:16])
	hdr.TimeNanosec = binary.LittleEndian.Uint32(buf[16:20])

	if hdr.DgmType[0] != '#' {
		return hdr, fmt.Errorf("datagram type %q does not start with '#'", hdr.DgmType)
	}
	if int64(hdr.NumBytes) < kmallHeaderSize+4 || offset+int64(hdr.NumBytes) > fileSize {
		return hdr, fmt.Errorf("datagram length %d out of bounds", hdr.NumBytes)
	}
	return hdr, nil
}

// scanKmallInstallation walks the leading datagrams looking for #IIP and
// pulls the serial numbers out of its installation text. Installation
// datagrams sit at the front of the file; the scan gives up after a bounded
// number of datagrams rather than walking gigabytes of soundings.
func scanKmallInstallation(f *os.File, fileSize int64, rec *intel.MultibeamRecord) error {
	offset := int64(0)
	for i := 0; i < 64 && offset < fileSize; i++ {
		hdr, err := readKmallHeader(f, offset, fileSize)
		if err != nil {
			return err
		}
		if string(hdr.DgmType[:]) == "#IIP" {
			body := make([]byte, int(hdr.NumBytes)-kmallHeaderSize-4)
			if _, err := f.ReadAt(body, offset+kmallHeaderSize); err != nil {
				return err
			}
			rec.PrimarySerial, rec.SecondarySerial = parseInstallSerials(string(body))
			return nil
		}
		offset += int64(hdr.NumBytes)
	}
	return fmt.Errorf("no #IIP installation datagram in the leading datagrams")
}

// parseInstallSerials extracts serial numbers from installation text of the
// form "...,SN=40111,...". The first occurrence is the primary head, the
// second (dual head systems) the secondary.
func parseInstallSerials(text string) (int, int) {
	var serials []int
	rest := text
	for {
		idx := strings.Index(rest, "SN=")
		if idx < 0 {
			break
		}
		rest = rest[idx+3:]
		end := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
		token := rest
		if end >= 0 {
			token = rest[:end]
		}
		if sn, err := strconv.Atoi(token); err == nil {
			serials = append(serials, sn)
		}
	}
	primary, secondary := 0, 0
	if len(serials) > 0 {
		primary = serials[0]
	}
	if len(serials) > 1 {
		secondary = serials[1]
	}
	return primary, secondary
}

func readLastKmallHeader(f *os.File, fileSize int64) (kmallHeader, error) {
	var trailer [4]byte
	if _, err := f.ReadAt(trailer[:], fileSize-4); err != nil {
		return kmallHeader{}, err
	}
	lastLen := int64(binary.LittleEndian.Uint32(trailer[:]))
	if lastLen < kmallHeaderSize+4 || lastLen > fileSize {
		return kmallHeader{}, fmt.Errorf("trailer length %d out of bounds", lastLen)
	}
	hdr, err := readKmallHeader(f, fileSize-lastLen, fileSize)
	if err != nil {
		return hdr, err
	}
	if int64(hdr.NumBytes) != lastLen {
		return hdr, fmt.Errorf("trailer length %d does not match header length %d", lastLen, hdr.NumBytes)
	}
	return hdr, nil
}

func kmallTime(hdr kmallHeader) time.Time {
	return time.Unix(int64(hdr.TimeSec), int64(hdr.TimeNanosec)).UTC()
}

// allHeader is the fixed part every .all datagram starts with, after the
// 4 byte length field
type allHeader struct {
	NumBytes uint32 // excludes the length field itself
	Type     uint8
	EMModel  uint16
	Date     uint32 // YYYYMMDD
	TimeMs   uint32 // milliseconds since midnight
	Counter  uint16
	Serial   uint16
}

const (
	allStx               = 0x02
	allFixedHeaderSize   = 16 // bytes after the length field
	allInstallationStart = 0x49
)

// ReadAll reads the header metadata of a Kongsberg .all file. The format
// has no datagram trailer, so the end time comes from a forward header-seek
// scan that skips every payload.
func ReadAll(path string) (*intel.MultibeamRecord, error) {
	info, err := basicFileInfo(path, "kongsberg_all")
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput, "cannot open all file", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput, "cannot stat all file", err)
	}

	first, err := readAllHeader(f, 0, st.Size())
	if err != nil {
		return nil, errors.Wrapf(errors.CorruptSourceFile, err, "%s: bad first datagram", path)
	}

	rec := &intel.MultibeamRecord{
		FileInfo:      info,
		DataStartUTC:  allTime(first),
		PrimarySerial: int(first.Serial),
		SonarModel:    "em" + strconv.Itoa(int(first.EMModel)),
	}

	// Walk the datagram chain, remembering the last valid header. The
	// installation start datagram carries the second sonar head's serial
	// right after the fixed header.
	offset := int64(0)
	last := first
	for {
		hdr, err := readAllHeader(f, offset, st.Size())
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(errors.CorruptSourceFile, err,
				"%s: bad datagram at offset %d", path, offset)
		}
		last = hdr
		if hdr.Type == allInstallationStart && rec.SecondarySerial == 0 {
			var buf [2]byte
			if _, err := f.ReadAt(buf[:], offset+4+allFixedHeaderSize); err == nil {
				rec.SecondarySerial = int(binary.LittleEndian.Uint16(buf[:]))
			}
		}
		offset += 4 + int64(hdr.NumBytes)
		if offset >= st.Size() {
			break
		}
	}

	rec.DataEndUTC = allTime(last)
	if rec.DataEndUTC.Before(rec.DataStartUTC) {
		return nil, errors.Newf(errors.CorruptSourceFile,
			"%s: data end %s precedes data start %s", path, rec.DataEndUTC, rec.DataStartUTC)
	}
	return rec, nil
}

func readAllHeader(f *os.File, offset, fileSize int64) (allHeader, error) {
	var hdr allHeader
	if offset+4+allFixedHeaderSize > fileSize {
		return hdr, io.EOF
	}
	var buf [4 + allFixedHeaderSize]byte
	if _, err := f.ReadAt(buf[:], offset); err != nil {
		return hdr, err
	}
	hdr.NumBytes = binary.LittleEndian.Uint32(buf[0:4])
	if buf[4] != allStx {
		return hdr, fmt.Errorf("missing STX marker")
	}
	hdr.Type = buf[5]
	hdr.EMModel = binary.LittleEndian.Uint16(buf[6:8])
	hdr.Date = binary.LittleEndian.Uint32(buf[8:12])
	hdr.TimeMs = binary.LittleEndian.Uint32(buf[12:16])
	hdr.Counter = binary.LittleEndian.Uint16(buf[16:18])
	hdr.Serial = binary.LittleEndian.Uint16(buf[18:20])

	if int64(hdr.NumBytes) < allFixedHeaderSize || offset+4+int64(hdr.NumBytes) > fileSize {
		return hdr, fmt.Errorf("datagram length %d out of bounds", hdr.NumBytes)
	}
	return hdr, nil
}

func allTime(hdr allHeader) time.Time {
	year := int(hdr.Date / 10000)
	month := time.Month(hdr.Date / 100 % 100)
	day := int(hdr.Date % 100)
	base := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(hdr.TimeMs) * time.Millisecond)
}
