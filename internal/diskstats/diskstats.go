package diskstats

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/diskctl/internal/errors"
)

const (
	// ProcPath is the kernel block statistics file
	ProcPath = "/proc/diskstats"

	// DevicePrefix turns a stats line's device name into a device path
	DevicePrefix = "/dev/"

	// Field layout of a stats line: major, minor, name, then the counters
	// of DeviceCounters. Shorter lines belong to older kernels or unknown
	// formats and are skipped.
	nameField  = 2
	fieldCount = 20
)

// Reader reads device counter snapshots from a kernel stats file
type Reader struct {
	path string
}

// NewReader returns a Reader for the given stats file path.
// Use ProcPath for the live kernel statistics.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Read returns a snapshot of the counters for the requested devices.
// Devices must be given as absolute paths ("/dev/sda"). Lines with too
// few fields or unparseable counters are skipped; devices missing from
// the stats file are absent from the result.
func (r *Reader) Read(devices []string) (Snapshot, error) {
	errFactory := errors.New()

	f, err := os.Open(r.path)
	if err != nil {
		return nil, errFactory.Wrap(ErrOpenStats, err)
	}
	defer f.Close()

	wanted := make(map[string]bool, len(devices))
	for _, device := range devices {
		wanted[device] = true
	}

	snapshot := make(Snapshot, len(devices))
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < fieldCount {
			continue
		}

		device := DevicePrefix + fields[nameField]
		if !wanted[device] {
			continue
		}

		counters, ok := parseCounters(fields)
		if !ok {
			continue
		}
		snapshot[device] = counters
	}
	if err := scanner.Err(); err != nil {
		return nil, errFactory.Wrap(ErrScanStats, err)
	}

	return snapshot, nil
}

func parseCounters(fields []string) (DeviceCounters, bool) {
	values := make([]uint64, 0, fieldCount-1)
	for i, field := range fields[:fieldCount] {
		if i == nameField {
			continue
		}
		value, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return DeviceCounters{}, false
		}
		values = append(values, value)
	}

	return DeviceCounters{
		Major:             values[0],
		Minor:             values[1],
		ReadsCompleted:    values[2],
		ReadsMerged:       values[3],
		SectorsRead:       values[4],
		ReadTimeMs:        values[5],
		WritesCompleted:   values[6],
		WritesMerged:      values[7],
		SectorsWritten:    values[8],
		WriteTimeMs:       values[9],
		IOInFlight:        values[10],
		IOTimeMs:          values[11],
		WeightedIOTimeMs:  values[12],
		DiscardsCompleted: values[13],
		DiscardsMerged:    values[14],
		SectorsDiscarded:  values[15],
		DiscardTimeMs:     values[16],
		FlushesCompleted:  values[17],
		FlushTimeMs:       values[18],
	}, true
}

// ResolveDevices canonicalizes the given device paths, following
// symlinks (/dev/disk/by-id, by-uuid) to their absolute targets.
func ResolveDevices(paths []string) ([]string, error) {
	errFactory := errors.New()

	resolved := make([]string, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, errFactory.Wrap(ErrResolveDevice, err).WithData(path)
		}
		target, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, errFactory.Wrap(ErrResolveDevice, err).WithData(path)
		}
		resolved = append(resolved, target)
	}

	return resolved, nil
}
