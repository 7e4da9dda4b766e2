package diskstats

// DeviceCounters holds one device's I/O counters as exposed by the kernel
// block layer. All counters are monotonically non-decreasing while the
// device is in use; wraparound is not handled.
type DeviceCounters struct {
	Major             uint64
	Minor             uint64
	ReadsCompleted    uint64
	ReadsMerged       uint64
	SectorsRead       uint64
	ReadTimeMs        uint64
	WritesCompleted   uint64
	WritesMerged      uint64
	SectorsWritten    uint64
	WriteTimeMs       uint64
	IOInFlight        uint64
	IOTimeMs          uint64
	WeightedIOTimeMs  uint64
	DiscardsCompleted uint64
	DiscardsMerged    uint64
	SectorsDiscarded  uint64
	DiscardTimeMs     uint64
	FlushesCompleted  uint64
	FlushTimeMs       uint64
}

// Snapshot maps a device path to its counters at one point in time.
type Snapshot map[string]DeviceCounters

// Source provides point-in-time counter snapshots for a device set
type Source interface {
	Read(devices []string) (Snapshot, error)
}
