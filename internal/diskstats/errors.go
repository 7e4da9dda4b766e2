package diskstats

import "codeberg.org/mutker/diskctl/internal/errors"

const (
	ErrOpenStats     = errors.ErrorCode("diskstats_open_failed")
	ErrScanStats     = errors.ErrorCode("diskstats_scan_failed")
	ErrResolveDevice = errors.ErrorCode("diskstats_resolve_device_failed")
)
