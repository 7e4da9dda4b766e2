package power

import "codeberg.org/mutker/diskctl/internal/errors"

const (
	ErrRereadStats = errors.ErrorCode("power_reread_stats_failed")
)
