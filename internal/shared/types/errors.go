package types

import "errors"

var (
	ErrMissingBucket = errors.New("no CUR bucket configured. Set CUR_BUCKET or pass --bucket")
	ErrMissingPrefix = errors.New("no CUR prefix configured. Set CUR_PREFIX or pass --prefix")
	ErrNoData        = errors.New("no CUR data found for the specified date range")
)
