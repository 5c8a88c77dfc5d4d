package repository

import "errors"

// Sentinel kinds for sink errors.
var (
	ErrCSVWrite      = errors.New("csv history write failed")
	ErrCSVRead       = errors.New("csv history read failed")
	ErrInfluxWrite   = errors.New("influx write failed")
	ErrPostgresWrite = errors.New("postgres history write failed")
)
