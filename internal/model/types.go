// Package model defines shared data structures.
package model

import "time"

// Config defines roll command settings.
type Config struct {
	Times     int
	Seed      uint64
	HasSeed   bool
	Verbose   bool
	NoColor   bool
	NoHistory bool
}

// HistoryConfig defines filters for history queries.
type HistoryConfig struct {
	Notation string
	Since    *time.Time
	Last     int
}

// RollRecord captures one completed roll for persistence.
type RollRecord struct {
	ID          string
	RolledAt    time.Time
	Notation    string
	Seed        uint64
	Total       int
	Breakdown   string
	DiceKept    int
	DiceDropped int
}

// RollAggregate summarizes the history of one notation.
type RollAggregate struct {
	Notation string
	Count    int
	Min      int
	Max      int
	Mean     float64
}
