package service

import "math"

type Standing string

const (
	StandingGood     Standing = "GOOD"
	StandingWarning  Standing = "WARNING"
	StandingCritical Standing = "CRITICAL"
)

const (
	CriticalBelow = 65.0
	GoodFrom      = 75.0
)

// Counts: hitungan mentah record seorang siswa di satu enrollment.
type Counts struct {
	TotalSessions int64
	Present       int64
	Absent        int64
	Late          int64
	Excused       int64
}

type Stats struct {
	TotalSessions int64    `json:"totalSessions"`
	Present       int64    `json:"present"`
	Absent        int64    `json:"absent"`
	Late          int64    `json:"late"`
	Excused       int64    `json:"excused"`
	Unmarked      int64    `json:"unmarked"`
	Attended      int64    `json:"attended"`
	Percentage    float64  `json:"percentage"`
	Status        Standing `json:"status"`
}

// Calculate: murni, deterministik. LATE & EXCUSED dihitung hadir.
// Sesi tanpa record untuk siswa tetap masuk penyebut (dihitung tidak hadir).
func Calculate(c Counts) Stats {
	attended := c.Present + c.Late + c.Excused
	marked := attended + c.Absent

	unmarked := c.TotalSessions - marked
	if unmarked < 0 {
		unmarked = 0
	}

	pct := 0.0
	if c.TotalSessions > 0 {
		pct = Round2(float64(attended) / float64(c.TotalSessions) * 100)
	}

	return Stats{
		TotalSessions: c.TotalSessions,
		Present:       c.Present,
		Absent:        c.Absent,
		Late:          c.Late,
		Excused:       c.Excused,
		Unmarked:      unmarked,
		Attended:      attended,
		Percentage:    pct,
		Status:        Classify(pct),
	}
}

// Classify: batas atas tiap band inklusif (65 → WARNING, 75 → GOOD).
func Classify(pct float64) Standing {
	switch {
	case pct < CriticalBelow:
		return StandingCritical
	case pct < GoodFrom:
		return StandingWarning
	default:
		return StandingGood
	}
}

// SessionsNeeded: jumlah minimum sesi PRESENT berturut-turut agar mencapai 75%.
// (attended + x) / (total + x) = 0.75  →  x = (0.75*total - attended) / 0.25 = 3*total - 4*attended.
// Selalu >= 1.
func SessionsNeeded(totalSessions, attended int64) int64 {
	x := 3*totalSessions - 4*attended
	if x < 1 {
		return 1
	}
	return x
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
