package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"boilerctl/internal/diag"
)

// logSummary condenses a recorded diagnostic stream. Every header line starts
// a new segment (one per controller run).
type logSummary struct {
	Segments     int
	Records      int
	Invalid      int
	MinTemp      float64
	MaxTemp      float64
	MeanPower    float64
	MaxOvershoot float64
	TargetCounts map[float64]int
}

func summarizeDiagLog(r io.Reader) (logSummary, error) {
	s := logSummary{TargetCounts: map[float64]int{}}
	header := strings.TrimSpace(diag.Header)
	powerSum := 0.0
	hasRecords := false

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == header {
			s.Segments++
			continue
		}
		temp, power, target, ok := parseRecordLine(line)
		if !ok {
			s.Invalid++
			continue
		}
		if !hasRecords {
			s.MinTemp, s.MaxTemp = temp, temp
			s.MaxOvershoot = math.Inf(-1)
			hasRecords = true
		}
		s.Records++
		s.MinTemp = math.Min(s.MinTemp, temp)
		s.MaxTemp = math.Max(s.MaxTemp, temp)
		s.MaxOvershoot = math.Max(s.MaxOvershoot, temp-target)
		powerSum += power
		s.TargetCounts[target]++
	}
	if err := sc.Err(); err != nil {
		return logSummary{}, err
	}
	if s.Segments == 0 && hasRecords {
		s.Segments = 1
	}
	if s.Records > 0 {
		s.MeanPower = powerSum / float64(s.Records)
	}
	return s, nil
}

func parseRecordLine(line string) (temp, power, target float64, ok bool) {
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return 0, 0, 0, false
	}
	var vals [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return 0, 0, 0, false
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], true
}

func summarizeFile(path string) (logSummary, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return logSummary{}, fmt.Errorf("path is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return logSummary{}, err
	}
	defer f.Close()
	return summarizeDiagLog(f)
}

func (s logSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "segments: %d\n", s.Segments)
	fmt.Fprintf(&b, "records: %d\n", s.Records)
	fmt.Fprintf(&b, "invalid_lines: %d\n", s.Invalid)
	if s.Records == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "temp_c: min=%.2f max=%.2f\n", s.MinTemp, s.MaxTemp)
	fmt.Fprintf(&b, "mean_power_pct: %.2f\n", s.MeanPower)
	fmt.Fprintf(&b, "max_overshoot_c: %.2f\n", s.MaxOvershoot)

	targets := make([]float64, 0, len(s.TargetCounts))
	for k := range s.TargetCounts {
		targets = append(targets, k)
	}
	sort.Float64s(targets)
	b.WriteString("target_counts:\n")
	for _, k := range targets {
		fmt.Fprintf(&b, "  %.2f: %d\n", k, s.TargetCounts[k])
	}
	return b.String()
}
