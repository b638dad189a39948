package diag

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"boilerctl/internal/control"
)

// Text renders a status the way the front panel lays it out:
//
//	ESPRESSO 93C | 91.25C HEATING
func Text(s control.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %.0fC | %.2fC", s.Mode, s.Setpoint, s.Temperature)
	if s.Heating {
		b.WriteString(" HEATING")
	}
	if s.Fault != control.FaultNone {
		fmt.Fprintf(&b, " FAULT:%s", s.Fault)
	}
	return b.String()
}

// LogDisplay stands in for a front panel on headless installs. Mode, target
// and fault changes are logged immediately; otherwise a status line is
// logged every Period.
type LogDisplay struct {
	Period time.Duration

	log  *zap.Logger
	now  func() time.Time
	last control.Status
	seen bool
	at   time.Time
}

func NewLogDisplay(log *zap.Logger, period time.Duration) *LogDisplay {
	if log == nil {
		log = zap.NewNop()
	}
	if period <= 0 {
		period = 5 * time.Second
	}
	return &LogDisplay{Period: period, log: log, now: time.Now}
}

func (d *LogDisplay) Show(s control.Status) {
	now := d.now()
	changed := !d.seen ||
		s.Mode != d.last.Mode ||
		s.Setpoint != d.last.Setpoint ||
		s.Fault != d.last.Fault
	if !changed && now.Sub(d.at) < d.Period {
		d.last = s
		return
	}
	d.seen = true
	d.last = s
	d.at = now
	d.log.Info(Text(s),
		zap.Stringer("mode", s.Mode),
		zap.Float64("setpoint_c", s.Setpoint),
		zap.Float64("temp_c", s.Temperature),
		zap.Bool("heating", s.Heating),
		zap.Stringer("fault", s.Fault))
}
