package metrics

import "github.com/san-kum/debrisim/internal/dynamo"

// DeorbitFraction is the share of the run's orbiters that deorbited. It is
// both a metric and an observer: deorbit events never reach Observe.
type DeorbitFraction struct {
	name     string
	total    int
	deorbits int
}

func NewDeorbitFraction(total int) *DeorbitFraction {
	return &DeorbitFraction{
		name:  "deorbit_fraction",
		total: total,
	}
}

func (d *DeorbitFraction) Name() string                           { return d.name }
func (d *DeorbitFraction) Observe(t float64, b, ref *dynamo.Body) {}
func (d *DeorbitFraction) OnStep(t float64, b *dynamo.Body)       {}
func (d *DeorbitFraction) OnDeorbit(t float64, b *dynamo.Body)    { d.deorbits++ }

func (d *DeorbitFraction) Value() float64 {
	if d.total == 0 {
		return 0
	}
	return float64(d.deorbits) / float64(d.total)
}

func (d *DeorbitFraction) Reset() {
	d.deorbits = 0
}
