package bench

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// Report holds the counters and timings of one benchmark run.
type Report struct {
	Iterations int
	Workers    int

	SampleAttempts int // every FindRandomPoint call, retries included
	SampleFailures int // failed draws, each one retried

	PathFailures  int
	PartialPaths  int
	OutOfNodes    int // paths cut short by the node pool
	PathNodes     int // total nodes over all returned paths
	StraightPaths int
	Corners       int // total corners over all straight paths

	SampleTime   time.Duration // wall clock of the sampling phase
	PathTime     time.Duration // wall clock of the path phase
	sampleCalls  time.Duration // summed duration of the sampling calls
	pathCalls    time.Duration // summed duration of the path calls
	StraightTime time.Duration // summed duration of the straight path calls
}

func (r *Report) PartialPercent() float64 {
	if r.Iterations == 0 {
		return 0
	}
	return float64(r.PartialPaths) * 100 / float64(r.Iterations)
}

// SampleAvg is the mean time spent drawing one pair, retries included.
func (r *Report) SampleAvg() time.Duration {
	if r.Iterations == 0 {
		return 0
	}
	return r.sampleCalls / time.Duration(r.Iterations)
}

// PathAvg is the mean time of one FindPath call.
func (r *Report) PathAvg() time.Duration {
	if r.Iterations == 0 {
		return 0
	}
	return r.pathCalls / time.Duration(r.Iterations)
}

func (r *Report) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("iterations", r.Iterations)
	enc.AddInt("workers", r.Workers)
	enc.AddInt("sampleAttempts", r.SampleAttempts)
	enc.AddInt("sampleFailures", r.SampleFailures)
	enc.AddInt("pathFailures", r.PathFailures)
	enc.AddInt("partialPaths", r.PartialPaths)
	enc.AddFloat64("partialPercent", r.PartialPercent())
	enc.AddInt("outOfNodes", r.OutOfNodes)
	enc.AddDuration("sampleTime", r.SampleTime)
	enc.AddDuration("sampleAvg", r.SampleAvg())
	enc.AddDuration("pathTime", r.PathTime)
	enc.AddDuration("pathAvg", r.PathAvg())
	if r.StraightPaths > 0 {
		enc.AddInt("straightPaths", r.StraightPaths)
		enc.AddDuration("straightTime", r.StraightTime)
	}
	return nil
}

// accumulator collects the counters of one worker in one phase.
type accumulator struct {
	sampleAttempts int
	sampleFailures int
	pathFailures   int
	partialPaths   int
	outOfNodes     int
	pathNodes      int
	straightPaths  int
	corners        int
	sampleCalls    time.Duration
	pathCalls      time.Duration
	straightCalls  time.Duration
}

func (r *Report) add(acc *accumulator) {
	r.SampleAttempts += acc.sampleAttempts
	r.SampleFailures += acc.sampleFailures
	r.PathFailures += acc.pathFailures
	r.PartialPaths += acc.partialPaths
	r.OutOfNodes += acc.outOfNodes
	r.PathNodes += acc.pathNodes
	r.StraightPaths += acc.straightPaths
	r.Corners += acc.corners
	r.sampleCalls += acc.sampleCalls
	r.pathCalls += acc.pathCalls
	r.StraightTime += acc.straightCalls
}
