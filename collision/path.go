package collision

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/collisionspace/referenceframe"
	"go.viam.com/collisionspace/utils"
)

// stepTolerance absorbs floating point noise when dividing a joint motion into increments.
const stepTolerance = 1e-6

// InterpolationFunc returns steps+1 configurations from `from` to `to`, both included.
type InterpolationFunc func(from, to []referenceframe.Input, steps int) ([][]referenceframe.Input, error)

// LinearInterpolation interpolates every joint as if it were bounded.
func LinearInterpolation(from, to []referenceframe.Input, steps int) ([][]referenceframe.Input, error) {
	if len(from) != len(to) {
		return nil, NewConfigurationSizeError(len(to), len(from))
	}
	if steps < 1 {
		return nil, errors.Errorf("interpolation needs at least one step, got %d", steps)
	}
	path := make([][]referenceframe.Input, 0, steps+1)
	for i := 0; i <= steps; i++ {
		path = append(path, referenceframe.InterpolateInputs(from, to, float64(i)/float64(steps)))
	}
	return path, nil
}

// NewJointInterpolator returns an interpolation function that moves continuous joints along the shorter arc and
// wraps their values into (-pi, pi].
func NewJointInterpolator(continuous []bool) InterpolationFunc {
	return func(from, to []referenceframe.Input, steps int) ([][]referenceframe.Input, error) {
		if len(from) != len(continuous) {
			return nil, NewConfigurationSizeError(len(from), len(continuous))
		}
		if len(to) != len(continuous) {
			return nil, NewConfigurationSizeError(len(to), len(continuous))
		}
		if steps < 1 {
			return nil, errors.Errorf("interpolation needs at least one step, got %d", steps)
		}
		diffs := jointDiffs(from, to, continuous)
		path := make([][]referenceframe.Input, 0, steps+1)
		for i := 0; i <= steps; i++ {
			by := float64(i) / float64(steps)
			q := make([]referenceframe.Input, len(from))
			for j := range from {
				v := from[j].Value + diffs[j]*by
				if continuous[j] {
					v = utils.NormalizeAngle(v)
				}
				q[j] = referenceframe.Input{Value: v}
			}
			path = append(path, q)
		}
		return path, nil
	}
}

// jointDiffs returns the signed motion of each joint, taking the shorter arc for continuous joints.
func jointDiffs(from, to []referenceframe.Input, continuous []bool) []float64 {
	diffs := make([]float64, len(from))
	for j := range from {
		if continuous[j] {
			diffs[j] = utils.ShortestAngularDistance(from[j].Value, to[j].Value)
		} else {
			diffs[j] = to[j].Value - from[j].Value
		}
	}
	return diffs
}

// PathOptions tune a path check.
type PathOptions struct {
	CheckOptions
	// ReturnPath includes the sampled configurations in the result.
	ReturnPath bool
}

// PathResult is the outcome of checking a path.
type PathResult struct {
	Valid bool
	// PathLength is the number of samples up to and including the first invalid one, or every sample when the path
	// is valid.
	PathLength int
	// NumChecks is the number of samples checked.
	NumChecks int
	// Distance is the smallest distance, in cells, over the checked samples.
	Distance float64
	Path     [][]referenceframe.Input
}

// InterpolatePath samples the motion from start to end, both included.
func (s *Space) InterpolatePath(start, end []referenceframe.Input) ([][]referenceframe.Input, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateInputs(start); err != nil {
		return nil, err
	}
	if err := s.validateInputs(end); err != nil {
		return nil, err
	}
	return s.interpolate(start, end)
}

func (s *Space) interpolate(start, end []referenceframe.Input) ([][]referenceframe.Input, error) {
	steps := s.numSteps
	if s.interpolationMode == InterpolationIncrement {
		continuous := make([]bool, len(s.joints))
		for j, joint := range s.joints {
			continuous[j] = joint.Continuous
		}
		steps = 0
		for j, d := range jointDiffs(start, end, continuous) {
			n := int(utils.CeilWithTolerance(math.Abs(d)/s.joints[j].MaxStep, stepTolerance))
			steps = utils.MaxInt(steps, n)
		}
		steps = utils.MaxInt(steps, 1)
	}
	path, err := s.interpolator(start, end, steps)
	if err != nil {
		return nil, errors.Wrap(err, "failed to interpolate path")
	}
	if len(path) == 0 {
		return nil, errors.New("interpolation produced an empty path")
	}
	return path, nil
}

// CheckPath samples the motion from start to end and checks each sample in order, stopping at the first invalid
// one.
func (s *Space) CheckPath(start, end []referenceframe.Input, opts PathOptions) (*PathResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateInputs(start); err != nil {
		return nil, err
	}
	if err := s.validateInputs(end); err != nil {
		return nil, err
	}
	if err := s.prepareGrid(); err != nil {
		return nil, err
	}
	path, err := s.interpolate(start, end)
	if err != nil {
		return nil, err
	}

	result := &PathResult{Valid: true, Distance: math.Inf(1)}
	if opts.ReturnPath {
		result.Path = path
	}
	for i, q := range path {
		if len(q) != len(s.joints) {
			return nil, NewConfigurationSizeError(len(q), len(s.joints))
		}
		res, err := s.check(q, opts.CheckOptions)
		if err != nil {
			return nil, err
		}
		result.NumChecks = i + 1
		result.Distance = math.Min(result.Distance, res.Distance)
		s.colliding = res.Colliding
		if !res.Valid {
			result.Valid = false
			if opts.Verbose {
				s.logger.Infow("path in collision", "sample", i+1, "samples", len(path), "distance", res.Distance)
			}
			break
		}
	}
	result.PathLength = result.NumChecks
	return result, nil
}

// IsStateToStateValid reports whether the motion from start to end is collision free.
func (s *Space) IsStateToStateValid(start, end []referenceframe.Input) (*PathResult, error) {
	return s.CheckPath(start, end, PathOptions{})
}
