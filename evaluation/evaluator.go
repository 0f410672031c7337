package evaluation

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/mo"
)

type GoodnessFunction[Input, Output any] func(input Input, output Output, err error) float64

type Options[Input, Output any] struct {
	GoodnessFunction GoodnessFunction[Input, Output]
	Repetitions      int
}

type Tester[Input, Output any] interface {
	Test(ctx context.Context, test Input) (Output, error)
}

type Evaluator[Input, Output any] struct {
	options *Options[Input, Output]
	tester  Tester[Input, Output]
}

func NewEvaluator[Input, Output any](tester Tester[Input, Output], options *Options[Input, Output]) *Evaluator[Input, Output] {
	return &Evaluator[Input, Output]{
		options: options,
		tester:  tester,
	}
}

// Evaluate runs the test pack Repetitions times concurrently and returns the
// mean goodness of every test case.
func (e *Evaluator[Input, Output]) Evaluate(ctx context.Context, testPack []Input) ([]float64, error) {
	if e.options.Repetitions < 1 {
		return nil, fmt.Errorf("repetitions must be at least 1, got %d", e.options.Repetitions)
	}
	channels := make([]chan mo.Result[[]float64], e.options.Repetitions)

	for i := 0; i < e.options.Repetitions; i++ {
		channels[i] = make(chan mo.Result[[]float64], 1)
		go func(i int) {
			channels[i] <- mo.TupleToResult(e.evaluate(ctx, testPack))
		}(i)
	}

	var errs *multierror.Error
	responses := make([][]float64, 0, e.options.Repetitions)
	for i := 0; i < e.options.Repetitions; i++ {
		report, err := (<-channels[i]).Get()
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("repetition %d: %w", i, err))
			continue
		}
		responses = append(responses, report)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	report := make([]float64, len(testPack))
	for i := 0; i < len(testPack); i++ {
		sum := 0.0
		for _, response := range responses {
			sum += response[i]
		}
		report[i] = sum / float64(len(responses))
	}

	return report, nil
}

func (e *Evaluator[Input, Output]) evaluate(ctx context.Context, testPack []Input) ([]float64, error) {
	responses, err := e.test(ctx, testPack)
	if err != nil {
		return nil, fmt.Errorf("failed to test: %w", err)
	}

	report := make([]float64, len(testPack))
	for i, response := range responses {
		res, resErr := response.Get()
		report[i] = e.options.GoodnessFunction(testPack[i], res, resErr)
	}

	return report, nil
}

func (e *Evaluator[Input, Output]) test(ctx context.Context, testPack []Input) ([]mo.Result[Output], error) {
	responses := make([]mo.Result[Output], len(testPack))

	for i, test := range testPack {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		responses[i] = mo.TupleToResult(e.tester.Test(ctx, test))
	}

	return responses, nil
}
