package rules

import (
	"context"
	"errors"

	"github.com/mrz1836/go-pranalyzer/internal/analysis"
)

var errBroken = errors.New("broken constructor")

type alphaRule struct{ meta Metadata }

func (r *alphaRule) Metadata() Metadata { return r.meta }

func (r *alphaRule) Analyze(context.Context, *analysis.Context) ([]analysis.Result, error) {
	return nil, nil
}

type betaRule struct{ meta Metadata }

func (r *betaRule) Metadata() Metadata { return r.meta }

func (r *betaRule) Analyze(context.Context, *analysis.Context) ([]analysis.Result, error) {
	return nil, nil
}

func alpha(meta Metadata) Factory {
	return func() (Rule, error) { return &alphaRule{meta: meta}, nil }
}

func beta(meta Metadata) Factory {
	return func() (Rule, error) { return &betaRule{meta: meta}, nil }
}

func broken() Factory {
	return func() (Rule, error) { return nil, errBroken }
}
