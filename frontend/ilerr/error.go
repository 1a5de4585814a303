package ilerr

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
)

type Errors struct {
	errs []IleError
}

func (r *Errors) With(err ...IleError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil {
		return r
	}
	if len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []IleError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return len(r.errs) > 0
}

// Codes returns the code of every error, in order
func (r *Errors) Codes() []ErrCode {
	codes := make([]ErrCode, 0, len(r.Errors()))
	for _, e := range r.Errors() {
		codes = append(codes, e.Code())
	}
	return codes
}

// Sorted returns the errors ordered by source position, keeping insertion
// order for errors at the same position
func (r *Errors) Sorted() []IleError {
	sorted := slices.Clone(r.Errors())
	slices.SortStableFunc(sorted, func(a, b IleError) int {
		return cmp.Compare(a.Pos(), b.Pos())
	})
	return sorted
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
			),
		})
	}
	return slog.GroupValue(vals...)
}
