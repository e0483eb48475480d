package rillerr

import (
	"fmt"
	"log/slog"
)

// Errors accumulates RillErrors across the checking of sibling
// top-level items, so one broken function does not hide diagnostics
// for the rest of the module.
type Errors struct {
	errs []RillError
}

func (r *Errors) With(err ...RillError) *Errors {
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
	if err == nil || len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []RillError {
	if r == nil {
		return nil
	}
	return r.errs
}

// HasError reports whether any non-advisory error was collected.
func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	for _, e := range r.errs {
		if !IsAdvisory(e) {
			return true
		}
	}
	return false
}

// HasFatal reports whether any resource-limit error was collected;
// these abort the whole compilation unit.
func (r *Errors) HasFatal() bool {
	if r == nil {
		return false
	}
	for _, e := range r.errs {
		if e.Code() == ResourceLimit {
			return true
		}
	}
	return false
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
