// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package goaten

import "github.com/pacujo/goaten/internal/obslog"

// diskOptions holds configuration options for Disk creation. This has no
// file/env config surface (spec.md §6: "no CLI, no file formats"); the
// functional-options pattern below is the entire configuration surface.
type diskOptions struct {
	log                  *obslog.Logger
	immediateBudget      int
	fdEventBudget        int
	wakeupPipe           bool
}

// DiskOption configures a Disk instance.
type DiskOption interface {
	applyDisk(*diskOptions) error
}

type diskOptionFunc func(*diskOptions) error

func (f diskOptionFunc) applyDisk(o *diskOptions) error { return f(o) }

// WithLogger installs a structured logger (see internal/obslog) for trace,
// debug, and error diagnostics. Defaults to a disabled logger.
func WithLogger(log *obslog.Logger) DiskOption {
	return diskOptionFunc(func(o *diskOptions) error {
		o.log = log
		return nil
	})
}

// WithStarvationBudgets overrides the per-iteration starvation bounds.
// spec.md §4.1/§8 fix both at 20; this option exists for tests that need to
// exercise the starvation-bound invariant at a smaller scale. A
// non-positive value leaves that bound unchanged (20 unless an earlier
// option set it).
func WithStarvationBudgets(immediate, fdEvents int) DiskOption {
	return diskOptionFunc(func(o *diskOptions) error {
		if immediate > 0 {
			o.immediateBudget = immediate
		}
		if fdEvents > 0 {
			o.fdEventBudget = fdEvents
		}
		return nil
	})
}

// WithWakeupPipe installs the cross-thread wake-up pipe when the Disk is
// constructed. Without it, the pipe is installed on entry to ProtectedLoop
// (which MainLoop also runs through), so a Disk driven only by Poll or
// Flush has none.
func WithWakeupPipe(enabled bool) DiskOption {
	return diskOptionFunc(func(o *diskOptions) error {
		o.wakeupPipe = enabled
		return nil
	})
}

// resolveDiskOptions applies DiskOption instances to diskOptions.
func resolveDiskOptions(opts []DiskOption) (*diskOptions, error) {
	cfg := &diskOptions{
		log:             obslog.Default(),
		immediateBudget: 20,
		fdEventBudget:   20,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyDisk(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
