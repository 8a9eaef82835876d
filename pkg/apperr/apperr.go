// Package apperr defines the stage-tagged errors a conversion run can fail with.
// Every failure carries the stage that produced it so the entry point can report
// it and pick an exit status without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
)

// Stage names the part of a run that failed.
type Stage string

const (
	StageConfig  Stage = "config"
	StageNetwork Stage = "network"
	StageParse   Stage = "parse"
	StageWrite   Stage = "write"
)

// Sentinels for errors.Is matching by stage.
var (
	ErrConfig  = errors.New("config error")
	ErrNetwork = errors.New("network error")
	ErrParse   = errors.New("parse error")
	ErrWrite   = errors.New("write error")
)

// Exit statuses. 1 is left for failures outside the taxonomy.
const (
	ExitOK      = 0
	ExitUnknown = 1
	ExitConfig  = 2
	ExitNetwork = 3
	ExitParse   = 4
	ExitWrite   = 5
)

// Error wraps a cause with the stage and operation it happened in.
type Error struct {
	Stage Stage
	Op    string
	Err   error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Stage, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the stage sentinel, so errors.Is(err, ErrNetwork) works through wrapping.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Stage)
}

func sentinel(s Stage) error {
	switch s {
	case StageConfig:
		return ErrConfig
	case StageNetwork:
		return ErrNetwork
	case StageParse:
		return ErrParse
	case StageWrite:
		return ErrWrite
	}
	return nil
}

func newError(stage Stage, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Stage: stage, Op: op, Err: err}
}

func Config(op string, err error) error  { return newError(StageConfig, op, err) }
func Network(op string, err error) error { return newError(StageNetwork, op, err) }
func Parse(op string, err error) error   { return newError(StageParse, op, err) }
func Write(op string, err error) error   { return newError(StageWrite, op, err) }

// StageOf returns the stage of the first *Error in err's chain.
func StageOf(err error) (Stage, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage, true
	}
	return "", false
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	stage, ok := StageOf(err)
	if !ok {
		return ExitUnknown
	}
	switch stage {
	case StageConfig:
		return ExitConfig
	case StageNetwork:
		return ExitNetwork
	case StageParse:
		return ExitParse
	case StageWrite:
		return ExitWrite
	}
	return ExitUnknown
}
