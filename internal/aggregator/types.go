package aggregator

import (
	"fmt"
	"strings"
)

// Mode selects how the input path is interpreted.
type Mode string

const (
	// ModeAuto picks ModeDir for directories and ModeFile for everything else.
	ModeAuto Mode = "auto"
	// ModeFile reads one document whose root holds every class.
	ModeFile Mode = "file"
	// ModeDir walks a tree of one-class-per-file documents.
	ModeDir Mode = "dir"
)

// Schema versions stamped on the output. Each mode has a fixed literal.
const (
	FileModeVersion = "2.1.4"
	DirModeVersion  = "3.0.4"
)

// ParseMode converts a user-supplied string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAuto, ModeFile, ModeDir:
		return m, nil
	case "":
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("unknown mode %q (valid: auto, file, dir)", s)
	}
}

// Version returns the schema version literal for m.
func (m Mode) Version() string {
	if m == ModeFile {
		return FileModeVersion
	}
	return DirModeVersion
}

// Stats summarizes one aggregation run.
type Stats struct {
	Mode                  Mode
	FilesProcessed        int
	ClassesParsed         int
	DuplicatesReplaced    int
	CacheHits             int
	ProcessingTimeSeconds float64
}

// FileError ties a failure to the input file that caused it.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
