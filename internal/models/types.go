package models

import (
	"fmt"
	"time"
)

// Rule maps a subfolder name to a structure type
type Rule struct {
	FolderName    string `yaml:"foldername" json:"foldername"`
	StructureType string `yaml:"doctype" json:"doctype"`
}

// RuleSet holds the ordered folder rules of an import profile
type RuleSet struct {
	Prefix   []Rule
	Suffix   []Rule
	MainType string
}

// Assignment is a subfolder together with the structure type it resolved to
type Assignment struct {
	Folder        string
	StructureType string
	// CreateMetadata is set for main folders, which get a derived title and date
	CreateMetadata bool
}

// FolderPartition splits a subfolder listing into prefix, main and suffix groups
type FolderPartition struct {
	Prefix []Assignment
	Main   []Assignment
	Suffix []Assignment
}

// Ordered returns all assignments in processing order: prefix, main, suffix
func (p FolderPartition) Ordered() []Assignment {
	out := make([]Assignment, 0, p.Len())
	out = append(out, p.Prefix...)
	out = append(out, p.Main...)
	out = append(out, p.Suffix...)
	return out
}

// Len returns the number of folders in all three groups
func (p FolderPartition) Len() int {
	return len(p.Prefix) + len(p.Main) + len(p.Suffix)
}

// ImageAsset is a source image and the name it is stored under in the master directory
type ImageAsset struct {
	SourcePath      string
	DestinationName string
}

// UnitKind identifies the step a unit result belongs to
type UnitKind string

const (
	UnitKindFolder   UnitKind = "folder"
	UnitKindImage    UnitKind = "image"
	UnitKindMetadata UnitKind = "metadata"
	UnitKindCopy     UnitKind = "copy"
	UnitKindWrite    UnitKind = "write"
	UnitKindCommit   UnitKind = "commit"
)

// UnitStatus is the outcome of a single unit of work
type UnitStatus string

const (
	UnitStatusOK      UnitStatus = "ok"
	UnitStatusFailed  UnitStatus = "failed"
	UnitStatusSkipped UnitStatus = "skipped"
)

// UnitResult records the outcome of one folder, image or metadata operation
type UnitResult struct {
	Kind   UnitKind
	Status UnitStatus
	Folder string
	File   string
	Reason string
	Err    error
}

// RunReport collects the unit results of one import run
type RunReport struct {
	Folder    string
	StartedAt time.Time
	EndedAt   time.Time
	// NextPage is the running page index after the run, i.e. images processed + start index
	NextPage   int
	Structures int
	Pages      int
	Copied     int
	Units      []UnitResult
}

// OK records a successful unit
func (r *RunReport) OK(kind UnitKind, folder, file string) {
	r.Units = append(r.Units, UnitResult{Kind: kind, Status: UnitStatusOK, Folder: folder, File: file})
}

// Skip records a unit that was skipped on purpose
func (r *RunReport) Skip(kind UnitKind, folder, file, reason string) {
	r.Units = append(r.Units, UnitResult{Kind: kind, Status: UnitStatusSkipped, Folder: folder, File: file, Reason: reason})
}

// Fail records a recoverable failure
func (r *RunReport) Fail(kind UnitKind, folder, file string, err error) {
	r.Units = append(r.Units, UnitResult{
		Kind:   kind,
		Status: UnitStatusFailed,
		Folder: folder,
		File:   file,
		Reason: err.Error(),
		Err:    err,
	})
}

// Failures returns all failed units
func (r *RunReport) Failures() []UnitResult {
	var failed []UnitResult
	for _, u := range r.Units {
		if u.Status == UnitStatusFailed {
			failed = append(failed, u)
		}
	}
	return failed
}

// Summary returns a one-line description of the run
func (r *RunReport) Summary() string {
	return fmt.Sprintf("%d structures, %d pages, %d images copied, %d failures",
		r.Structures, r.Pages, r.Copied, len(r.Failures()))
}
