package release

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"torrentify/internal/discovery"
	"torrentify/internal/fileutil"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageMetadata Stage = "metadata"
	StagePackage  Stage = "package"
	StageLookup   Stage = "lookup"
)

// Stages lists the stages in execution order.
var Stages = []Stage{StageMetadata, StagePackage, StageLookup}

// StageState is the completion state of one stage.
type StageState int

const (
	Pending StageState = iota
	Done
)

func (s StageState) String() string {
	if s == Done {
		return "done"
	}
	return "pending"
}

// Status holds the state of every stage of an item.
type Status struct {
	Metadata StageState
	Package  StageState
	Lookup   StageState
}

// State returns the state of stage.
func (s Status) State(stage Stage) StageState {
	switch stage {
	case StageMetadata:
		return s.Metadata
	case StagePackage:
		return s.Package
	case StageLookup:
		return s.Lookup
	default:
		return Pending
	}
}

// Complete reports whether every stage is done.
func (s Status) Complete() bool {
	return s.Metadata == Done && s.Package == Done && s.Lookup == Done
}

// Pending lists the stages still to run, in execution order.
func (s Status) Pending() []Stage {
	var pending []Stage
	for _, stage := range Stages {
		if s.State(stage) == Pending {
			pending = append(pending, stage)
		}
	}
	return pending
}

// Status computes the stage states of item from its artifacts. The lookup
// stage is done only when the tag exists and the resolver reports it
// current: the not-found sentinel, or a tag backed by a valid cache entry.
// A pinned override id invalidates either when it disagrees.
func (p *Processor) Status(ctx context.Context, item discovery.Item) (Status, error) {
	a := ArtifactsFor(item)
	var status Status
	if fileutil.Exists(a.NFO) {
		status.Metadata = Done
	}
	if fileutil.Exists(a.Package) {
		status.Package = Done
	}

	tag, err := readTag(a.Tag)
	if err != nil {
		return Status{}, err
	}
	if tag == "" {
		return status, nil
	}
	current, err := p.resolver.TagCurrent(ctx, item, tag)
	if err != nil {
		return Status{}, err
	}
	if current {
		status.Lookup = Done
	}
	return status, nil
}

func readTag(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read tag %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
