package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/jbtracks/internal/shared"
	"github.com/urfave/cli/v3"
)

// PathsResolve prints where a sheet path points on disk and on the web.
func (r *Runner) PathsResolve(ctx context.Context, cmd *cli.Command) error {
	source := cmd.StringArg("path")
	if source == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	resolved, err := r.resolver.ResolveTrackPath(source, cmd.String("organism"), cmd.String("assembly"), cmd.String("auto-type"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(resolved, true)
	}
	r.writePlain("%s\n", resolved.Location)
	return nil
}

// PathsWeb maps a filesystem path under the site onto its web URI.
func (r *Runner) PathsWeb(ctx context.Context, cmd *cli.Command) error {
	fsPath := cmd.StringArg("path")
	if fsPath == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	uri, err := r.resolver.ToWebURI(fsPath)
	if err != nil {
		return err
	}
	r.writePlain("%s\n", uri)
	return nil
}

// PathsFS maps a web URI back onto the filesystem.
func (r *Runner) PathsFS(ctx context.Context, cmd *cli.Command) error {
	uri := cmd.StringArg("uri")
	if uri == "" {
		return fmt.Errorf("%w: uri", shared.ErrMissingArgument)
	}
	fsPath, err := r.resolver.ToFilesystemPath(uri)
	if err != nil {
		return err
	}
	r.writePlain("%s\n", fsPath)
	return nil
}

// PathsTrackDir prints the track data directory of a type, creating it if absent.
func (r *Runner) PathsTrackDir(ctx context.Context, cmd *cli.Command) error {
	organism, assembly, err := scope(cmd)
	if err != nil {
		return err
	}
	trackType := cmd.StringArg("type")
	if trackType == "" {
		return fmt.Errorf("%w: type", shared.ErrMissingArgument)
	}
	dir, err := r.resolver.TrackDirectory(organism, assembly, trackType)
	if err != nil {
		return err
	}
	r.writePlain("%s\n", dir)
	return nil
}
