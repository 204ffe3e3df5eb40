package tasks

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jbtracks/internal/handlers"
	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/paths"
	"github.com/desertthunder/jbtracks/internal/services"
	"github.com/desertthunder/jbtracks/internal/shared"
)

// Options configures a generator.
type Options struct {
	Resolver *paths.Resolver      // Required
	Logger   *log.Logger          // Defaults to a stderr logger
	Source   services.SheetSource // Required only by LoadFromSheet
	Handlers []handlers.Handler   // Defaults to the family of the generator
}

// GenerateOptions controls one batch.
type GenerateOptions struct {
	Force    models.ForcePolicy
	DryRun   bool
	Progress chan<- ProgressUpdate
}

// buildRegistry registers hs in order. Handlers that cannot be registered are
// logged and left out.
func buildRegistry(hs []handlers.Handler, logger *log.Logger) *handlers.Registry {
	reg := handlers.NewRegistry()
	for i, h := range hs {
		if err := reg.Register(h); err != nil {
			typeID := ""
			if h != nil {
				typeID = h.Type()
			}
			logger.Warn("excluding track handler", "index", i, "type", typeID, "error", err)
		}
	}
	logger.Debug("track handlers registered", "types", reg.Types())
	return reg
}

func prepare(opts Options, defaults func(*paths.Resolver, *log.Logger) []handlers.Handler) (*log.Logger, *handlers.Registry, error) {
	if opts.Resolver == nil {
		return nil, nil, fmt.Errorf("%w: a path resolver is required", shared.ErrConfiguration)
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	hs := opts.Handlers
	if hs == nil {
		hs = defaults(opts.Resolver, logger)
	}
	return logger, buildRegistry(hs, logger), nil
}

// isFatal reports whether err must abort the batch.
func isFatal(err error) bool {
	return errors.Is(err, shared.ErrConfiguration)
}

// dispatch validates and generates d with the handler registered for typeID.
// Only configuration errors are returned; everything else is a Failed result.
func dispatch(reg *handlers.Registry, typeID string, d models.Descriptor, organism, assembly string, opts handlers.Options) (models.GenerationResult, error) {
	h, ok := reg.Lookup(typeID)
	if !ok {
		return models.FailedResult(fmt.Sprintf("%v: %s", shared.ErrHandlerNotFound, typeID)), nil
	}

	v, err := h.Validate(d)
	if err != nil {
		if isFatal(err) {
			return models.FailedResult(err.Error()), err
		}
		return models.FailedResult(err.Error()), nil
	}
	if !v.Valid {
		return models.FailedResult(v.Reason()), nil
	}

	if _, err := h.Generate(d, organism, assembly, opts); err != nil {
		if isFatal(err) {
			return models.FailedResult(err.Error()), err
		}
		return models.FailedResult(err.Error()), nil
	}
	return models.CreatedResult(), nil
}

// removeOrphans deletes every artifact in dir whose ID is not kept and returns the
// number removed. Failures are logged and not counted.
func removeOrphans(dir string, keep func(id string) bool, logger *log.Logger) int {
	ids, err := paths.ArtifactIDs(dir)
	if err != nil {
		logger.Warn("failed to list track configs", "dir", dir, "error", err)
		return 0
	}
	count := 0
	for _, id := range ids {
		if keep(id) {
			continue
		}
		path := paths.ArtifactPath(dir, id)
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove orphaned track", "track_id", id, "path", path, "error", err)
			continue
		}
		logger.Info("removed orphaned track", "track_id", id, "path", path)
		count++
	}
	return count
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
