package linker

import (
	"context"
	"time"

	"github.com/OFFIS-RIT/kiwi-linker/pkg/index"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/loader"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/relations"
)

// OpenParams describes where a linker's inputs live. Indexes must already
// be open; the relation files are read through Source, which may route
// s3:// paths to object storage.
type OpenParams struct {
	Indexes             index.Set
	Source              loader.SourceLoader
	RedirectsPath       string
	DisambiguationsPath string
}

// Open loads both relation tables and assembles a Linker. Any failure is
// fatal to construction; no partially loaded linker is returned.
func Open(ctx context.Context, params OpenParams) (*Linker, error) {
	start := time.Now()

	logger.Info("[Linker] Loading redirects", "path", params.RedirectsPath)
	redirects, err := relations.LoadFile(ctx, params.Source, params.RedirectsPath)
	if err != nil {
		return nil, err
	}

	logger.Info("[Linker] Loading disambiguations", "path", params.DisambiguationsPath)
	disambiguations, err := relations.LoadFile(ctx, params.Source, params.DisambiguationsPath)
	if err != nil {
		return nil, err
	}

	l, err := New(params.Indexes, redirects, disambiguations)
	if err != nil {
		return nil, err
	}

	logger.Info(
		"[Linker] Ready",
		"redirects", redirects.Len(),
		"disambiguations", disambiguations.Len(),
		"took", time.Since(start).Round(time.Millisecond),
	)
	return l, nil
}
