package site

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MrSnakeDoc/menav/internal/assets"
	"github.com/MrSnakeDoc/menav/internal/domain"
	"github.com/MrSnakeDoc/menav/internal/logger"
	"github.com/MrSnakeDoc/menav/internal/render"
	"github.com/MrSnakeDoc/menav/internal/search"
	"github.com/MrSnakeDoc/menav/internal/sources/layers"
	"github.com/MrSnakeDoc/menav/internal/utils"
)

// IndexFile is the name of the generated document.
const IndexFile = "index.html"

// Options configures a Builder.
type Options struct {
	Root      string           // project directory holding the config layers
	OutputDir string           // relative to Root unless absolute
	Now       func() time.Time // clock used for the copyright year
	NoEnv     bool             // ignore MENAV_SET_* overrides
}

// Result describes one successful build.
type Result struct {
	Config    *domain.EffectiveConfig
	Layers    []string
	Records   []search.Record
	Files     []string // output files written, relative to OutputDir
	Hash      string
	Size      int
	OutputDir string
	BuiltAt   time.Time
	Duration  time.Duration
}

// Builder runs the whole pipeline: load, default, render, write.
type Builder struct {
	opts   Options
	logger logger.Logger
}

// NewBuilder creates a builder.
func NewBuilder(opts Options, log logger.Logger) *Builder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "dist"
	}
	return &Builder{opts: opts, logger: log}
}

// OutputDir returns the absolute or root-relative output directory.
func (b *Builder) OutputDir() string {
	if filepath.IsAbs(b.opts.OutputDir) {
		return b.opts.OutputDir
	}
	return filepath.Join(b.opts.Root, b.opts.OutputDir)
}

// Root returns the project directory.
func (b *Builder) Root() string {
	return b.opts.Root
}

// Build generates the site. Missing configuration, missing templates and
// write failures abort the build; everything else is logged and skipped.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, loaded, err := layers.LoadConfig(b.opts.Root, b.logger, layers.LoadOptions{NoEnv: b.opts.NoEnv})
	if err != nil {
		return nil, err
	}
	cfg := domain.ApplyDefaults(raw)

	reg, err := render.LoadRegistry(b.opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	renderer := render.NewRenderer(reg)
	renderer.Now = b.opts.Now

	doc, err := renderer.Assemble(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to render site: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := b.OutputDir()
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create %s: %w", domain.ErrWrite, out, err)
	}
	if err := writeFileAtomic(filepath.Join(out, IndexFile), doc); err != nil {
		return nil, err
	}
	b.logger.Info("generated page",
		logger.String("path", filepath.Join(out, IndexFile)),
		logger.String("size", humanize.Bytes(uint64(len(doc)))),
		logger.Int("pages", len(cfg.Navigation)))

	files := []string{IndexFile}
	if err := b.copyAssets(out); err != nil {
		return nil, err
	}
	files = append(files, assets.StyleFile, assets.ScriptFile)
	if name := b.copyFavicon(out, cfg.Site.Favicon); name != "" {
		files = append(files, name)
	}

	parsed, err := search.ParseDocument(doc)
	if err != nil {
		return nil, err
	}
	records := search.Extract(parsed)

	sum := sha256.Sum256(doc)
	res := &Result{
		Config:    cfg,
		Layers:    loaded.Applied,
		Records:   records,
		Files:     files,
		Hash:      hex.EncodeToString(sum[:]),
		Size:      len(doc),
		OutputDir: out,
		BuiltAt:   b.opts.Now(),
		Duration:  time.Since(start),
	}

	b.logger.Info("build complete",
		logger.Strings("layers", res.Layers),
		logger.Int("cards", len(records)),
		logger.Duration("took", res.Duration))

	return res, nil
}

func (b *Builder) copyAssets(out string) error {
	for _, name := range []string{assets.StyleFile, assets.ScriptFile} {
		data, source, err := assets.Resolve(b.opts.Root, name)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", name, err)
		}
		if err := writeFileAtomic(filepath.Join(out, name), data); err != nil {
			return err
		}
		b.logger.Debug("copied asset",
			logger.String("name", name),
			logger.String("source", source),
			logger.String("size", humanize.Bytes(uint64(len(data)))))
	}
	return nil
}

// copyFavicon copies the favicon when found and returns its output name.
// A missing or unreadable favicon only warns.
func (b *Builder) copyFavicon(out, favicon string) string {
	src := assets.FindFavicon(b.opts.Root, favicon)
	if src == "" {
		b.logger.Warn("favicon not found", logger.String("favicon", favicon))
		return ""
	}

	data, err := os.ReadFile(src)
	if err != nil {
		b.logger.Warn("failed to read favicon", logger.String("path", src), logger.Error(err))
		return ""
	}
	name := filepath.Base(favicon)
	dst := filepath.Join(out, name)
	if err := writeFileAtomic(dst, data); err != nil {
		b.logger.Warn("failed to copy favicon", logger.String("path", dst), logger.Error(err))
		return ""
	}
	b.logger.Debug("copied favicon", logger.String("from", src), logger.String("to", dst))
	return name
}

// writeFileAtomic writes through a temp file in the same directory so a
// concurrent reader never sees a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrWrite, path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		utils.Close(tmp)
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %w", domain.ErrWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %w", domain.ErrWrite, path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %w", domain.ErrWrite, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %w", domain.ErrWrite, path, err)
	}
	return nil
}
