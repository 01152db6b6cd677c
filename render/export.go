package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/otel/trace"

	"github.com/partsplug/storefront/telemetry"
	"github.com/partsplug/storefront/workerpool"
)

const (
	exportDirPerm  = 0o755
	exportFilePerm = 0o644
	indexFile      = "index.html"
)

// Exporter pre-renders every statically enumerable page to disk.
type Exporter struct {
	site   *Site
	pool   workerpool.Manager
	tracer telemetry.Tracer
}

func NewExporter(site *Site, pool workerpool.Manager, tracer telemetry.Tracer) *Exporter {
	return &Exporter{site: site, pool: pool, tracer: tracer}
}

// Export renders all targets in parallel into <outDir>/<path>/index.html and
// returns the written files in target order. All submitted pages finish
// before the first failure is returned.
func (e *Exporter) Export(ctx context.Context, outDir string) (written []string, err error) {
	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.Start(ctx, "export")
		defer func() { e.tracer.End(ctx, span, err) }()
	}

	if err = os.MkdirAll(outDir, exportDirPerm); err != nil {
		return nil, fmt.Errorf("could not create export dir: %w", err)
	}

	targets := e.site.Targets()
	log := util.Log(ctx).WithField("out", outDir).WithField("pages", len(targets))
	log.Info("exporting storefront")

	files, err := workerpool.Map(ctx, e.pool, targets, func(ctx context.Context, routePath string) (string, error) {
		return e.exportPage(ctx, outDir, routePath)
	})

	for _, f := range files {
		if f != "" {
			written = append(written, f)
		}
	}

	if err != nil {
		log.WithError(err).Error("export failed")
		return written, err
	}

	log.WithField("written", len(written)).Info("export finished")
	return written, nil
}

func (e *Exporter) exportPage(ctx context.Context, outDir, routePath string) (string, error) {
	page, err := e.site.PageFor(ctx, routePath)
	if err != nil {
		return "", fmt.Errorf("could not resolve %s: %w", routePath, err)
	}

	var buf bytes.Buffer
	if err = e.site.renderer.Render(ctx, &buf, page); err != nil {
		return "", err
	}

	target := OutputPath(outDir, routePath)
	if err = os.MkdirAll(filepath.Dir(target), exportDirPerm); err != nil {
		return "", err
	}
	if err = os.WriteFile(target, buf.Bytes(), exportFilePerm); err != nil {
		return "", fmt.Errorf("could not write %s: %w", target, err)
	}

	return target, nil
}

// OutputPath maps a route path to its index file below outDir.
func OutputPath(outDir, routePath string) string {
	rel := strings.Trim(routePath, "/")
	return filepath.Join(outDir, filepath.FromSlash(rel), indexFile)
}
