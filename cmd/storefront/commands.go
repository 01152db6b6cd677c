package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/partsplug/storefront"
	"github.com/partsplug/storefront/config"
	"github.com/partsplug/storefront/version"
)

const defaultExportDir = "dist"

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "PartsPlug public storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
	}

	root.AddCommand(serveCmd(), exportCmd(), routesCmd())
	return root
}

// bootstrap creates the service from the environment and assembles the
// storefront on it.
func bootstrap(ctx context.Context) (context.Context, *storefront.Service, *storefront.Storefront, error) {
	cfg, err := config.FromEnv[config.ConfigurationDefault]()
	if err != nil {
		return ctx, nil, nil, fmt.Errorf("could not read configuration: %w", err)
	}

	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = version.Current()
	}

	ctx, svc := storefront.NewServiceWithContext(ctx,
		storefront.WithConfig(&cfg),
		storefront.WithTranslations(nil, ""),
	)

	sf, err := storefront.NewStorefront(ctx, svc)
	if err != nil {
		svc.Stop(ctx)
		return ctx, nil, nil, err
	}
	svc.Mount(sf)
	return ctx, svc, sf, nil
}

func serveCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, svc, _, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Stop(ctx)

			err = svc.Run(ctx, address)
			if err != nil && ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&address, "addr", "", "listen address (default from HTTP_PORT)")
	return cmd
}

func exportCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Pre-render every static page to a directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, svc, sf, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Stop(ctx)

			written, err := sf.Exporter.Export(ctx, outDir)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d pages to %s\n", len(written), outDir)
			return err
		},
	}

	cmd.Flags().StringVar(&outDir, "out", defaultExportDir, "output directory")
	return cmd
}

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List registered routes with their chrome mode",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, svc, sf, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Stop(ctx)

			return printRoutes(cmd.OutOrStdout(), svc, sf)
		},
	}
}

func printRoutes(out io.Writer, svc *storefront.Service, sf *storefront.Storefront) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATTERN\tCHROME\tHANDLER")

	for _, route := range svc.Routes().SortedRoutes() {
		method := route.Method
		if method == "" {
			method = "*"
		}
		path := route.Path
		if _, after, found := strings.Cut(path, " "); found {
			path = after
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", method, path, sf.Chrome.Resolve(path), route.Handler)
	}

	return w.Flush()
}
