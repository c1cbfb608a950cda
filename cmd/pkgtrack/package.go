package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pkgtrack/internal/classify"
	"github.com/mesh-intelligence/pkgtrack/internal/cksum"
	"github.com/mesh-intelligence/pkgtrack/internal/lifecycle"
	"github.com/mesh-intelligence/pkgtrack/internal/manifest"
	"github.com/mesh-intelligence/pkgtrack/pkg/types"
)

func newPackageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Create, inspect and delete packages",
	}
	cmd.AddCommand(
		newPackageCreateCmd(a),
		newPackageListCmd(a),
		newPackageShowCmd(a),
		newPackageAttachCmd(a),
		newPackageLinkCmd(a),
		newPackageDeleteCmd(a),
	)
	return cmd
}

func newPackageCreateCmd(a *app) *cobra.Command {
	var (
		sel        selector
		comment    string
		toolKitPkg string
		compVers   []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a package at a maintenance/patch level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := sel.key()
			if err != nil {
				return err
			}
			level, err := parseLevel(sel.level)
			if err != nil {
				return err
			}
			return a.withManager(func(m *lifecycle.Manager) error {
				pkg, err := m.Create(lifecycle.CreateRequest{
					Key:                 key,
					Level:               level,
					Comment:             comment,
					ToolKitPackageID:    toolKitPkg,
					ComponentVersionIDs: compVers,
				})
				if err != nil {
					return err
				}
				if a.jsonOut {
					return a.printJSON(pkg)
				}
				fmt.Fprintf(a.out, "created %s (%s)\n", pkg, pkg.PackageID)
				return nil
			})
		},
	}
	sel.register(cmd, true)
	cmd.Flags().StringVar(&comment, "comment", "", "comment for the initial event")
	cmd.Flags().StringVar(&toolKitPkg, "toolkit-package", "", "owning tool-kit package ID")
	cmd.Flags().StringSliceVar(&compVers, "component-version", nil, "owning component version IDs")
	return cmd
}

func newPackageListCmd(a *app) *cobra.Command {
	var sel selector
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List packages, highest level first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := types.PackageKey{ToolKit: sel.toolKit, Component: sel.component, Platform: sel.platform}
			return a.withManager(func(m *lifecycle.Manager) error {
				pkgs, err := m.List(key)
				if err != nil {
					return err
				}
				if a.jsonOut {
					return a.printJSON(pkgs)
				}
				w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "PACKAGE\tLEVEL\tID\tCREATED")
				for _, p := range pkgs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Key(), p.Level(), p.PackageID, p.CreatedAt.Format("2006-01-02 15:04"))
				}
				return w.Flush()
			})
		},
	}
	sel.register(cmd, false)
	return cmd
}

func newPackageShowCmd(a *app) *cobra.Command {
	var (
		sel    selector
		asYAML bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a package, its state and its manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *lifecycle.Manager) error {
				pkg, err := sel.resolve(m)
				if err != nil {
					return err
				}
				ds, err := m.Deliverables(pkg)
				if err != nil {
					return err
				}
				if asYAML {
					return manifest.WriteYAML(a.out, pkg, ds)
				}
				state, err := m.Events().Current(pkg.EventsID)
				if err != nil {
					return err
				}
				if a.jsonOut {
					return a.printJSON(struct {
						Package      *types.Package      `json:"package"`
						State        types.Event         `json:"state"`
						Deliverables []types.Deliverable `json:"deliverables"`
					}{pkg, state, ds})
				}

				fmt.Fprintf(a.out, "%s (%s)\nstate: %s since %s\nmanifest: %s\n",
					pkg, pkg.PackageID, state.State, state.CreatedAt.Format("2006-01-02 15:04:05"), manifest.Summarize(ds))
				w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				for _, d := range ds {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", d.Action, d.Type, d.Size, d.Checksum, d.Path)
				}
				return w.Flush()
			})
		},
	}
	sel.register(cmd, true)
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the manifest as YAML")
	return cmd
}

func newPackageAttachCmd(a *app) *cobra.Command {
	var (
		sel      selector
		dir      string
		prior    string
		dryRun   bool
		external bool
	)
	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Scan a component tree and attach the resulting manifest",
		Long: "attach scans --dir, diffs it against the packages below --level with the\n" +
			"same tool kit, component and platform, and replaces the package manifest.\n" +
			"Entries from --prior-manifest that the scan does not see are attached as MANUAL_ADD.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return usagef("--dir is required")
			}
			if _, err := os.Stat(dir); err != nil {
				return usagef("--dir: %v", err)
			}

			var manual []types.Deliverable
			if prior != "" {
				var err error
				if manual, err = manifest.LoadPriorManifest(prior); err != nil {
					return err
				}
			}

			return a.withManager(func(m *lifecycle.Manager) error {
				pkg, err := sel.resolve(m)
				if err != nil {
					return err
				}

				opts := []classify.Option{classify.WithLogger(a.log)}
				if !external {
					opts = append(opts, classify.WithExternalChecksum(cksum.File))
				}
				c, err := classify.New(dir, pkg.Component, opts...)
				if err != nil {
					return err
				}
				scan, err := c.Scan()
				if err != nil {
					return err
				}

				ds, err := m.BuildManifest(pkg, scan, manual)
				if err != nil {
					return err
				}
				if dryRun {
					return manifest.WriteYAML(a.out, pkg, ds)
				}
				n, err := m.AttachManifest(pkg, ds)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "attached %d deliverables to %s: %s\n", n, pkg, manifest.Summarize(ds))
				return nil
			})
		},
	}
	sel.register(cmd, true)
	cmd.Flags().StringVar(&dir, "dir", "", "top-level directory of the component tree")
	cmd.Flags().StringVar(&prior, "prior-manifest", "", "file of hand-delivered entries")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the manifest as YAML without attaching it")
	cmd.Flags().BoolVar(&external, "external-cksum", true, "checksum names containing '*' with the cksum command")
	return cmd
}

func newPackageLinkCmd(a *app) *cobra.Command {
	var sel selector
	cmd := &cobra.Command{
		Use:   "link-cr NAME...",
		Short: "Link change requests to a package",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *lifecycle.Manager) error {
				pkg, err := sel.resolve(m)
				if err != nil {
					return err
				}
				n, err := m.AssociateChangeRequests(pkg, args)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "linked %d change requests to %s\n", n, pkg)
				return nil
			})
		},
	}
	sel.register(cmd, true)
	return cmd
}

func newPackageDeleteCmd(a *app) *cobra.Command {
	var (
		sel    selector
		revert bool
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a package and everything it owns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withManager(func(m *lifecycle.Manager) error {
				pkg, err := sel.resolve(m)
				if err != nil {
					return err
				}
				report, err := m.Delete(pkg, revert)
				if a.jsonOut {
					if perr := a.printJSON(report); perr != nil && err == nil {
						err = perr
					}
					return err
				}
				fmt.Fprintf(a.out, "deliverables: %d\nevents: %d\njoin rows: %d\nchange requests reverted: %d\n",
					report.Deliverables, report.Events, report.JoinRows, report.ChangeRequestsReverted)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "deleted %s\n", pkg)
				return nil
			})
		},
	}
	sel.register(cmd, true)
	cmd.Flags().BoolVar(&revert, "revert-crs", false, "detach linked change requests and reset them to complete")
	return cmd
}
