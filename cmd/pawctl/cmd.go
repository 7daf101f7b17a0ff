package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samirrijal/pawmatch/internal/adapters/localstore"
	"github.com/samirrijal/pawmatch/internal/core/domain"
	"github.com/samirrijal/pawmatch/internal/core/usecases"
	"github.com/samirrijal/pawmatch/internal/pkg/geospatial"
	"github.com/samirrijal/pawmatch/internal/pkg/logging"
)

const defaultStore = "pawmatch.db"

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "pawctl",
		Short:         "PawMatch command line tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newBoundsCmd(), newDistanceCmd(), newFavoritesCmd())
	return root
}

func newBoundsCmd() *cobra.Command {
	var (
		lat, lon, miles float64
		output          string
	)
	cmd := &cobra.Command{
		Use:   "bounds",
		Short: "Print the bounding box around a point",
		Long: `Print the northwest and southeast corners of the box centred on
--lat/--lon whose corner-to-corner distance is --miles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			box, err := geospatial.DiagonalBounds(lat, lon, miles)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), output, box)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "centre latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "centre longitude in degrees")
	cmd.Flags().Float64Var(&miles, "miles", geospatial.DefaultDiagonalMiles, "box diagonal in miles")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format (json, yaml)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

type distanceView struct {
	From  geospatial.Point `json:"from"`
	To    geospatial.Point `json:"to"`
	Miles float64          `json:"miles"`
}

func newDistanceCmd() *cobra.Command {
	var (
		from, to []float64
		output   string
	)
	cmd := &cobra.Command{
		Use:   "distance",
		Short: "Print the great-circle distance between two points in miles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(from) != 2 || len(to) != 2 {
				return fmt.Errorf("%w: --from and --to take lat,lon", domain.ErrInvalidArgument)
			}
			v := distanceView{
				From: geospatial.Point{Lat: from[0], Lon: from[1]},
				To:   geospatial.Point{Lat: to[0], Lon: to[1]},
			}
			v.Miles = geospatial.DistanceMiles(v.From, v.To)
			return render(cmd.OutOrStdout(), output, v)
		},
	}
	cmd.Flags().Float64SliceVar(&from, "from", nil, "start point as lat,lon")
	cmd.Flags().Float64SliceVar(&to, "to", nil, "end point as lat,lon")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format (json, yaml)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newFavoritesCmd() *cobra.Command {
	var owner, file, output string

	withService := func(cmd *cobra.Command, fn func(*usecases.FavoritesService) error) error {
		store, err := localstore.OpenSQLite(cmd.Context(), file)
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(usecases.NewFavoritesService(store, nil))
	}

	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List or toggle an owner's favorites",
	}
	cmd.PersistentFlags().StringVar(&owner, "owner", "", "owner e-mail")
	cmd.PersistentFlags().StringVar(&file, "file", defaultStore, "SQLite favorites file")
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "json", "output format (json, yaml)")
	_ = cmd.MarkPersistentFlagRequired("owner")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the favorite dog IDs in the order they were added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(svc *usecases.FavoritesService) error {
				ids, err := svc.List(cmd.Context(), owner)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), output, favoritesView{Owner: owner, IDs: ids})
			})
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <dog-id>",
		Short: "Add a dog to the favorites, or remove it if present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *usecases.FavoritesService) error {
				added, ids, err := svc.Toggle(cmd.Context(), owner, args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), output, favoritesView{
					Owner:   owner,
					Toggled: args[0],
					Added:   &added,
					IDs:     ids,
				})
			})
		},
	}

	cmd.AddCommand(list, toggle)
	return cmd
}

type favoritesView struct {
	Owner   string   `json:"owner"`
	Toggled string   `json:"toggled,omitempty"`
	Added   *bool    `json:"added,omitempty"`
	IDs     []string `json:"ids"`
}

func render(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// Go through JSON so YAML keys match the API field names.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return err
		}
		blockStyle(&doc)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// blockStyle clears the flow and quoting styles JSON input leaves on n.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
