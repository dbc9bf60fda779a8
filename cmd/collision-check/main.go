// Package main is a command line tool that checks robot configurations and motions for collisions.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/collisionspace/collision"
	"go.viam.com/collisionspace/logging"
	"go.viam.com/collisionspace/referenceframe"
)

const (
	// Flags.
	flagDebug       = "debug"
	flagModel       = "model"
	flagConfig      = "config"
	flagScene       = "scene"
	flagJoints      = "joints"
	flagStart       = "start"
	flagEnd         = "end"
	flagResolution  = "resolution"
	flagDiagnostics = "diagnostics"
	flagReturnPath  = "return-path"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var logger logging.Logger
	spaceFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     flagModel,
			Aliases:  []string{"m"},
			Usage:    "load the kinematic model from `FILE`",
			Required: true,
		},
		&cli.StringFlag{
			Name:     flagConfig,
			Aliases:  []string{"c"},
			Usage:    "load the collision config from `FILE`",
			Required: true,
		},
		&cli.StringFlag{
			Name:  flagScene,
			Usage: "load the grid, obstacles and attached object from `FILE`",
		},
		&cli.StringFlag{
			Name:  flagResolution,
			Usage: "sphere resolution to check with: default, low, high or multi_level",
			Value: "default",
		},
		&cli.BoolFlag{
			Name:  flagDiagnostics,
			Usage: "report every colliding sphere instead of stopping at the first",
		},
	}

	return &cli.App{
		Name:  "collision-check",
		Usage: "check robot configurations and motions for collisions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("collision-check")
			} else {
				logger = logging.NewBlankLogger("collision-check")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "describe",
				Usage:     "print the collision groups of a config",
				UsageText: "collision-check describe --config <file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Usage:    "load the collision config from `FILE`",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := collision.ReadConfigFile(c.String(flagConfig))
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, cfg.String())
					return nil
				},
			},
			{
				Name:      "check",
				Usage:     "check a single configuration",
				UsageText: "collision-check check --model <file> --config <file> [--scene <file>] --joints <values>",
				Flags: append([]cli.Flag{
					&cli.Float64SliceFlag{
						Name:     flagJoints,
						Usage:    "joint values in radians or meters",
						Required: true,
					},
				}, spaceFlags...),
				Action: func(c *cli.Context) error {
					space, err := newSpaceFromFlags(c, logger)
					if err != nil {
						return err
					}
					opts, err := checkOptionsFromFlags(c)
					if err != nil {
						return err
					}
					res, err := space.Check(referenceframe.FloatsToInputs(c.Float64Slice(flagJoints)), opts)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "valid: %t\ndistance: %.4f\n", res.Valid, res.Distance)
					printColliding(c, res.Colliding)
					return nil
				},
			},
			{
				Name:      "path",
				Usage:     "check the straight line motion between two configurations",
				UsageText: "collision-check path --model <file> --config <file> [--scene <file>] --start <values> --end <values>",
				Flags: append([]cli.Flag{
					&cli.Float64SliceFlag{
						Name:     flagStart,
						Usage:    "start joint values",
						Required: true,
					},
					&cli.Float64SliceFlag{
						Name:     flagEnd,
						Usage:    "end joint values",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  flagReturnPath,
						Usage: "print every sampled configuration",
					},
				}, spaceFlags...),
				Action: func(c *cli.Context) error {
					space, err := newSpaceFromFlags(c, logger)
					if err != nil {
						return err
					}
					opts, err := checkOptionsFromFlags(c)
					if err != nil {
						return err
					}
					start := referenceframe.FloatsToInputs(c.Float64Slice(flagStart))
					end := referenceframe.FloatsToInputs(c.Float64Slice(flagEnd))
					res, err := space.CheckPath(start, end,
						collision.PathOptions{CheckOptions: opts, ReturnPath: c.Bool(flagReturnPath)},
					)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "valid: %t\npath_length: %d\nnum_checks: %d\ndistance: %.4f\njoint_distance: %.4f\n",
						res.Valid, res.PathLength, res.NumChecks, res.Distance, referenceframe.InputsL2Distance(start, end))
					for i, q := range res.Path {
						fmt.Fprintf(c.App.Writer, "sample %d: %v\n", i, referenceframe.InputsToFloats(q))
					}
					printColliding(c, space.SpheresInCollision())
					return nil
				},
			},
		},
	}
}

func newSpaceFromFlags(c *cli.Context, logger logging.Logger) (*collision.Space, error) {
	model, err := referenceframe.ParseModelJSONFile(c.String(flagModel), "")
	if err != nil {
		return nil, err
	}
	cfg, err := collision.ReadConfigFile(c.String(flagConfig))
	if err != nil {
		return nil, err
	}
	scene, err := readScene(c.String(flagScene))
	if err != nil {
		return nil, err
	}
	grid, err := scene.newGrid()
	if err != nil {
		return nil, err
	}
	space := collision.New(grid, logger)
	if err := scene.populate(space); err != nil {
		return nil, err
	}
	if err := space.Init(cfg, model); err != nil {
		return nil, err
	}
	if err := scene.attach(space); err != nil {
		return nil, err
	}
	return space, nil
}

func checkOptionsFromFlags(c *cli.Context) (collision.CheckOptions, error) {
	opts := collision.CheckOptions{Diagnostics: c.Bool(flagDiagnostics), Verbose: c.Bool(flagDebug)}
	switch c.String(flagResolution) {
	case "", "default":
		opts.Resolution = collision.ResolutionDefault
	case "low":
		opts.Resolution = collision.ResolutionLow
	case "high":
		opts.Resolution = collision.ResolutionHigh
	case "multi_level":
		opts.Resolution = collision.ResolutionMultiLevel
	default:
		return opts, errors.Errorf("unknown resolution %q", c.String(flagResolution))
	}
	return opts, nil
}

func printColliding(c *cli.Context, colliding []collision.CollidingSphere) {
	for _, s := range colliding {
		other := s.Other
		if other == "" {
			other = "world"
		}
		fmt.Fprintf(c.App.Writer, "collision: %s/%s with %s (%s) at %.3f %.3f %.3f distance %.4f\n",
			s.Group, s.Sphere, other, s.Kind, s.Center.X, s.Center.Y, s.Center.Z, s.Distance)
	}
}
