package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/RudraSwat/ubuntu-image/internal/utils"
	"github.com/RudraSwat/ubuntu-image/internal/version"
	"github.com/RudraSwat/ubuntu-image/pkg/gadget"
	"github.com/RudraSwat/ubuntu-image/pkg/populate"
	"github.com/spectrocloud-labs/herd"
	"github.com/urfave/cli/v2"
)

// Populate a classic image rootfs and configure its boot mounts.
func main() {
	app := cli.NewApp()
	app.Name = "ubuntu-image-rootfs"
	app.Version = version.GetVersion()
	app.Usage = "rootfs population stage of the classic image build"
	app.Action = func(c *cli.Context) error {
		utils.SetLogger()

		v := version.Get()
		utils.Log.Logger.Info().Str("commit", v.GitCommit).Str("compiled with", v.GoVersion).Str("version", v.Version).Msg("ubuntu-image rootfs stage")

		state, err := stateFromFlags(c)
		if err != nil {
			utils.Log.Err(err).Msg("Bad configuration")
			return err
		}

		g := herd.DAG(herd.EnableInit)
		if err := state.Register(g); err != nil {
			return err
		}
		utils.Log.Logger.Info().Msg(state.WriteDAG(g))

		// Once we print the dag we can exit already
		if c.Bool("dry-run") {
			return nil
		}

		if err := g.Run(context.Background()); err != nil {
			utils.Log.Logger.Info().Msg(state.WriteDAG(g))
			return err
		}
		utils.Log.Logger.Info().Msg(state.WriteDAG(g))

		// Manifest runs as its own phase over the finished rootfs
		m := herd.DAG(herd.EnableInit)
		if err := state.RegisterManifest(m); err != nil {
			return err
		}
		err = m.Run(context.Background())
		utils.Log.Logger.Info().Msg(state.WriteDAG(m))
		return err
	}
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "rootfs",
			Usage:   "destination rootfs directory (must exist)",
			EnvVars: []string{"UBUNTU_IMAGE_ROOTFS"},
		},
		&cli.StringFlag{
			Name:    "filesystem",
			Usage:   "pre-built root filesystem tree to copy in",
			EnvVars: []string{"UBUNTU_IMAGE_FILESYSTEM"},
		},
		&cli.StringFlag{
			Name:    "chroot",
			Usage:   "chroot tree produced by the rootfs build, relocated in",
			EnvVars: []string{"UBUNTU_IMAGE_CHROOT"},
		},
		&cli.StringFlag{
			Name:    "gadget",
			Usage:   "gadget.yaml path or gadget tree with meta/gadget.yaml",
			EnvVars: []string{"UBUNTU_IMAGE_GADGET"},
		},
		&cli.StringFlag{
			Name:    "cloud-init",
			Usage:   "cloud-init user-data file to seed (optional)",
			EnvVars: []string{"UBUNTU_IMAGE_CLOUD_INIT"},
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Value:   ".",
			Usage:   "directory for the package manifest",
			EnvVars: []string{"UBUNTU_IMAGE_OUTPUT_DIR"},
		},
		&cli.StringSliceFlag{
			Name:  "stage-dir",
			Usage: "directories with rootfs customization stages (repeatable)",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "env file with UBUNTU_IMAGE_* settings, flags win over it",
		},
		&cli.BoolFlag{
			Name: "dry-run",
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:  "version",
			Usage: "version",
			Action: func(c *cli.Context) error {
				utils.SetLogger()
				v := version.Get()
				utils.Log.Logger.Info().Str("commit", v.GitCommit).Str("compiled with", v.GoVersion).Str("version", v.Version).Msg("ubuntu-image rootfs stage")
				return nil
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// stateFromFlags builds the immutable step state from CLI flags and the
// optional env file, flags taking precedence.
func stateFromFlags(c *cli.Context) (*populate.State, error) {
	env := map[string]string{}
	if file := c.String("env-file"); file != "" {
		var err error
		env, err = utils.ReadEnv(file)
		if err != nil {
			return nil, err
		}
	}
	pick := func(flag, key string) string {
		if v := c.String(flag); v != "" {
			return v
		}
		return env[key]
	}

	s := &populate.State{
		Rootdir:       pick("rootfs", "UBUNTU_IMAGE_ROOTFS"),
		FilesystemSrc: pick("filesystem", "UBUNTU_IMAGE_FILESYSTEM"),
		ChrootSrc:     pick("chroot", "UBUNTU_IMAGE_CHROOT"),
		CloudInitSeed: pick("cloud-init", "UBUNTU_IMAGE_CLOUD_INIT"),
		OutputDir:     pick("output-dir", "UBUNTU_IMAGE_OUTPUT_DIR"),
		StageDirs:     c.StringSlice("stage-dir"),
	}
	if len(s.StageDirs) == 0 {
		s.StageDirs = utils.UniqueSlice(utils.CleanupSlice(strings.Split(env["UBUNTU_IMAGE_STAGE_DIRS"], " ")))
	}
	if s.OutputDir == "" {
		s.OutputDir = "."
	}

	if s.Rootdir == "" {
		return nil, errors.New("no destination rootfs configured")
	}
	if info, err := os.Stat(s.Rootdir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("destination rootfs %s is not a directory", s.Rootdir)
	}
	if (s.FilesystemSrc == "") == (s.ChrootSrc == "") {
		return nil, errors.New("exactly one of --filesystem and --chroot must be given")
	}

	if gadgetPath := pick("gadget", "UBUNTU_IMAGE_GADGET"); gadgetPath != "" {
		layout, err := gadget.Load(gadgetPath)
		if err != nil {
			return nil, err
		}
		s.Gadget = layout
	}

	return s, nil
}
