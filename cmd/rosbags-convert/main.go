// Command rosbags-convert converts a rosbag1 file to a rosbag2 directory,
// or a rosbag2 directory to a rosbag1 file, inferring the direction from
// the source path.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"go.viam.com/rosbags/convert"
	"go.viam.com/rosbags/logging"
	"go.viam.com/rosbags/typesys"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	log := logging.NewLogger("rosbags-convert")

	app := &cli.App{
		Name:      "rosbags-convert",
		Usage:     "convert between rosbag1 and rosbag2 log files",
		ArgsUsage: "<source path>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dst",
				Usage: "destination path (default: derived from the source file/directory name)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one source path argument", 2)
			}
			return convertPath(log, c.Args().First(), c.String("dst"))
		},
	}

	if err := app.Run(args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
			return exitErr.ExitCode()
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func convertPath(log logging.Logger, src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return cli.Exit(fmt.Sprintf("source path: %v", err), 2)
	}

	c := convert.New(typesys.Default(), log)

	if info.IsDir() {
		if dst == "" {
			dst = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".bag"
		}
		if err := c.Rosbag2ToRosbag1(src, dst); err != nil {
			return cli.Exit(fmt.Sprintf("conversion failed: %v", err), 1)
		}
		log.Infow("converted rosbag2 to rosbag1", "src", src, "dst", dst)
		return nil
	}

	if !info.Mode().IsRegular() || !strings.HasSuffix(src, ".bag") {
		return cli.Exit(fmt.Sprintf("source %q is neither a .bag file nor a directory", src), 2)
	}
	if dst == "" {
		dst = strings.TrimSuffix(filepath.Base(src), ".bag")
	}
	if err := c.Rosbag1ToRosbag2(src, dst); err != nil {
		return cli.Exit(fmt.Sprintf("conversion failed: %v", err), 1)
	}
	log.Infow("converted rosbag1 to rosbag2", "src", src, "dst", dst)
	return nil
}
