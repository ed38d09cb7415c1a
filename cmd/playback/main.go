// Package main replays a recorded marker-cloud log through a rigid body
// tracker and reports what each frame did to the tracked bodies.
package main

import (
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"github.com/mocaptools/rigidbodytracker/pointcloud"
	"github.com/mocaptools/rigidbodytracker/tracker"
)

func main() {
	app := &cli.App{
		Name:  "playback",
		Usage: "replay a recorded point cloud log through a rigid body tracker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Usage:    "path to the tracker configuration (JSON)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "cloudlog",
				Usage:    "path to the recorded cloud log",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: runPlayback,
	}
	if err := app.Run(os.Args); err != nil {
		golog.Global().Fatal(err)
	}
}

func runPlayback(c *cli.Context) error {
	logger := golog.NewLogger("playback")
	if c.Bool("debug") {
		logger = golog.NewDebugLogger("playback")
	}

	config, err := tracker.ReadConfigFromFile(c.String("config"))
	if err != nil {
		return err
	}
	tr, err := tracker.NewFromConfig(config, logger)
	if err != nil {
		return err
	}
	tr.SetDiagnosticSink(func(d tracker.Diagnostic) {
		logger.Warn(d.String())
	})

	//nolint:gosec
	f, err := os.Open(c.String("cloudlog"))
	if err != nil {
		return errors.Wrap(err, "cannot open cloud log")
	}
	defer goutils.UncheckedErrorFunc(f.Close)

	player, err := pointcloud.ReadCloudLog(f)
	if err != nil {
		return err
	}
	logger.Infow("replaying cloud log", "frames", player.Len(), "bodies", len(tr.Bodies()))

	frames := 0
	player.Play(func(stamp time.Time, cloud *pointcloud.PointCloud) {
		tr.UpdateAt(stamp, cloud)
		frames++
		logger.Debugw("processed frame", "frame", frames, "stamp", stamp, "markers", cloud.Size())
	})

	if !tr.Initialized() {
		return errors.Errorf("tracker never initialized after %d attempts", tr.InitializationAttempts())
	}
	for _, rb := range tr.Bodies() {
		center := rb.Center()
		logger.Infow("final body state",
			"body", rb.Name(),
			"x", center.X,
			"y", center.Y,
			"z", center.Z,
			"yaw", rb.Transformation().Orientation().EulerAngles().Yaw,
			"speed", rb.Velocity().Norm(),
			"valid", rb.LastTransformationValid(),
		)
	}
	return nil
}
