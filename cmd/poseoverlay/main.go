// Command poseoverlay draws the skeletons of a pose feed over a video.
//
//	poseoverlay INPUT_VIDEO POSES_FILE OUTPUT_VIDEO [--verbose] [--blur] [--upper]
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	poseoverlay "github.com/swdee/go-poseoverlay"
	"github.com/swdee/go-poseoverlay/errors"
	"github.com/swdee/go-poseoverlay/logger"
	"github.com/swdee/go-poseoverlay/pose"
	"github.com/swdee/go-poseoverlay/preview"
)

var (
	v          = poseoverlay.NewViper()
	configFile string
	upper      bool
)

var rootCmd = &cobra.Command{
	Use:   "poseoverlay INPUT_VIDEO POSES_FILE OUTPUT_VIDEO",
	Short: "Overlay pose skeletons on a video",
	Long: `poseoverlay draws a skeleton over every frame of a video using the joint
coordinates and confidence scores of a JSON pose feed, one record per frame.

Joints below the confidence threshold, and the bones touching them, are not
drawn.  With --upper the ankles and knees are left out.  With --blur the most
confident face in each frame is blurred before drawing.

Every option can also be set in a config file (--config) or with a
POSEOVERLAY_ environment variable, eg: POSEOVERLAY_RENDER_THRESHOLD=0.2

Examples:
  poseoverlay squat.mp4 squat.json out.mp4
  poseoverlay squat.mp4 squat.json out.webm --upper --verbose
  poseoverlay squat.mp4 squat.json out.mp4 --blur --face-model res10.caffemodel --face-config deploy.prototxt
  poseoverlay squat.mp4 squat.json out.mp4 --blur --face-detector retinaface --face-model retinaface_mobile320.onnx`,
	Args:          cobra.ExactArgs(3),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOverlay,
}

func init() {
	flags := rootCmd.Flags()

	flags.StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	flags.BoolVarP(&upper, "upper", "u", false, "draw upper body only")

	flags.BoolP("verbose", "v", false, "print progress and debug output")
	flags.Bool("json-log", false, "write logs as JSON")
	flags.BoolP("blur", "b", false, "blur the most confident face in each frame")
	flags.String("topology", "", "skeleton definition file, defaults to the MPII skeleton")
	flags.Bool("labels", false, "draw joint names")
	flags.String("preview", "", "save one rendered frame to this .jpg, .png or .webp file")
	flags.Int("preview-frame", 0, "index of the frame saved with --preview")
	flags.String("face-detector", "ssd", "face detector network type, ssd or retinaface")
	flags.String("face-model", "", "face detector network weights")
	flags.String("face-config", "", "face detector network config")

	bindFlags(v, map[string]string{
		"log.verbose":     "verbose",
		"log.json":        "json-log",
		"face.blur":       "blur",
		"face.detector":   "face-detector",
		"face.model":      "face-model",
		"face.config":     "face-config",
		"render.topology": "topology",
		"render.labels":   "labels",
		"preview.path":    "preview",
		"preview.frame":   "preview-frame",
	})
}

// bindFlags binds each config key to its command line flag
func bindFlags(v *viper.Viper, keys map[string]string) {
	for key, flag := range keys {
		if err := v.BindPFlag(key, rootCmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(diagnostic(err))
		os.Exit(1)
	}
}

// runOverlay renders the skeleton video
func runOverlay(cmd *cobra.Command, args []string) error {

	inputVideo, posesFile, outputVideo := args[0], args[1], args[2]

	if upper {
		v.Set("render.mode", pose.ModeUpperBody.String())
	}

	cfg, err := poseoverlay.LoadConfig(v, configFile)

	if err != nil {
		return err
	}

	if err := logger.Initialize(cfg.Log.Verbose, cfg.Log.JSON); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}

	defer logger.Cleanup()

	topo, err := cfg.LoadTopology()

	if err != nil {
		return err
	}

	style, err := cfg.SkeletonStyle()

	if err != nil {
		return err
	}

	labels, err := cfg.LabelFont()

	if err != nil {
		return err
	}

	// the whole feed is loaded before any frame is read
	feed, err := pose.LoadFeed(posesFile)

	if err != nil {
		return err
	}

	blurrer, err := cfg.NewBlurrer()

	if err != nil {
		return err
	}

	if blurrer != nil {
		defer blurrer.Close()
	}

	var pw *preview.Writer

	if cfg.Preview.Path != "" {
		pw, err = preview.NewWriter(cfg.Preview.Path, cfg.Preview.Frame, cfg.PreviewParams())

		if err != nil {
			return err
		}
	}

	var reporter poseoverlay.Reporter = poseoverlay.NopReporter{}

	if cfg.Log.Verbose {
		reporter = poseoverlay.NewBarReporter("Rendering frames")
	}

	p := poseoverlay.NewPipeline(poseoverlay.Options{
		Topology:  topo,
		Threshold: cfg.Render.Threshold,
		Mode:      cfg.RenderMode(),
		Style:     style,
		Labels:    labels,
		Blurrer:   blurrer,
		Preview:   pw,
		Reporter:  reporter,
	})

	res, err := p.Run(feed, inputVideo, outputVideo)

	if err != nil {
		return err
	}

	if pw != nil && !pw.Written() {
		logger.Logger.Warnw("preview frame was never rendered",
			logger.FieldFrame, cfg.Preview.Frame,
			logger.FieldCount, res.Frames,
		)
	}

	fmt.Printf("Processed %d frames. Output can be found in %s\n", res.Frames, outputVideo)

	return nil
}

// diagnostic returns the one line message printed for a failed run, the
// user facing hint when there is one
func diagnostic(err error) string {

	msg := err.Error()

	if hints := errors.GetAllHints(err); len(hints) > 0 {
		msg = hints[0] + " (" + msg + ")"
	}

	if class := errors.Class(err); class != "unknown" {
		msg = class + ": " + msg
	}

	return strings.ReplaceAll(msg, "\n", " ")
}
