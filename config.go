package poseoverlay

import (
	"image/color"
	"strings"

	"github.com/spf13/viper"
	"github.com/swdee/go-poseoverlay/errors"
	"github.com/swdee/go-poseoverlay/face"
	"github.com/swdee/go-poseoverlay/pose"
	"github.com/swdee/go-poseoverlay/preview"
	"github.com/swdee/go-poseoverlay/render"
)

// EnvPrefix is prepended to environment variables overriding config keys,
// eg: POSEOVERLAY_RENDER_THRESHOLD
const EnvPrefix = "POSEOVERLAY"

// Config is the complete configuration of an overlay run
type Config struct {
	Render  RenderConfig  `mapstructure:"render"`
	Face    FaceConfig    `mapstructure:"face"`
	Preview PreviewConfig `mapstructure:"preview"`
	Log     LogConfig     `mapstructure:"log"`
}

// RenderConfig controls what is drawn and how
type RenderConfig struct {
	// Mode is "full" or "upper"
	Mode string `mapstructure:"mode"`
	// Topology is an optional YAML/JSON joint and edge table, the MPII
	// skeleton is used when empty
	Topology      string  `mapstructure:"topology"`
	Threshold     float64 `mapstructure:"threshold"`
	LineThickness int     `mapstructure:"line_thickness"`
	JointRadius   int     `mapstructure:"joint_radius"`
	// EdgeColor overrides every edge color of the topology when set
	EdgeColor string `mapstructure:"edge_color"`
	// EdgePalette gives each edge its own color from the pose palette
	EdgePalette bool    `mapstructure:"edge_palette"`
	JointColor  string  `mapstructure:"joint_color"`
	Labels      bool    `mapstructure:"labels"`
	LabelFont   string  `mapstructure:"label_font"`
	LabelSize   float64 `mapstructure:"label_size"`
}

// Face detector networks
const (
	DetectorSSD        = "ssd"
	DetectorRetinaFace = "retinaface"
)

// FaceConfig controls face blurring
type FaceConfig struct {
	Blur bool `mapstructure:"blur"`
	// Detector is the face network type, "ssd" or "retinaface"
	Detector      string  `mapstructure:"detector"`
	Model         string  `mapstructure:"model"`
	Config        string  `mapstructure:"config"`
	MinConfidence float64 `mapstructure:"min_confidence"`
	NMSThreshold  float64 `mapstructure:"nms_threshold"`
	// InputSize overrides the network input size, zero keeps the default
	// of the detector type
	InputSize  int `mapstructure:"input_size"`
	BlurKernel int `mapstructure:"blur_kernel"`
	Padding    int `mapstructure:"padding"`
}

// PreviewConfig controls the optional still image of one rendered frame
type PreviewConfig struct {
	Path     string `mapstructure:"path"`
	Frame    int    `mapstructure:"frame"`
	Width    int    `mapstructure:"width"`
	Height   int    `mapstructure:"height"`
	Quality  int    `mapstructure:"quality"`
	Lossless bool   `mapstructure:"lossless"`
}

// LogConfig controls logger output
type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
	JSON    bool `mapstructure:"json"`
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Render defaults
	v.SetDefault("render.mode", pose.ModeFull.String())
	v.SetDefault("render.topology", "")
	v.SetDefault("render.threshold", pose.DefaultThreshold)
	v.SetDefault("render.line_thickness", 5)
	v.SetDefault("render.joint_radius", 5)
	v.SetDefault("render.edge_color", "")
	v.SetDefault("render.edge_palette", false)
	v.SetDefault("render.joint_color", "#005bc9")
	v.SetDefault("render.labels", false)
	v.SetDefault("render.label_font", "") // built in bitmap face
	v.SetDefault("render.label_size", 12.0)

	// Face blur defaults
	v.SetDefault("face.blur", false)
	v.SetDefault("face.detector", DetectorSSD)
	v.SetDefault("face.model", "")
	v.SetDefault("face.config", "")
	v.SetDefault("face.min_confidence", 0.5)
	v.SetDefault("face.nms_threshold", 0.4)
	v.SetDefault("face.input_size", 0)
	v.SetDefault("face.blur_kernel", 51)
	v.SetDefault("face.padding", 0)

	// Preview defaults
	v.SetDefault("preview.path", "")
	v.SetDefault("preview.frame", 0)
	v.SetDefault("preview.width", 0) // frame size
	v.SetDefault("preview.height", 0)
	v.SetDefault("preview.quality", 90)
	v.SetDefault("preview.lossless", false)

	// Log defaults
	v.SetDefault("log.verbose", false)
	v.SetDefault("log.json", false)
}

// NewViper returns a Viper instance with defaults set and environment
// variable overrides bound
func NewViper() *viper.Viper {

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	return v
}

// LoadConfig reads the optional config file into v and returns the
// validated configuration.  The file type is taken from its extension.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {

	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Mark(
				errors.Wrapf(err, "failed to read config file %s", configFile),
				errors.ErrInvalidConfig)
		}
	}

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to unmarshal config"), errors.ErrInvalidConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values outside of their allowed range
func (c *Config) Validate() error {

	if _, err := pose.ParseRenderMode(c.Render.Mode); err != nil {
		return err
	}

	if c.Render.Threshold <= 0 || c.Render.Threshold > 1 {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"render.threshold %v not in range (0,1]", c.Render.Threshold)
	}

	if c.Render.LineThickness < 1 {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"render.line_thickness %d must be at least 1", c.Render.LineThickness)
	}

	if c.Render.JointRadius < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"render.joint_radius %d is negative", c.Render.JointRadius)
	}

	if c.Render.Labels && c.Render.LabelSize <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"render.label_size %v must be positive", c.Render.LabelSize)
	}

	colors := []struct {
		key   string
		value string
	}{
		{"render.edge_color", c.Render.EdgeColor},
		{"render.joint_color", c.Render.JointColor},
	}

	for _, clr := range colors {
		if clr.value == "" {
			continue
		}
		if _, err := pose.ParseHexColor(clr.value); err != nil {
			return errors.Mark(errors.Wrap(err, clr.key), errors.ErrInvalidConfig)
		}
	}

	if c.Face.Blur {

		if c.Face.Model == "" {
			return errors.WithHint(
				errors.Wrap(errors.ErrInvalidConfig, "face blur needs face.model"),
				"pass --face-model with an OpenCV DNN face detector, eg: res10_300x300_ssd_iter_140000.caffemodel")
		}

		if c.Face.MinConfidence < 0 || c.Face.MinConfidence > 1 {
			return errors.Wrapf(errors.ErrInvalidConfig,
				"face.min_confidence %v not in range 0-1", c.Face.MinConfidence)
		}

		if c.Face.NMSThreshold < 0 || c.Face.NMSThreshold > 1 {
			return errors.Wrapf(errors.ErrInvalidConfig,
				"face.nms_threshold %v not in range 0-1", c.Face.NMSThreshold)
		}

		if c.Face.InputSize < 0 {
			return errors.Wrapf(errors.ErrInvalidConfig,
				"face.input_size %d is negative", c.Face.InputSize)
		}

		switch c.Face.Detector {
		case DetectorSSD:
		case DetectorRetinaFace:
			if c.Face.InputSize != 0 && c.Face.InputSize != 320 && c.Face.InputSize != 640 {
				return errors.Wrapf(errors.ErrInvalidConfig,
					"face.input_size %d must be 320 or 640 for retinaface", c.Face.InputSize)
			}
		default:
			return errors.WithHint(
				errors.Wrapf(errors.ErrInvalidConfig, "unknown face.detector %q", c.Face.Detector),
				"use ssd or retinaface")
		}

		if c.Face.Padding < 0 {
			return errors.Wrapf(errors.ErrInvalidConfig,
				"face.padding %d is negative", c.Face.Padding)
		}
	}

	if c.Preview.Path != "" {

		if _, err := preview.FormatForPath(c.Preview.Path); err != nil {
			return err
		}

		if c.Preview.Frame < 0 || c.Preview.Width < 0 || c.Preview.Height < 0 {
			return errors.Wrap(errors.ErrInvalidConfig, "preview frame and size can not be negative")
		}

		if c.Preview.Quality < 1 || c.Preview.Quality > 100 {
			return errors.Wrapf(errors.ErrInvalidConfig,
				"preview.quality %d not in range 1-100", c.Preview.Quality)
		}
	}

	return nil
}

// RenderMode returns the parsed render mode
func (c *Config) RenderMode() pose.RenderMode {
	// validated on load
	m, _ := pose.ParseRenderMode(c.Render.Mode)
	return m
}

// LoadTopology returns the configured skeleton with edge color overrides
// applied
func (c *Config) LoadTopology() (*pose.Topology, error) {

	topo := pose.DefaultTopology()

	if c.Render.Topology != "" {
		var err error
		topo, err = pose.LoadTopology(c.Render.Topology)

		if err != nil {
			return nil, err
		}
	}

	switch {
	case c.Render.EdgePalette:
		topo = topo.Recolor(func(i int, _ pose.Edge) color.RGBA {
			return render.PaletteColor(i)
		})

	case c.Render.EdgeColor != "":
		clr, err := pose.ParseHexColor(c.Render.EdgeColor)

		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "render.edge_color"), errors.ErrInvalidConfig)
		}

		topo = topo.Recolor(func(int, pose.Edge) color.RGBA {
			return clr
		})
	}

	return topo, nil
}

// SkeletonStyle returns the rasterizer style
func (c *Config) SkeletonStyle() (render.SkeletonStyle, error) {

	style := render.DefaultSkeletonStyle()
	style.LineThickness = c.Render.LineThickness
	style.JointRadius = c.Render.JointRadius

	if c.Render.JointColor != "" {
		clr, err := pose.ParseHexColor(c.Render.JointColor)

		if err != nil {
			return style, errors.Mark(errors.Wrap(err, "render.joint_color"), errors.ErrInvalidConfig)
		}

		style.JointColor = clr
	}

	return style, nil
}

// LabelFont returns the joint label settings, or nil when labels are off
func (c *Config) LabelFont() (*render.LabelFont, error) {

	if !c.Render.Labels {
		return nil, nil
	}

	if c.Render.LabelFont == "" {
		lf := render.DefaultLabelFont()
		return &lf, nil
	}

	lf, err := render.LoadLabelFont(c.Render.LabelFont, c.Render.LabelSize)

	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "render.label_font"), errors.ErrInvalidConfig)
	}

	return &lf, nil
}

// DNNParams returns the face detector parameters
func (c *Config) DNNParams() face.DNNParams {

	p := face.ResNetSSDParams()
	p.MinConfidence = float32(c.Face.MinConfidence)

	if c.Face.InputSize > 0 {
		p.InputWidth = c.Face.InputSize
		p.InputHeight = c.Face.InputSize
	}

	return p
}

// RetinaFaceParams returns the RetinaFace detector parameters
func (c *Config) RetinaFaceParams() face.RetinaFaceParams {

	p := face.WiderFaceParams()
	p.ConfThreshold = float32(c.Face.MinConfidence)
	p.NMSThreshold = float32(c.Face.NMSThreshold)

	if c.Face.InputSize > 0 {
		p.InputSize = c.Face.InputSize
	}

	return p
}

// BlurParams returns the face blur parameters
func (c *Config) BlurParams() face.BlurParams {
	return face.BlurParams{
		KernelSize: c.Face.BlurKernel,
		Padding:    c.Face.Padding,
	}
}

// PreviewParams returns the still image parameters
func (c *Config) PreviewParams() preview.Params {
	return preview.Params{
		Width:    c.Preview.Width,
		Height:   c.Preview.Height,
		Quality:  c.Preview.Quality,
		Lossless: c.Preview.Lossless,
	}
}

// NewBlurrer loads the face detector and returns a Blurrer, or nil when
// blurring is off
func (c *Config) NewBlurrer() (*face.Blurrer, error) {

	if !c.Face.Blur {
		return nil, nil
	}

	var (
		det face.Detector
		err error
	)

	switch c.Face.Detector {
	case DetectorRetinaFace:
		det, err = face.NewRetinaFaceDetector(c.Face.Model, c.RetinaFaceParams())
	default:
		det, err = face.NewDNNDetector(c.Face.Model, c.Face.Config, c.DNNParams())
	}

	if err != nil {
		return nil, errors.WithHint(
			errors.Mark(err, errors.ErrIOOpen),
			"check face.model and face.config point to a network OpenCV can read")
	}

	return face.NewBlurrer(det, c.BlurParams()), nil
}
