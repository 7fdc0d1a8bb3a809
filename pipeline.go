package poseoverlay

import (
	"time"

	"github.com/google/uuid"
	"github.com/swdee/go-poseoverlay/errors"
	"github.com/swdee/go-poseoverlay/face"
	"github.com/swdee/go-poseoverlay/logger"
	"github.com/swdee/go-poseoverlay/pose"
	"github.com/swdee/go-poseoverlay/preview"
	"github.com/swdee/go-poseoverlay/render"
	"github.com/swdee/go-poseoverlay/video"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// State is the lifecycle state of a Pipeline run
type State int

const (
	// StateOpening is opening the video source and sink
	StateOpening State = iota
	// StateStreaming is rendering frames
	StateStreaming
	// StateDrained is the source ran out of frames, the run succeeded
	StateDrained
	// StateFailed is the run stopped on an error
	StateFailed
)

// String returns the state name used in logs
func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateStreaming:
		return "streaming"
	case StateDrained:
		return "drained"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the outcome of a run
type Result struct {
	State State
	// Frames is the number of frames written to the sink
	Frames int
}

// SourceOpener opens the input video
type SourceOpener func(path string) (video.Source, error)

// SinkOpener creates the output video matching the input stream
type SinkOpener func(path string, info video.StreamInfo) (video.Sink, error)

// OpenFileSource opens a video file with gocv
func OpenFileSource(path string) (video.Source, error) {

	src, err := video.OpenSource(path)

	if err != nil {
		return nil, err
	}

	return src, nil
}

// OpenFileSink creates a video file with gocv
func OpenFileSink(path string, info video.StreamInfo) (video.Sink, error) {

	sink, err := video.OpenSink(path, info)

	if err != nil {
		return nil, err
	}

	return sink, nil
}

// Options are the collaborators of a Pipeline.  Topology is required, all
// others have defaults.
type Options struct {
	Topology *pose.Topology
	// Threshold defaults to pose.DefaultThreshold when zero
	Threshold float64
	Mode      pose.RenderMode
	Style     render.SkeletonStyle
	// Labels draws joint names when set
	Labels *render.LabelFont
	// Blurrer obscures faces before drawing when set
	Blurrer *face.Blurrer
	// Preview saves one rendered frame when set
	Preview    *preview.Writer
	Reporter   Reporter
	OpenSource SourceOpener
	OpenSink   SinkOpener
}

// Pipeline renders the pose feed onto a video, one frame at a time in
// lockstep with the frame index
type Pipeline struct {
	decoder  *pose.Decoder
	filter   *pose.Filter
	style    render.SkeletonStyle
	labels   *render.LabelFont
	topo     *pose.Topology
	blurrer  *face.Blurrer
	preview  *preview.Writer
	reporter Reporter
	openSrc  SourceOpener
	openSink SinkOpener
	stats    *Stats
	state    State
	runID    string
	log      *zap.SugaredLogger
}

// NewPipeline returns a Pipeline ready to Run
func NewPipeline(opts Options) *Pipeline {

	if opts.Threshold == 0 {
		opts.Threshold = pose.DefaultThreshold
	}

	if opts.Style == (render.SkeletonStyle{}) {
		opts.Style = render.DefaultSkeletonStyle()
	}

	if opts.Reporter == nil {
		opts.Reporter = NopReporter{}
	}

	if opts.OpenSource == nil {
		opts.OpenSource = OpenFileSource
	}

	if opts.OpenSink == nil {
		opts.OpenSink = OpenFileSink
	}

	runID := uuid.NewString()

	return &Pipeline{
		decoder:  pose.NewDecoder(opts.Topology),
		filter:   pose.NewFilter(opts.Topology, opts.Threshold, opts.Mode),
		style:    opts.Style,
		labels:   opts.Labels,
		topo:     opts.Topology,
		blurrer:  opts.Blurrer,
		preview:  opts.Preview,
		reporter: opts.Reporter,
		openSrc:  opts.OpenSource,
		openSink: opts.OpenSink,
		stats:    NewStats(opts.Topology),
		state:    StateOpening,
		runID:    runID,
		log: logger.With(
			logger.FieldRunID, runID,
			logger.FieldComponent, "pipeline",
		),
	}
}

// RunID returns the identifier attached to every log entry of the run
func (p *Pipeline) RunID() string {
	return p.runID
}

// State returns the current state
func (p *Pipeline) State() State {
	return p.state
}

// Stats returns the joint statistics of the frames rendered so far
func (p *Pipeline) Stats() *Stats {
	return p.stats
}

// Run renders every frame of the input video with its pose record and
// writes it to the output video.  The source and sink are closed before Run
// returns on every path.  Frames written before an error stay in the output.
func (p *Pipeline) Run(feed *pose.Feed, input, output string) (Result, error) {

	start := time.Now()

	p.log.Infow("starting run",
		logger.FieldFile, input,
		logger.FieldMode, p.filter.Mode().String(),
		logger.FieldCount, feed.Len(),
	)

	res, err := p.run(feed, input, output)

	p.reporter.Finish(res)
	p.stats.Log(p.log)

	if err != nil {
		p.log.Errorw("run failed",
			logger.FieldState, res.State.String(),
			logger.FieldFrame, res.Frames,
			logger.FieldErrorClass, errors.Class(err),
			logger.FieldError, err,
		)
		return res, err
	}

	p.log.Infow("run complete",
		logger.FieldState, res.State.String(),
		logger.FieldCount, res.Frames,
		logger.FieldFile, output,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	)

	return res, nil
}

// run drives the state machine, deferred closes run before Run reports the
// result
func (p *Pipeline) run(feed *pose.Feed, input, output string) (res Result, err error) {

	p.setState(&res, StateOpening)

	src, err := p.openSrc(input)

	if err != nil {
		return p.fail(res, markIOOpen(err, "error opening input %s", input))
	}

	defer func() {
		if cerr := src.Close(); cerr != nil {
			p.log.Warnw("error closing input", logger.FieldError, cerr)
		}
	}()

	info := src.Info()

	p.log.Debugw("input opened",
		logger.FieldWidth, info.Width,
		logger.FieldHeight, info.Height,
		logger.FieldFPS, info.FPS,
		logger.FieldTotal, info.FrameCount,
	)

	sink, err := p.openSink(output, info)

	if err != nil {
		return p.fail(res, markIOOpen(err, "error opening output %s", output))
	}

	p.log.Debugw("output opened",
		logger.FieldFile, output,
		logger.FieldCodec, video.CodecForPath(output),
	)

	defer func() {
		cerr := sink.Close()

		switch {
		case cerr == nil:
		case err != nil:
			// the run already failed, keep its error
			p.log.Warnw("error closing output", logger.FieldError, cerr)
		default:
			// the encoder finalizes the container on close
			res, err = p.fail(res, errors.Mark(
				errors.Wrapf(cerr, "error closing output %s", output), errors.ErrFrameWrite))
		}
	}()

	img := gocv.NewMat()
	defer img.Close()

	p.setState(&res, StateStreaming)
	p.reporter.Start(info.FrameCount)

	// a zero frame count means the container did not report one, the source
	// alone bounds the loop
	for index := 0; info.FrameCount <= 0 || index < info.FrameCount; index++ {

		if !src.Read(&img) {
			p.log.Debugw("source exhausted", logger.FieldFrame, index)
			break
		}

		if err := p.renderFrame(feed, index, &img); err != nil {
			return p.fail(res, err)
		}

		if err := sink.Write(img); err != nil {
			if !errors.Is(err, errors.ErrFrameWrite) {
				err = errors.Mark(err, errors.ErrFrameWrite)
			}
			return p.fail(res, errors.Wrapf(err, "frame %d", index))
		}

		res.Frames++
		p.reporter.Frame(index)

		if p.preview != nil && p.preview.Wants(index) {
			// a failed preview does not spoil the video
			if err := p.preview.Write(img); err != nil {
				p.log.Warnw("preview not saved",
					logger.FieldFrame, index,
					logger.FieldError, err,
				)
			}
		}
	}

	p.setState(&res, StateDrained)

	return res, nil
}

// renderFrame decodes the frame's pose and draws it in place
func (p *Pipeline) renderFrame(feed *pose.Feed, index int, img *gocv.Mat) error {

	frame, err := p.decoder.Decode(feed, index)

	if err != nil {
		return err
	}

	if p.blurrer != nil {
		box, ok, err := p.blurrer.Apply(img)

		if err != nil {
			return errors.Wrapf(err, "frame %d", index)
		}

		if ok {
			p.log.Debugw("face blurred", logger.FieldFrame, index, "box", box.String())
		}
	}

	vis := p.filter.Apply(frame)

	// bones, then labels, then joints so joints are always top most
	render.Bones(img, vis.Edges, p.style)

	if p.labels != nil {
		if err := render.JointLabels(img, vis.Joints, p.topo, *p.labels); err != nil {
			return errors.Mark(errors.Wrapf(err, "frame %d", index), errors.ErrFrameDecode)
		}
	}

	render.Joints(img, vis.Joints, p.style)

	p.stats.Add(frame, vis)

	return nil
}

// setState moves the pipeline and result to the given state
func (p *Pipeline) setState(res *Result, s State) {
	p.state = s
	res.State = s
	p.log.Debugw("state", logger.FieldState, s.String())
}

// fail moves to the failed state and returns the error
func (p *Pipeline) fail(res Result, err error) (Result, error) {
	p.setState(&res, StateFailed)
	return res, err
}

// markIOOpen wraps an open failure so it is classed as ErrIOOpen
func markIOOpen(err error, format string, args ...interface{}) error {

	err = errors.Wrapf(err, format, args...)

	if !errors.Is(err, errors.ErrIOOpen) {
		err = errors.Mark(err, errors.ErrIOOpen)
	}

	return err
}
