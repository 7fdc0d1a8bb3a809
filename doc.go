/*
go-poseoverlay draws pose estimation skeletons over video.

A Pipeline reads the frames of a video in order, decodes the pose record with
the same index from a JSON pose feed, optionally blurs the most confident
face, filters out joints below the confidence threshold (and the lower body
in upper body mode) and rasterizes the remaining bones and joints before
writing the frame to the output video.  Frame index is the only link between
the video and the feed, a feed shorter than the video stops the run with
errors.ErrMissingFrameData.

The packages under this module can be used on their own:

	pose     topology table, feed decoding and the visibility filter
	render   skeleton and joint label drawing with gocv
	face     DNN face detection and region blur
	video    gocv video source and sink
	preview  still image export of a rendered frame

See cmd/poseoverlay for the command line tool.
*/
package poseoverlay
