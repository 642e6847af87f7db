package imageprocessor

import (
	"errors"
	"fmt"

	"shapefinder/types"

	"github.com/barasher/go-exiftool"
	"gocv.io/x/gocv"
)

// ErrExiftoolUnavailable is returned when the exiftool binary cannot be started
var ErrExiftoolUnavailable = errors.New("exiftool unavailable")

// metadataKeys are the exiftool tags reported by ReadMetadata
var metadataKeys = []string{
	"FileType",
	"MIMEType",
	"ImageWidth",
	"ImageHeight",
	"BitsPerSample",
	"ColorComponents",
	"FrameCount",
	"Duration",
}

// GetImageDetails reports the size of an image and whether it is grayscale.
// A three-channel image whose channels are identical counts as grayscale.
func GetImageDetails(path string) (types.ImageDetails, error) {
	details := types.ImageDetails{Path: path, Type: "Unknown"}

	var img gocv.Mat
	if IsLegacyFile(path) {
		var err error
		if img, err = LoadImage(path); err != nil {
			return details, err
		}
	} else {
		img = gocv.IMRead(path, gocv.IMReadUnchanged)
		if img.Empty() {
			img.Close()
			return details, newImageLoadError("failed to load image", path)
		}
	}
	defer img.Close()

	details.Width = img.Cols()
	details.Height = img.Rows()

	switch img.Channels() {
	case 1:
		details.Type = "Grayscale"
	case 3:
		if channelsIdentical(img) {
			details.Type = "Grayscale"
		} else {
			details.Type = "RGB"
		}
	}

	return details, nil
}

func channelsIdentical(img gocv.Mat) bool {
	channels := gocv.Split(img)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	diff := gocv.NewMat()
	defer diff.Close()

	for _, other := range channels[1:] {
		gocv.AbsDiff(channels[0], other, &diff)
		if gocv.CountNonZero(diff) != 0 {
			return false
		}
	}
	return true
}

// ReadMetadata extracts a few descriptive tags with exiftool
func ReadMetadata(path string) (map[string]string, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExiftoolUnavailable, err)
	}
	defer et.Close()

	fileInfos := et.ExtractMetadata(path)
	if len(fileInfos) == 0 {
		return nil, fmt.Errorf("no metadata extracted for %s", path)
	}

	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		return nil, fmt.Errorf("error extracting metadata for %s: %w", path, fileInfo.Err)
	}

	metadata := make(map[string]string)
	for _, key := range metadataKeys {
		if value, ok := fileInfo.Fields[key]; ok {
			metadata[key] = fmt.Sprint(value)
		}
	}
	return metadata, nil
}
