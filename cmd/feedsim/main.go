package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/nats-io/nats.go"

	"camwatch/internal/event"
)

const (
	frameWidth  = 640
	frameHeight = 480
)

func main() {
	url := flag.String("url", nats.DefaultURL, "NATS endpoint")
	cameras := flag.Int("cameras", 2, "number of simulated cameras")
	fps := flag.Int("fps", 5, "frames per second per camera")
	matchEvery := flag.Int("match-every", 20, "emit a match every N frames")
	alertEvery := flag.Int("alert-every", 100, "emit an alert every N frames")
	flag.Parse()

	nc, err := nats.Connect(*url, nats.Name("feedsim"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: connect to %s failed: %v\n", *url, err)
		os.Exit(1)
	}
	defer nc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	fmt.Printf("Publishing %d cameras at %d fps to %s\n", *cameras, *fps, *url)
	run(ctx, nc, *cameras, *fps, *matchEvery, *alertEvery)
}

func run(ctx context.Context, nc *nats.Conn, cameras, fps, matchEvery, alertEvery int) {
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var seq int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		seq++
		for cam := 0; cam < cameras; cam++ {
			cameraID := fmt.Sprintf("cam-%02d", cam+1)
			trackerID := cam*10 + 1
			frame := makeFrame(cameraID, seq, trackerID)

			data, err := json.Marshal(frame)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: encode frame: %v\n", err)
				continue
			}
			if err := nc.Publish(event.TopicTrackerFrames, data); err != nil {
				fmt.Fprintf(os.Stderr, "Error: publish frame: %v\n", err)
			}

			if matchEvery > 0 && seq%int64(matchEvery) == 0 {
				publishMatch(nc, cameraID, trackerID, seq)
			}
		}

		if alertEvery > 0 && seq%int64(alertEvery) == 0 {
			publishAlert(nc, seq)
		}
	}
}

// makeFrame renders one synthetic frame: a dark background with a
// bright square orbiting the center, and a detection box following it.
func makeFrame(cameraID string, seq int64, trackerID int) event.FrameRecord {
	img := imaging.New(frameWidth, frameHeight, color.NRGBA{R: 24, G: 28, B: 34, A: 255})

	angle := float64(seq) / 10.0
	cx := frameWidth/2 + int(140*math.Cos(angle))
	cy := frameHeight/2 + int(100*math.Sin(angle))

	boxW, boxH := 80, 100
	face := imaging.New(boxW, boxH, color.NRGBA{R: 200, G: 170, B: 140, A: 255})
	img = imaging.Paste(img, face, image.Pt(cx-boxW/2, cy-boxH/2))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 70}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode jpeg: %v\n", err)
	}

	det := event.FaceDetection{
		TrackerID: trackerID,
		Box: event.BoundingBox{
			X: cx - boxW/2,
			Y: cy - boxH/2,
			W: boxW,
			H: boxH,
		},
	}
	// Every third orbit the subject is "recognized".
	if (seq/30)%3 == 0 {
		det.SubjectID = fmt.Sprintf("subject-%d", trackerID)
	}

	return event.FrameRecord{
		CameraID:   cameraID,
		Sequence:   seq,
		Image:      buf.Bytes(),
		Detections: []event.FaceDetection{det},
	}
}

func publishMatch(nc *nats.Conn, cameraID string, trackerID int, seq int64) {
	match := event.MatchRecord{
		SubjectID:  fmt.Sprintf("subject-%d", trackerID),
		TrackerID:  trackerID,
		Confidence: 0.60 + float64(seq%40)/100.0,
		ObservedAt: time.Now(),
	}
	data, err := json.Marshal(match)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode match: %v\n", err)
		return
	}
	if err := nc.Publish(event.TopicMatches, data); err != nil {
		fmt.Fprintf(os.Stderr, "Error: publish match: %v\n", err)
		return
	}

	// Flag the track alongside the match so the viewer shows the
	// alert-decay behavior.
	tag, _ := json.Marshal(event.TagRequest{TrackerID: trackerID, Tag: event.TagAlert})
	if err := nc.Publish(event.TopicColor, tag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: publish tag: %v\n", err)
	}

	fmt.Printf("match: %s on %s (tracker %d)\n", match.SubjectID, cameraID, trackerID)
}

func publishAlert(nc *nats.Conn, seq int64) {
	data, _ := json.Marshal(event.AlertSignal{Level: event.AlertActive})
	if err := nc.Publish(event.TopicAlert, data); err != nil {
		fmt.Fprintf(os.Stderr, "Error: publish alert: %v\n", err)
		return
	}
	fmt.Printf("alert raised at seq %d\n", seq)
}
