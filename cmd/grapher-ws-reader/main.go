package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/cactusdynamics/grapher"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
)

type Config struct {
	ServerURL string
	Timeout   time.Duration
	Output    io.Writer
	Logger    logrus.FieldLogger
}

// WSReader downloads the curves of a served chart and writes them as CSV
// rows of series_id,label,x,y.
type WSReader struct {
	config    Config
	csvWriter *csv.Writer

	// Series labels in draw order, from the METADATA message.
	labels []string
}

func NewWSReader(config Config) *WSReader {
	return &WSReader{
		config:    config,
		csvWriter: csv.NewWriter(config.Output),
	}
}

func (w *WSReader) Connect(ctx context.Context) error {
	u, err := url.Parse(w.config.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"

	if w.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.Timeout)
		defer cancel()
	}

	w.config.Logger.WithField("url", u.String()).Info("connecting to websocket")

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := w.csvWriter.Write([]string{"series_id", "label", "x", "y"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for {
		_, messageData, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				w.config.Logger.Info("connection closed normally")
				break
			}
			return fmt.Errorf("reading message: %w", err)
		}

		if err := w.processMessage(messageData); err != nil {
			if err == io.EOF {
				w.config.Logger.Info("stream ended")
				break
			}
			return err
		}
	}

	w.csvWriter.Flush()
	return w.csvWriter.Error()
}

func (w *WSReader) processMessage(messageData []byte) error {
	msg, err := grapher.DecodeWSMessage(messageData)
	if err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}

	switch payload := msg.Payload.(type) {
	case grapher.Metadata:
		w.labels = w.labels[:0]
		for _, element := range payload.Elements {
			if element.Kind == grapher.ElementSeries {
				w.labels = append(w.labels, element.Label)
			}
		}
		w.config.Logger.WithFields(logrus.Fields{
			"title":  payload.ChartOptions.Title,
			"series": len(w.labels),
		}).Debug("received metadata")

	case grapher.DataMessage:
		return w.processDataMessage(payload)

	case grapher.StreamEndMessage:
		if payload.Error {
			return fmt.Errorf("stream ended with error: %s", payload.Msg)
		}
		return io.EOF
	}

	return nil
}

func (w *WSReader) processDataMessage(dataMsg grapher.DataMessage) error {
	seriesID := strconv.FormatUint(uint64(dataMsg.SeriesID), 10)

	label := ""
	if int(dataMsg.SeriesID) < len(w.labels) {
		label = w.labels[dataMsg.SeriesID]
	}

	for i := range dataMsg.X {
		row := []string{
			seriesID,
			label,
			strconv.FormatFloat(dataMsg.X[i], 'g', -1, 64),
			strconv.FormatFloat(dataMsg.Y[i], 'g', -1, 64),
		}
		if err := w.csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return nil
}

type Options struct {
	URL     string        `short:"u" long:"url" description:"URL of the grapher server" default:"http://localhost:5274"`
	Timeout time.Duration `long:"timeout" description:"give up after this long" default:"30s"`
}

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	reader := NewWSReader(Config{
		ServerURL: opts.URL,
		Timeout:   opts.Timeout,
		Output:    os.Stdout,
		Logger:    logger.WithField("tag", "WSReader"),
	})

	if err := reader.Connect(context.Background()); err != nil {
		logger.WithError(err).Error("failed to read chart")
		os.Exit(1)
	}
}
