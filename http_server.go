package grapher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
)

// Serves one rendered chart to browser tabs. The images and the websocket
// stream are encoded once up front, so handlers only copy bytes.
type HttpServer struct {
	host     string
	port     uint16
	metadata Metadata

	svg    []byte
	png    []byte
	stream [][]byte

	// When false, the chart URL is only logged.
	openBrowser bool

	writeTimeout time.Duration

	mux    *http.ServeMux
	logger logrus.FieldLogger
}

func NewHttpServer(chart *Chart, host string, port uint16, openBrowser bool) (*HttpServer, error) {
	s := &HttpServer{
		host:         host,
		port:         port,
		metadata:     NewMetadata(chart),
		openBrowser:  openBrowser,
		writeTimeout: 5 * time.Second,
		mux:          http.NewServeMux(),
		logger:       logrus.WithField("tag", "HttpServer"),
	}

	var buf bytes.Buffer
	if _, err := chart.WriteTo(&buf, "svg"); err != nil {
		return nil, fmt.Errorf("encoding svg: %w", err)
	}
	s.svg = bytes.Clone(buf.Bytes())

	buf.Reset()
	if _, err := chart.WriteTo(&buf, "png"); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	s.png = bytes.Clone(buf.Bytes())

	stream, err := EncodeChartStream(chart)
	if err != nil {
		return nil, fmt.Errorf("encoding chart stream: %w", err)
	}
	s.stream = stream

	subFS, err := fs.Sub(webuiFiles, "webui")
	if err != nil {
		return nil, err
	}

	s.mux.Handle("/", http.FileServer(http.FS(subFS)))
	s.mux.HandleFunc("/chart.svg", s.handleImage("image/svg+xml", s.svg))
	s.mux.HandleFunc("/chart.png", s.handleImage("image/png", s.png))
	s.mux.HandleFunc("/metadata", s.handleMetadata)
	s.mux.HandleFunc("/ws", s.handleWebSocket)

	return s, nil
}

func (s *HttpServer) handleImage(contentType string, data []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		if _, err := w.Write(data); err != nil {
			s.logger.WithError(err).WithField("path", req.URL.Path).Warn("failed to write image")
		}
	}
}

func (s *HttpServer) handleMetadata(w http.ResponseWriter, req *http.Request) {
	data, err := json.Marshal(s.metadata)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.Write(data)
}

// Sends the chart stream and closes normally. Clients never send anything.
func (s *HttpServer) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.WithError(err).Warn("failed to accept new websocket connection")
		return
	}

	ctx := c.CloseRead(req.Context())

	for i, msg := range s.stream {
		writeCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
		err := c.Write(writeCtx, websocket.MessageBinary, msg)
		cancel()
		if err != nil {
			s.logger.WithError(err).WithField("message", i).Warn("websocket write failed")
			c.Close(websocket.StatusInternalError, "write failed")
			return
		}
	}

	s.logger.WithField("messages", len(s.stream)).Debug("sent chart stream")
	c.Close(websocket.StatusNormalClosure, "")
}

func (s *HttpServer) Handler() http.Handler {
	return s.mux
}

// Serves until ctx is canceled. The browser is opened once the listener is up.
func (s *HttpServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", net.JoinHostPort(s.host, strconv.Itoa(int(s.port))))
	if err != nil {
		return err
	}

	server := &http.Server{Handler: s.mux}

	url := fmt.Sprintf("http://%s", listener.Addr().String())
	s.logger.Infof("serving chart at %s", url)
	if s.openBrowser {
		openBrowser(url)
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Warn("server shutdown")
		}
	}()

	err = server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		<-shutdownDone
		return nil
	}

	return err
}
