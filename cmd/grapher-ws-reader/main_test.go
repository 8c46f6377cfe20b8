package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cactusdynamics/grapher"
	"github.com/sirupsen/logrus"
)

func startChartServer(t *testing.T, spec grapher.ChartSpec) string {
	t.Helper()

	chart, err := grapher.Render(context.Background(), spec)
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}

	server, err := grapher.NewHttpServer(chart, "127.0.0.1", 0, false)
	if err != nil {
		t.Fatalf("NewHttpServer() failed: %v", err)
	}

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	return srv.URL
}

func writeDataFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func readChart(t *testing.T, serverURL string) []string {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	var output bytes.Buffer
	reader := NewWSReader(Config{
		ServerURL: serverURL,
		Timeout:   5 * time.Second,
		Output:    &output,
		Logger:    logger,
	})

	if err := reader.Connect(context.Background()); err != nil {
		t.Fatalf("WSReader.Connect() failed: %v", err)
	}

	return strings.Split(strings.TrimSpace(output.String()), "\n")
}

func TestWSReaderLineChart(t *testing.T) {
	first := writeDataFile(t, "a.txt", "1 10.5\n2 11.2\n3 12.8\n")
	second := writeDataFile(t, "b.txt", "1 20.3\n2 21.1\n")

	serverURL := startChartServer(t, grapher.ChartSpec{
		Kind: grapher.KindLine,
		Series: []grapher.Series{
			{Path: first, Label: "Series1"},
			{Path: second, Label: "Series2"},
		},
		Title: "Test Data",
	})

	lines := readChart(t, serverURL)

	want := []string{
		"series_id,label,x,y",
		"0,Series1,1,10.5",
		"0,Series1,2,11.2",
		"0,Series1,3,12.8",
		"1,Series2,1,20.3",
		"1,Series2,2,21.1",
	}

	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestWSReaderCDFChart(t *testing.T) {
	path := writeDataFile(t, "samples.txt", "3\n1\n4\n2\n")

	serverURL := startChartServer(t, grapher.ChartSpec{
		Kind:   grapher.KindCDF,
		Series: []grapher.Series{{Path: path, Label: "latency"}},
	})

	lines := readChart(t, serverURL)

	want := []string{
		"series_id,label,x,y",
		"0,latency,1,0",
		"0,latency,2,0.25",
		"0,latency,3,0.5",
		"0,latency,4,0.75",
	}

	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}
}

func TestWSReaderEmptyChart(t *testing.T) {
	serverURL := startChartServer(t, grapher.ChartSpec{
		Kind:  grapher.KindLine,
		Title: "Test Empty Data",
	})

	lines := readChart(t, serverURL)

	if len(lines) != 1 {
		t.Errorf("expected only header line, got %d lines", len(lines))
	}

	expectedHeader := "series_id,label,x,y"
	if lines[0] != expectedHeader {
		t.Errorf("expected header %q, got %q", expectedHeader, lines[0])
	}
}

func TestWSReaderInvalidURL(t *testing.T) {
	reader := NewWSReader(Config{
		ServerURL: "://bad",
		Output:    io.Discard,
		Logger:    logrus.New(),
	})

	if err := reader.Connect(context.Background()); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}
