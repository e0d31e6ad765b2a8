package main

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name         string
		file         string
		bitrate      string
		wantIn       string
		wantOut      string
		wantKbps     int
		wantDownload string
	}{
		{"mov with bitrate", "Holiday.MOV", "128", "input.mov", "input.out.mp4", 128, "Holiday.mp4"},
		{"default bitrate", "clip.webm", "", "input.webm", "input.out.mp4", 30, "clip.mp4"},
		{"garbage bitrate", "clip.avi", "loud", "input.avi", "input.out.mp4", 30, "clip.mp4"},
		{"mp4 input", "phone.mp4", "96", "input.mp4", "input.out.mp4", 96, "phone.mp4"},
		{"no extension", "recording", "64", "input.bin", "input.out.mp4", 64, "recording.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPlan(tt.file, tt.bitrate)
			if p.InputName != tt.wantIn || p.OutputName != tt.wantOut {
				t.Errorf("names = %q/%q, want %q/%q", p.InputName, p.OutputName, tt.wantIn, tt.wantOut)
			}
			if p.BitrateKbps != tt.wantKbps {
				t.Errorf("BitrateKbps = %d, want %d", p.BitrateKbps, tt.wantKbps)
			}
			if p.DownloadName != tt.wantDownload {
				t.Errorf("DownloadName = %q, want %q", p.DownloadName, tt.wantDownload)
			}
			if p.InputName == p.OutputName {
				t.Error("input and output share a virtual file")
			}
			if p.Args[len(p.Args)-1] != p.OutputName {
				t.Errorf("last argument = %q, want the output name", p.Args[len(p.Args)-1])
			}
		})
	}
}

func TestNewPlanArgsMatchServer(t *testing.T) {
	p := newPlan("clip.mkv", "48")
	want := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", "input.mkv",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-c:a", "aac",
		"-b:a", "48k",
		"-movflags", "+faststart",
		"input.out.mp4",
	}
	if !reflect.DeepEqual(p.Args, want) {
		t.Errorf("Args = %q\nwant %q", p.Args, want)
	}
}

func TestProgressReporter(t *testing.T) {
	var got []int
	report := progressReporter(func(pct int) { got = append(got, pct) })

	for _, ratio := range []float64{0, -1, 0.004, 0.1, 0.101, 0.5, 1.0, 1.2, 1.0} {
		report(ratio)
	}

	want := []int{0, 10, 50, 100}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reported %v, want %v", got, want)
	}
}

func TestUserError(t *testing.T) {
	cause := errors.New("SharedArrayBuffer unavailable")
	err := failWith(msgUnavailable, cause)

	if err.Error() != msgUnavailable {
		t.Errorf("Error() = %q, want the user message only", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through errors.Is")
	}
}
