package app

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// PrintSummary writes the human-readable outcome of a job to w.
func PrintSummary(w io.Writer, res Result) {
	fmt.Fprintf(w, "Job: %s\n", res.JobID)
	fmt.Fprintf(w, "Title: %s\n", res.Title)
	if res.Variant != "" {
		how := "download event"
		if res.FromScan {
			how = "downloads dir scan"
		}
		fmt.Fprintf(w, "Acquired via: %s (%s)\n", res.Variant, how)
	}
	fmt.Fprintf(w, "Source file: %s (%s)\n", res.ArtifactPath, res.Format)

	fmt.Fprintln(w, "Steps:")
	for _, s := range res.Steps {
		if s.Status == StatusSkipped {
			fmt.Fprintf(w, "  - %s: %s (%s)\n", s.Step, s.Status, s.Note)
			continue
		}
		fmt.Fprintf(w, "  - %s: %s in %s\n", s.Step, s.Status, s.Duration.Round(time.Millisecond))
	}

	fmt.Fprintf(w, "Files (%d):\n", len(res.Files))
	for i, f := range res.Files {
		words := 0
		if i < len(res.Chunks) {
			words = res.Chunks[i].WordCount
		}
		fmt.Fprintf(w, "  - %s (%d words)\n", f, words)
	}
	fmt.Fprintf(w, "Manifest: %s\n", res.ManifestPath)
}

// PrintFailure writes what a failed job left behind, if anything.
func PrintFailure(w io.Writer, err error) {
	var se *StepError
	if !errors.As(err, &se) {
		return
	}
	p := se.Partial
	for _, s := range p.Steps {
		fmt.Fprintf(w, "  - %s: %s\n", s.Step, s.Status)
	}
	fmt.Fprintf(w, "  - %s: %s\n", se.Step, StatusFailed)
	if p.ArtifactPath != "" {
		fmt.Fprintf(w, "Downloaded file kept: %s\n", p.ArtifactPath)
	}
	if p.RenderedPath != "" {
		fmt.Fprintf(w, "Rendered markdown kept: %s\n", p.RenderedPath)
	}
	for _, f := range p.Files {
		fmt.Fprintf(w, "Chunk written: %s\n", f)
	}
}
