package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/amfctl/internal/protocol/amf"
	"github.com/danmuck/amfctl/internal/protocol/packet"
	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var inspectCmd = &cli.Command{
	Name:      "inspect",
	Usage:     "decode captured AMF packets and print them as JSON",
	ArgsUsage: "FILE...",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "jobs", Value: 4, Usage: "files decoded at once"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return fmt.Errorf("%w: FILE", errArgs)
		}
		reports, err := inspectFiles(c.Args().Slice(), c.Int("jobs"))
		if err != nil {
			return err
		}
		return writeReports(c.App.Writer, reports)
	},
}

type packetReport struct {
	File    string         `json:"file"`
	Size    string         `json:"size"`
	Version string         `json:"version"`
	Headers []headerReport `json:"headers"`
	Bodies  []bodyReport   `json:"bodies"`
}

type headerReport struct {
	Name           string `json:"name"`
	MustUnderstand bool   `json:"must_understand"`
	Value          any    `json:"value"`
}

type bodyReport struct {
	Target   string `json:"target"`
	Response string `json:"response"`
	Value    any    `json:"value"`
}

// inspectFiles decodes every file with at most jobs in flight. Reports keep
// the order of paths.
func inspectFiles(paths []string, jobs int) ([]packetReport, error) {
	reports := make([]packetReport, len(paths))
	var g errgroup.Group
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			r, err := inspectFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func inspectFile(path string) (packetReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return packetReport{}, err
	}
	p, err := packet.Decode(raw)
	if err != nil {
		return packetReport{}, err
	}
	r := packetReport{
		File:    path,
		Size:    humanize.Bytes(uint64(len(raw))),
		Version: p.Version.String(),
		Headers: make([]headerReport, 0, len(p.Headers)),
		Bodies:  make([]bodyReport, 0, len(p.Bodies)),
	}
	for _, h := range p.Headers {
		r.Headers = append(r.Headers, headerReport{Name: h.Name, MustUnderstand: h.MustUnderstand, Value: amf.ToNative(h.Data)})
	}
	for _, b := range p.Bodies {
		r.Bodies = append(r.Bodies, bodyReport{Target: b.TargetURI, Response: b.ResponseURI, Value: amf.ToNative(b.Data)})
	}
	return r, nil
}

// writeReports renders every report before writing any of them, so a
// failure leaves w untouched.
func writeReports(w io.Writer, reports []packetReport) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	for _, r := range reports {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("%s: %w", r.File, err)
		}
	}
	_, err := buf.WriteTo(w)
	return err
}
