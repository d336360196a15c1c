package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"gonum.org/v1/plot/vg"

	"github.com/stojg/lstsq/sgd"
	"github.com/stojg/lstsq/synth"
	"github.com/stojg/lstsq/trace"
)

var debug bool
var logScale bool

var rows = 200
var cols = 50
var noise = -1.0
var learnRate = "0.001"
var epochs = 500
var batchSize = 1
var tolerance = 1e-6
var precision = "float64"
var seed int64 = -1
var solver = "pinv"
var initial = "zeros"

var name = "sgd"
var outDir = "."
var imageFormat = "png"
var traceCodec = "none"

var region = ""
var bucket = ""
var namespace = ""

func main() {
	flag.BoolVar(&debug, "d", false, "debug, log every epoch")
	flag.IntVar(&rows, "rows", rows, "training rows")
	flag.IntVar(&cols, "cols", cols, "features")
	flag.Float64Var(&noise, "noise", noise, "observation noise stddev, negative means cols/40")
	flag.StringVar(&learnRate, "lr", learnRate, "learning rate, one value or a comma separated value per feature")
	flag.IntVar(&epochs, "epochs", epochs, "maximum number of epochs")
	flag.IntVar(&batchSize, "batch", batchSize, "mini-batch size")
	flag.Float64Var(&tolerance, "tol", tolerance, "step size below which a batch counts as stable")
	flag.StringVar(&precision, "precision", precision, "float32 or float64")
	flag.Int64Var(&seed, "seed", seed, "random seed, negative for a random run")
	flag.StringVar(&solver, "solver", solver, "reference solver (pinv, normal, minnorm)")
	flag.StringVar(&initial, "init", initial, "starting point (zeros, random)")
	flag.StringVar(&name, "name", name, "experiment name, used for file names and metric dimensions")
	flag.StringVar(&outDir, "out", outDir, "directory for plots and traces, empty to skip")
	flag.StringVar(&imageFormat, "format", imageFormat, "plot format (png, svg, pdf)")
	flag.BoolVar(&logScale, "log-scale", false, "plot the error trace on a log axis")
	flag.StringVar(&traceCodec, "trace-codec", traceCodec, "trace compression (none, zstd, lz4)")
	flag.StringVar(&region, "region", region, "AWS region, required for -bucket and -namespace")
	flag.StringVar(&bucket, "bucket", bucket, "S3 bucket to upload plots and traces to")
	flag.StringVar(&namespace, "namespace", namespace, "CloudWatch namespace to publish run metrics to")
	flag.Parse()

	exp, err := newExperiment()
	if err != nil {
		log.Fatal(err)
	}
	codec, err := trace.ParseCodec(traceCodec)
	if err != nil {
		log.Fatal(err)
	}
	if (bucket != "" || namespace != "") && region == "" {
		log.Fatal("-region is required to talk to AWS")
	}

	r, err := runExperiment(exp)
	if err != nil {
		log.Fatal(err)
	}
	r.print(os.Stdout)

	failed := false
	if outDir != "" {
		for _, a := range artifacts(r, codec) {
			path := filepath.Join(outDir, a.name)
			if err := saveArtifact(path, a); err != nil {
				fmt.Fprintf(os.Stderr, "Could not write %s: %v\n", path, err)
				failed = true
				continue
			}
			fmt.Printf("wrote %s\n", path)
		}
	}

	if bucket != "" || namespace != "" {
		sess := session.Must(session.NewSession(&aws.Config{Region: aws.String(region)}))
		if bucket != "" && !upload(newArtifactStore(sess, bucket), artifacts(r, codec)) {
			failed = true
		}
		if namespace != "" {
			if err := newMetricPublisher(sess, namespace, name).publish(r); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to publish metrics for '%s': %v\n", name, err)
				failed = true
			}
		}
	}

	if failed {
		os.Exit(1)
	}
}

func newExperiment() (experiment, error) {
	rates, err := parseLearnRate(learnRate)
	if err != nil {
		return experiment{}, err
	}
	prec, err := sgd.ParsePrecision(precision)
	if err != nil {
		return experiment{}, err
	}

	data := synth.DefaultConfig(rows, cols)
	if noise >= 0 {
		data.Noise = noise
	}

	cfg := sgd.DefaultConfig()
	cfg.LearnRate = rates
	cfg.Epochs = epochs
	cfg.BatchSize = batchSize
	cfg.Tolerance = tolerance
	cfg.Precision = prec
	if debug {
		cfg.Logger = log.New(os.Stderr, "sgd ", log.LstdFlags)
	}
	return experiment{data: data, seed: seed, sgd: cfg, solver: solver, init: initial}, nil
}

func parseLearnRate(s string) ([]float64, error) {
	var rates []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("could not parse learning rate %q: %v", part, err)
		}
		rates = append(rates, v)
	}
	return rates, nil
}

// artifact is one output file of a run.
type artifact struct {
	name        string
	contentType string
	write       func(io.Writer) error
}

func artifacts(r *report, codec trace.Codec) []artifact {
	var out []artifact
	// w/h - A4 (1:1.414)
	width, height := vg.Length(1024), vg.Length(1024*(1/1.414))

	if len(r.result.Trace) > 0 {
		out = append(out, artifact{
			name:        name + "-trace." + imageFormat,
			contentType: contentType(imageFormat),
			write: func(w io.Writer) error {
				p := createPlot(name + " error trace")
				if err := plotTrace(p, r, logScale); err != nil {
					return err
				}
				return writePlot(w, p, width, height, imageFormat)
			},
		})
		out = append(out, artifact{
			name:        name + "-trace" + codec.Ext(),
			contentType: codec.ContentType(),
			write: func(w io.Writer) error {
				return trace.Write(w, r.result.Trace, codec)
			},
		})
	}

	out = append(out, artifact{
		name:        name + "-compare." + imageFormat,
		contentType: contentType(imageFormat),
		write: func(w io.Writer) error {
			p := createPlot(name + " sgd vs " + solver)
			if err := plotComparison(p, r); err != nil {
				return err
			}
			return writePlot(w, p, width, width, imageFormat)
		},
	})
	return out
}

func contentType(format string) string {
	switch strings.ToLower(format) {
	case "png":
		return "image/png"
	case "svg":
		return "image/svg+xml"
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	}
	return "application/octet-stream"
}

func saveArtifact(path string, a artifact) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %v", path, err)
	}
	if err := a.write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close output file %v", err)
	}
	return nil
}

func upload(store *artifactStore, list []artifact) bool {
	if err := store.ensureBucket(); err != nil {
		fmt.Fprintf(os.Stderr, "Could not use bucket %q: %v\n", store.bucket, err)
		return false
	}
	ok := true
	for _, a := range list {
		link, err := store.pipe(a.name, a.contentType, a.write)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not upload %s: %v\n", a.name, err)
			ok = false
			continue
		}
		fmt.Printf("%s: %s\n", a.name, link)
	}
	return ok
}
