package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/cellwire/cellwire"
	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kataras/golog"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	itersKey    = "iters"
	widthKey    = "width"
	layersKey   = "layers"
	nSourcesKey = "sources"
)

func main() {
	cmd := &cli.Command{
		Name:  "cellbench",
		Usage: "Benchmark cellwire graph propagation",
		Commands: []*cli.Command{
			{
				Name:  "propagate",
				Usage: "Time write propagation through W x D chains of derived nodes",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  itersKey,
						Usage: "Writes per grid configuration",
						Value: 100,
					},
				},
				Action: runPropagate,
			},
			{
				Name:  "layers",
				Usage: "Time a layered graph with fan-in and mixed read/write load",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  widthKey,
						Usage: "Sources in the first layer",
						Value: 10,
					},
					&cli.UintFlag{
						Name:  layersKey,
						Usage: "Derived layers stacked on the sources",
						Value: 5,
					},
					&cli.UintFlag{
						Name:  nSourcesKey,
						Usage: "Fan-in per derived node",
						Value: 2,
					},
					&cli.UintFlag{
						Name:  itersKey,
						Usage: "Write/read iterations",
						Value: 10000,
					},
				},
				Action: runLayers,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		golog.Fatal(err)
	}
}

func addOneNode(g *cellwire.Graph, prev cellwire.Node) *cellwire.Derived[int] {
	return cellwire.NewDerived(g, cellwire.Deps{"prev": prev}, func(ctx *cellwire.Ctx) (int, error) {
		v, err := cellwire.Dep[int](ctx, "prev")
		return v + 1, err
	})
}

func runPropagate(ctx context.Context, cmd *cli.Command) error {
	iters := int(cmd.Uint(itersKey))
	ww := []int{1, 10, 100}
	dd := []int{1, 10, 100}

	golog.Infof("propagate: %s writes per configuration, warming up", humanize.Comma(int64(iters)))

	tbl := table.NewWriter()
	tbl.SetTitle("cellwire propagate")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "checksum"})

	for _, w := range ww {
		for _, d := range dd {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})
			digest := xxhash.New()

			g := cellwire.New()
			src := cellwire.NewSource(g, 1)
			for i := 0; i < w; i++ {
				var last cellwire.Node = src
				for j := 0; j < d; j++ {
					last = addOneNode(g, last)
				}
				tail := last.(*cellwire.Derived[int])
				tail.On(func() {
					v, err := tail.Get()
					if err != nil {
						golog.Fatalf("tail errored: %v", err)
					}
					digest.WriteString(strconv.Itoa(v))
				})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				if err := src.SetFunc(func(prev int) int { return prev + 1 }); err != nil {
					return err
				}
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, d),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
					fmt.Sprintf("%016x", digest.Sum64()),
				},
			})
		}
	}

	tbl.Render()
	return nil
}

func runLayers(ctx context.Context, cmd *cli.Command) error {
	var (
		width    = int(cmd.Uint(widthKey))
		layers   = int(cmd.Uint(layersKey))
		nSources = int(cmd.Uint(nSourcesKey))
		iters    = int(cmd.Uint(itersKey))
	)
	golog.Infof("layers: %dx%d graph, fan-in %d, %s iterations",
		width, layers, nSources, humanize.Comma(int64(iters)))

	g := cellwire.New()
	rng := rand.New(rand.NewSource(42))
	computeCount := 0

	sources := make([]*cellwire.Source[int], width)
	prevLayer := make([]cellwire.Node, width)
	for i := range sources {
		sources[i] = cellwire.NewSource(g, i)
		prevLayer[i] = sources[i]
	}

	for l := 0; l < layers; l++ {
		layer := make([]cellwire.Node, width)
		for i := 0; i < width; i++ {
			deps := cellwire.Deps{}
			names := make([]string, 0, nSources)
			for k := 0; k < nSources; k++ {
				name := "in" + strconv.Itoa(k)
				deps[name] = prevLayer[rng.Intn(width)]
				names = append(names, name)
			}
			layer[i] = cellwire.NewDerived(g, deps, func(ctx *cellwire.Ctx) (int, error) {
				computeCount++
				sum := 0
				for _, name := range names {
					v, err := cellwire.Dep[int](ctx, name)
					if err != nil {
						return 0, err
					}
					sum += v
				}
				return sum, nil
			})
		}
		prevLayer = layer
	}

	last := make([]*cellwire.Derived[int], width)
	for i, n := range prevLayer {
		last[i] = n.(*cellwire.Derived[int])
	}

	start := time.Now()
	sum := 0
	for i := 0; i < iters; i++ {
		if err := sources[i%width].Set(i); err != nil {
			return err
		}
		v, err := last[i%width].Get()
		if err != nil {
			return err
		}
		sum += v
	}
	elapsed := time.Since(start)
	updateRate := float64(computeCount) / (float64(elapsed) / float64(time.Millisecond))

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{"size", "fan-in", "iters", "time", "recomputes", "recomputes/ms", "sum"})
	tbl.Append([]string{
		fmt.Sprintf("%dx%d", width, layers),
		strconv.Itoa(nSources),
		humanize.Comma(int64(iters)),
		elapsed.String(),
		humanize.Comma(int64(computeCount)),
		humanize.Comma(int64(updateRate)),
		humanize.Comma(int64(sum)),
	})
	tbl.Render()
	return nil
}
