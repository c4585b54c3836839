package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ramferan/GridCal/pkg/compile"
	"github.com/ramferan/GridCal/pkg/grid"
	"github.com/ramferan/GridCal/pkg/linear"
	"github.com/ramferan/GridCal/pkg/netlist"
	"github.com/ramferan/GridCal/pkg/ntc"
	"github.com/ramferan/GridCal/pkg/plog"
	"github.com/ramferan/GridCal/pkg/util"
)

func printCircuit(nc *compile.NumCircuit) {
	fmt.Printf("\nCompiled circuit: %d buses, %d branches\n", nc.Nbus(), nc.Nbr())
	fmt.Println("Bus            Type   Vguess")
	fmt.Println("----------------------------")
	for i, name := range nc.Bus.Names {
		fmt.Printf("%-14s %-6s %s\n", name, nc.Bus.Types[i], util.FormatPerUnit(real(nc.Bus.Vbus[i])))
	}
}

func printFlows(an *linear.Analysis) {
	nc := an.Circuit
	flows := an.GetFlows(0)
	rates := nc.Branch.RatesAt(0)

	fmt.Println("\nLinear branch flows:")
	fmt.Println("Branch         Flow           Rate           Loading")
	fmt.Println("----------------------------------------------------")
	for m, name := range nc.Branch.Names {
		fmt.Printf("%-14s %-14s %-14s %s\n", name,
			util.FormatPower(flows[m]), util.FormatPower(rates[m]),
			util.FormatLoading(flows[m], rates[m]))
	}
}

func printSensitivities(an *linear.Analysis) {
	nc := an.Circuit
	fmt.Println("\nPTDF (branch x bus):")
	for m, name := range nc.Branch.Names {
		fmt.Printf("%-14s", name)
		for j := 0; j < nc.Nbus(); j++ {
			fmt.Printf(" %8.4f", an.PTDF.At(m, j))
		}
		fmt.Println()
	}
	fmt.Println("\nLODF (branch x outage):")
	for m, name := range nc.Branch.Names {
		fmt.Printf("%-14s", name)
		for c := 0; c < nc.Nbr(); c++ {
			fmt.Printf(" %8.4f", an.LODF.At(m, c))
		}
		fmt.Println()
	}
}

func printAtc(drv *ntc.Driver) {
	fmt.Printf("\nNet transfer capacity: %s\n", util.FormatPower(drv.Ntc()))
	rows := drv.Report()
	if len(rows) == 0 {
		fmt.Println("No limiting branches.")
		return
	}
	fmt.Println("Branch         ATC            N-case ATC     Limiting contingency")
	fmt.Println("----------------------------------------------------------------")
	for _, r := range rows {
		contingency := "-"
		if r.WorstContingency != "" {
			contingency = fmt.Sprintf("%s (%s)", r.WorstContingency, util.FormatPower(r.ContingencyFlow))
		}
		fmt.Printf("%-14s %-14s %-14s %s\n", r.Branch,
			util.FormatPower(r.Atc), util.FormatPower(r.AtcN), contingency)
	}
}

// demoGrid is the fallback network when no input file is given: two areas
// joined by tie lines, enough to exercise the exchange study.
func demoGrid() *grid.Grid {
	g := grid.New("demo")

	b1 := g.AddBus(grid.NewBus("bus1"))
	b1.IsSlack = true
	b1.Area = 1
	b2 := g.AddBus(grid.NewBus("bus2"))
	b2.Area = 1
	b3 := g.AddBus(grid.NewBus("bus3"))
	b3.Area = 2
	b4 := g.AddBus(grid.NewBus("bus4"))
	b4.Area = 2

	g.AddGenerator(grid.NewGenerator("gen1", b1, 80, 1.0))
	g.AddGenerator(grid.NewGenerator("gen2", b2, 60, 1.0))
	g.AddLoad(grid.NewLoad("load3", b3, 70, 20))
	g.AddLoad(grid.NewLoad("load4", b4, 60, 15))

	g.AddLine(grid.NewLine("line12", b1, b2, 0.01, 0.05, 0.0, 120))
	g.AddLine(grid.NewLine("line13", b1, b3, 0.02, 0.10, 0.0, 100))
	g.AddLine(grid.NewLine("line24", b2, b4, 0.02, 0.10, 0.0, 100))
	g.AddLine(grid.NewLine("line34", b3, b4, 0.01, 0.05, 0.0, 80))
	return g
}

func main() {
	var (
		inputFile       = flag.String("f", "", "network description file")
		distributeSlack = flag.Bool("distributed", false, "distribute the slack over all buses")
		useAC           = flag.Bool("ac", false, "linearize around the AC jacobian")
		areaFrom        = flag.Int("from", 1, "sending area for the transfer study")
		areaTo          = flag.Int("to", 2, "receiving area for the transfer study")
		showLog         = flag.Bool("v", false, "print the compilation log")
	)
	flag.Parse()

	var (
		g   *grid.Grid
		err error
	)
	if *inputFile != "" {
		g, err = netlist.ParseFile(*inputFile)
		if err != nil {
			log.Fatalf("parsing %s: %v", *inputFile, err)
		}
	} else {
		g = demoGrid()
	}

	logger := plog.New()
	nc, err := compile.Compile(g, compile.Options{}, logger)
	if err != nil {
		log.Fatalf("compiling: %v", err)
	}
	printCircuit(nc)

	an := linear.NewAnalysis(nc, linear.Options{
		DistributeSlack: *distributeSlack,
		CorrectValues:   true,
		UseAC:           *useAC,
	}, logger)
	if err := an.Run(); err != nil {
		log.Fatalf("linear analysis: %v", err)
	}
	printSensitivities(an)
	printFlows(an)

	drv := ntc.NewDriver(nc, ntc.Options{
		AreaFrom:        *areaFrom,
		AreaTo:          *areaTo,
		DistributeSlack: *distributeSlack,
		CorrectValues:   true,
	}, logger)
	if err := drv.Run(); err != nil {
		log.Fatalf("transfer capacity: %v", err)
	}
	printAtc(drv)

	if *showLog && logger.Len() > 0 {
		fmt.Println("\nLog:")
		fmt.Print(logger.String())
	}
	if logger.HasErrors() {
		os.Exit(1)
	}
}
