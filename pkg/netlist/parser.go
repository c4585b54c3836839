// Package netlist parses the line-oriented textual description of a network
// into the device registry. One device per line, keyword parameters, SI unit
// suffixes on values.
package netlist

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ramferan/GridCal/pkg/grid"
)

var unitMap = map[string]float64{
	"T":   1e12,
	"G":   1e9,
	"meg": 1e6,
	"M":   1e6,
	"K":   1e3,
	"k":   1e3,
	"m":   1e-3,
	"u":   1e-6,
}

// parseValue reads a number with an optional unit suffix ("50", "1.5k",
// "2meg").
func parseValue(s string) (float64, error) {
	for suffix, factor := range unitMap {
		if strings.HasSuffix(s, suffix) {
			base := strings.TrimSuffix(s, suffix)
			v, err := strconv.ParseFloat(base, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid value %q", s)
			}
			return v * factor, nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return v, nil
}

// params holds the key=value tail of a device line.
type params map[string]string

func (p params) float(key string, def float64) (float64, error) {
	s, ok := p[key]
	if !ok {
		return def, nil
	}
	return parseValue(s)
}

func (p params) bool(key string, def bool) bool {
	s, ok := p[key]
	if !ok {
		return def
	}
	return s == "1" || strings.EqualFold(s, "true") || strings.EqualFold(s, "yes")
}

type parser struct {
	g     *grid.Grid
	buses map[string]*grid.Bus
	line  int
}

func (p *parser) errf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", p.line, fmt.Sprintf(format, args...))
}

func (p *parser) bus(name string) (*grid.Bus, error) {
	b, ok := p.buses[name]
	if !ok {
		return nil, p.errf("unknown bus %q", name)
	}
	return b, nil
}

// splitLine separates the positional head tokens from the key=value tail.
func splitLine(fields []string) (head []string, kv params) {
	kv = params{}
	for _, f := range fields {
		if i := strings.IndexByte(f, '='); i > 0 {
			kv[strings.ToLower(f[:i])] = f[i+1:]
		} else {
			head = append(head, f)
		}
	}
	return head, kv
}

// Parse reads a network description. Lines starting with '*' or '#' are
// comments; the first token of a device line selects the class.
func Parse(input string) (*grid.Grid, error) {
	p := &parser{g: grid.New("netlist"), buses: map[string]*grid.Bus{}}

	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		p.line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "*") || strings.HasPrefix(text, "#") {
			continue
		}
		if err := p.device(text); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p.g, nil
}

// ParseFile is Parse over the contents of path.
func ParseFile(path string) (*grid.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

func (p *parser) device(text string) error {
	head, kv := splitLine(strings.Fields(text))
	if len(head) == 0 {
		return p.errf("missing device keyword")
	}
	kind := strings.ToLower(head[0])

	switch kind {
	case "title":
		p.g.Name = strings.TrimSpace(strings.TrimPrefix(text, head[0]))
		return nil
	case "sbase":
		if len(head) < 2 {
			return p.errf("sbase needs a value")
		}
		v, err := parseValue(head[1])
		if err != nil {
			return p.errf("%v", err)
		}
		p.g.Sbase = v
		return nil
	case "bus":
		return p.parseBus(head, kv)
	case "load":
		return p.parseLoad(head, kv)
	case "gen":
		return p.parseGen(head, kv)
	case "shunt":
		return p.parseShunt(head, kv)
	case "line":
		return p.parseLine(head, kv)
	case "dcline":
		return p.parseDcLine(head, kv)
	case "trafo":
		return p.parseTrafo(head, kv)
	case "hvdc":
		return p.parseHvdc(head, kv)
	}
	return p.errf("unknown device keyword %q", head[0])
}

func (p *parser) parseBus(head []string, kv params) error {
	if len(head) < 2 {
		return p.errf("bus needs a name")
	}
	name := head[1]
	if _, dup := p.buses[name]; dup {
		return p.errf("duplicate bus %q", name)
	}
	vnom, err := kv.float("vnom", 10.0)
	if err != nil {
		return p.errf("%v", err)
	}
	b := grid.NewBus(name)
	b.Vnom = vnom
	b.IsSlack = kv.bool("slack", false)
	if area, err2 := kv.float("area", 0); err2 == nil {
		b.Area = int(area)
	}
	p.g.AddBus(b)
	p.buses[name] = b
	return nil
}

func (p *parser) parseLoad(head []string, kv params) error {
	if len(head) < 3 {
		return p.errf("load needs a name and a bus")
	}
	b, err := p.bus(head[2])
	if err != nil {
		return err
	}
	pw, err := kv.float("p", 0)
	if err != nil {
		return p.errf("%v", err)
	}
	q, err := kv.float("q", 0)
	if err != nil {
		return p.errf("%v", err)
	}
	p.g.AddLoad(grid.NewLoad(head[1], b, pw, q))
	return nil
}

func (p *parser) parseGen(head []string, kv params) error {
	if len(head) < 3 {
		return p.errf("gen needs a name and a bus")
	}
	b, err := p.bus(head[2])
	if err != nil {
		return err
	}
	pw, err := kv.float("p", 0)
	if err != nil {
		return p.errf("%v", err)
	}
	vset, err := kv.float("vset", 1.0)
	if err != nil {
		return p.errf("%v", err)
	}
	g := grid.NewGenerator(head[1], b, pw, vset)
	if q, err2 := kv.float("qmin", g.Qmin); err2 == nil {
		g.Qmin = q
	}
	if q, err2 := kv.float("qmax", g.Qmax); err2 == nil {
		g.Qmax = q
	}
	p.g.AddGenerator(g)
	return nil
}

func (p *parser) parseShunt(head []string, kv params) error {
	if len(head) < 3 {
		return p.errf("shunt needs a name and a bus")
	}
	bus, err := p.bus(head[2])
	if err != nil {
		return err
	}
	g, err := kv.float("g", 0)
	if err != nil {
		return p.errf("%v", err)
	}
	b, err := kv.float("b", 0)
	if err != nil {
		return p.errf("%v", err)
	}
	p.g.AddShunt(grid.NewShunt(head[1], bus, g, b))
	return nil
}

func (p *parser) branchEnds(head []string) (*grid.Bus, *grid.Bus, error) {
	if len(head) < 4 {
		return nil, nil, p.errf("%s needs a name and two buses", head[0])
	}
	f, err := p.bus(head[2])
	if err != nil {
		return nil, nil, err
	}
	t, err := p.bus(head[3])
	if err != nil {
		return nil, nil, err
	}
	return f, t, nil
}

func (p *parser) parseLine(head []string, kv params) error {
	f, t, err := p.branchEnds(head)
	if err != nil {
		return err
	}
	r, err := kv.float("r", 0)
	if err != nil {
		return p.errf("%v", err)
	}
	x, err := kv.float("x", 1e-20)
	if err != nil {
		return p.errf("%v", err)
	}
	b, err := kv.float("b", 0)
	if err != nil {
		return p.errf("%v", err)
	}
	rate, err := kv.float("rate", 0)
	if err != nil {
		return p.errf("%v", err)
	}
	ln := grid.NewLine(head[1], f, t, r, x, b, rate)
	if cf, err2 := kv.float("cf", ln.ContingencyFactor); err2 == nil {
		ln.ContingencyFactor = cf
	}
	ln.MonitorLoading = kv.bool("monitor", true)
	ln.ContingencyEnabled = kv.bool("contingency", true)
	p.g.AddLine(ln)
	return nil
}

func (p *parser) parseDcLine(head []string, kv params) error {
	f, t, err := p.branchEnds(head)
	if err != nil {
		return err
	}
	r, err := kv.float("r", 1e-20)
	if err != nil {
		return p.errf("%v", err)
	}
	rate, err := kv.float("rate", 0)
	if err != nil {
		return p.errf("%v", err)
	}
	p.g.AddDcLine(grid.NewDcLine(head[1], f, t, r, rate))
	return nil
}

func (p *parser) parseTrafo(head []string, kv params) error {
	f, t, err := p.branchEnds(head)
	if err != nil {
		return err
	}
	r, err := kv.float("r", 0)
	if err != nil {
		return p.errf("%v", err)
	}
	x, err := kv.float("x", 1e-20)
	if err != nil {
		return p.errf("%v", err)
	}
	rate, err := kv.float("rate", 0)
	if err != nil {
		return p.errf("%v", err)
	}
	tr := grid.NewTransformer2W(head[1], f, t, r, x, rate)
	if tap, err2 := kv.float("tap", 1.0); err2 == nil {
		tr.TapModule = tap
	}
	if ang, err2 := kv.float("angle", 0); err2 == nil {
		tr.TapAngle = ang
	}
	p.g.AddTransformer(tr)
	return nil
}

func (p *parser) parseHvdc(head []string, kv params) error {
	f, t, err := p.branchEnds(head)
	if err != nil {
		return err
	}
	pset, err := kv.float("pset", 0)
	if err != nil {
		return p.errf("%v", err)
	}
	rate, err := kv.float("rate", 0)
	if err != nil {
		return p.errf("%v", err)
	}
	p.g.AddHvdcLine(grid.NewHvdcLine(head[1], f, t, pset, rate))
	return nil
}
