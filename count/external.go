package count

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// The external counters live in docker images that carry a run_solver.py
// accepting {"problems": [...]} on stdin and answering {"results": [...]},
// one raw solver transcript per problem. Shipping a whole batch through
// one container amortizes the image start-up cost.

const defaultRunTimeout = 30 * time.Second

type solverRequest struct {
	Problems []string `json:"problems"`
}

type solverResponse struct {
	Results []string `json:"results"`
}

func runSolverImage(image string, timeout time.Duration, problems []string) ([]string, error) {
	payload, err := json.Marshal(solverRequest{Problems: problems})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "docker", "run", "-i", "--rm", image, "python", "run_solver.py")
	cmd.Stdin = bytes.NewReader(payload)
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	var resp solverResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func imageAvailable(image string) bool {
	return exec.Command("docker", "image", "inspect", image).Run() == nil
}

// lineValue extracts the last whitespace-separated field of the first line
// starting with prefix.
func lineValue(out, prefix string) (float64, bool) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// DPMC runs the DPMC counter from its docker image. DPMC reads literal
// weights directly, so no normalization is needed.
type DPMC struct {
	Image   string
	Timeout time.Duration
}

func NewDPMC() *DPMC {
	return &DPMC{Image: "dpmc:latest", Timeout: defaultRunTimeout}
}

func (d *DPMC) ModelCount(p Problem) Result {
	return d.BatchModelCount(p)[0]
}

func (d *DPMC) BatchModelCount(problems ...Problem) []Result {
	strs := make([]string, len(problems))
	for i, p := range problems {
		s, err := FormatDPMC(p)
		if err != nil {
			return failAll(len(problems))
		}
		strs[i] = s
	}
	raw, err := runSolverImage(d.Image, d.Timeout, strs)
	if err != nil || len(raw) != len(problems) {
		return failAll(len(problems))
	}
	results := make([]Result, len(problems))
	for i, out := range raw {
		results[i] = parseDPMCOutput(out)
	}
	return results
}

func (d *DPMC) Available() bool {
	return imageAvailable(d.Image)
}

func parseDPMCOutput(out string) Result {
	count, ok := lineValue(out, "c s exact double prec-sci")
	if !ok {
		return Result{}
	}
	res := Result{Success: true, Count: count}
	if secs, ok := lineValue(out, "c seconds"); ok {
		res.Runtime = seconds(secs)
	}
	return res
}

// Cachet runs the Cachet counter from its docker image. Cachet takes only
// positive literal weights summing to one with their complements, so each
// problem is normalized first and the reported probability is scaled back
// by the normalization factor.
type Cachet struct {
	Image   string
	Timeout time.Duration
}

func NewCachet() *Cachet {
	return &Cachet{Image: "cachet:latest", Timeout: defaultRunTimeout}
}

func (c *Cachet) ModelCount(p Problem) Result {
	return c.BatchModelCount(p)[0]
}

func (c *Cachet) BatchModelCount(problems ...Problem) []Result {
	normalized, factors, err := normalizeProblems(problems)
	if err != nil {
		return failAll(len(problems))
	}
	strs := make([]string, len(normalized))
	for i, p := range normalized {
		s, err := FormatCachet(p)
		if err != nil {
			return failAll(len(problems))
		}
		strs[i] = s
	}
	raw, err := runSolverImage(c.Image, c.Timeout, strs)
	if err != nil || len(raw) != len(problems) {
		return failAll(len(problems))
	}
	results := make([]Result, len(problems))
	for i, out := range raw {
		results[i] = parseCachetOutput(out, factors[i])
	}
	return results
}

func (c *Cachet) Available() bool {
	return imageAvailable(c.Image)
}

func parseCachetOutput(out string, factor float64) Result {
	prob, ok := lineValue(out, "Satisfying probability")
	if !ok {
		return Result{}
	}
	res := Result{Success: true, Count: prob * factor}
	if secs, ok := lineValue(out, "RUNTIME:"); ok {
		res.Runtime = seconds(secs)
	}
	return res
}

// TensorOrder runs the TensorOrder counter from its docker image. It
// shares Cachet's input dialect and normalization requirement.
type TensorOrder struct {
	Image   string
	Timeout time.Duration
}

func NewTensorOrder() *TensorOrder {
	return &TensorOrder{Image: "tensororder:latest", Timeout: defaultRunTimeout}
}

func (t *TensorOrder) ModelCount(p Problem) Result {
	return t.BatchModelCount(p)[0]
}

func (t *TensorOrder) BatchModelCount(problems ...Problem) []Result {
	normalized, factors, err := normalizeProblems(problems)
	if err != nil {
		return failAll(len(problems))
	}
	strs := make([]string, len(normalized))
	for i, p := range normalized {
		s, err := FormatCachet(p)
		if err != nil {
			return failAll(len(problems))
		}
		strs[i] = s
	}
	raw, err := runSolverImage(t.Image, t.Timeout, strs)
	if err != nil || len(raw) != len(problems) {
		return failAll(len(problems))
	}
	results := make([]Result, len(problems))
	for i, out := range raw {
		results[i] = parseTensorOrderOutput(out, factors[i])
	}
	return results
}

func (t *TensorOrder) Available() bool {
	return imageAvailable(t.Image)
}

func parseTensorOrderOutput(out string, factor float64) Result {
	count, ok := lineValue(out, "Count:")
	if !ok {
		return Result{}
	}
	res := Result{Success: true, Count: count * factor}
	if secs, ok := lineValue(out, "Total Time:"); ok {
		res.Runtime = seconds(secs)
	}
	return res
}

// normalizeProblems rewrites each problem over a normalized copy of its
// weight function, returning the factors that scale the normalized counts
// back up.
func normalizeProblems(problems []Problem) ([]Problem, []float64, error) {
	out := make([]Problem, len(problems))
	factors := make([]float64, len(problems))
	for i, p := range problems {
		w := p.Weights.Copy()
		factor, err := w.Normalize()
		if err != nil {
			return nil, nil, err
		}
		out[i] = Problem{Formula: p.Formula, Weights: w}
		factors[i] = factor
	}
	return out, factors, nil
}
