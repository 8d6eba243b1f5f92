package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/optimize"

	"github.com/joepstevens0/inf-masterproef/config"
	"github.com/joepstevens0/inf-masterproef/logger"
)

// EvalRecord is one row of the evaluation log.
type EvalRecord struct {
	Eval        int     `csv:"eval"`
	Fitness     float64 `csv:"fitness"`
	Lambda      float64 `csv:"lambda"`
	Alpha       float64 `csv:"alpha"`
	AuxShootReq float64 `csv:"aux_shoot_req"`
	Metamers    float64 `csv:"metamers"`
	Height      float64 `csv:"height"`
	Spread      float64 `csv:"spread"`
}

func newEvalRecord(eval int, values []float64, r EvalResult) EvalRecord {
	return EvalRecord{
		Eval:        eval,
		Fitness:     r.Fitness,
		Lambda:      values[0],
		Alpha:       values[1],
		AuxShootReq: values[2],
		Metamers:    r.Metamers,
		Height:      r.Height,
		Spread:      r.Spread,
	}
}

// evalLog appends records to a CSV file, writing the header once.
type evalLog struct {
	f       *os.File
	started bool
}

func createEvalLog(path string) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return &evalLog{f: f}, nil
}

func (l *evalLog) write(r EvalRecord) error {
	rows := []EvalRecord{r}
	if !l.started {
		l.started = true
		return gocsv.Marshal(&rows, l.f)
	}
	return gocsv.MarshalWithoutHeaders(&rows, l.f)
}

func (l *evalLog) Close() error { return l.f.Close() }

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// defaultPopulation is the usual CMA-ES population size 4 + floor(3 ln n).
func defaultPopulation(dim int) int {
	return 4 + int(3*math.Log(float64(dim)))
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	iterations := flag.Int("iterations", 0, "Growth iterations per run (0 = use config)")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	logger.Init(*logLevel, "")
	defer logger.Sync()

	if *outputDir == "" {
		logger.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Fatal("failed to create output directory", zap.Error(err))
	}

	// Load base config
	if err := config.Init(*configPath); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	baseCfg := config.Cfg()
	if *iterations > 0 {
		baseCfg.Run.Iterations = *iterations
	}

	params := NewParamVector()

	evalSeeds := make([]uint64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = baseCfg.Seed + uint64(i)*1000
	}

	evaluator := NewFitnessEvaluator(params, baseCfg.Run.Iterations, evalSeeds, baseCfg)

	evals, err := createEvalLog(filepath.Join(*outputDir, "evaluations.csv"))
	if err != nil {
		logger.Fatal("failed to create evaluation log", zap.Error(err))
	}
	defer evals.Close()

	dim := params.Dim()
	popSize := *population
	if popSize == 0 {
		popSize = defaultPopulation(dim)
	}

	evalCount := 0
	bestFitness := math.Inf(1)
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			// CMA-ES searches the unit cube; the evaluator sees clamped raw values
			values := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(values)
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = values
			}

			r := evaluator.LastResult()
			if err := evals.write(newEvalRecord(evalCount, values, r)); err != nil {
				logger.Error("failed to write evaluation", zap.Error(err))
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(*maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			logger.Info("evaluation",
				zap.Int("eval", evalCount),
				zap.Int("max_evals", *maxEvals),
				zap.Float64s("params", values),
				zap.Float64("metamers", r.Metamers),
				zap.Float64("fitness", fitness),
				zap.Float64("best", bestFitness),
				zap.String("elapsed", formatDuration(elapsed)),
				zap.String("eta", formatDuration(remaining)),
			)
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Seeds already run in parallel
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	logger.Info("starting CMA-ES optimization",
		zap.Int("params", dim),
		zap.Int("population", popSize),
		zap.Int("max_evals", *maxEvals),
		zap.Int("seeds", *seeds),
		zap.Int("iterations", baseCfg.Run.Iterations),
	)

	initX := params.Normalize(params.ExtractFromConfig(baseCfg))
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		logger.Warn("optimization ended", zap.Error(err))
	}

	// The best evaluation may precede the final iterate
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		logger.Fatal("no evaluation completed")
	}

	logger.Info("optimization complete",
		zap.Int("evaluations", evalCount),
		zap.String("duration", formatDuration(time.Since(startTime))),
		zap.Float64("best_fitness", bestFitness),
	)
	for i, spec := range params.Specs {
		logger.Info("best parameter", zap.String("name", spec.Path), zap.Float64("value", bestParams[i]))
	}

	bestCfg := *baseCfg
	params.ApplyToConfig(&bestCfg, bestParams)
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		logger.Error("failed to write best config", zap.Error(err))
		return
	}
	logger.Info("best config saved", zap.String("path", configOutPath))
}
