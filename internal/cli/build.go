package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	appecf "3tcapital/ms_ecf_core/internal/application/ecf"
	coreecf "3tcapital/ms_ecf_core/internal/core/ecf"
)

// buildJob is one record read from an input file. Files holding a JSON list
// produce one job per element.
type buildJob struct {
	source string
	index  int
	count  int
	req    coreecf.Request
}

func (j buildJob) label() string {
	if j.count > 1 {
		return fmt.Sprintf("%s[%d]", j.source, j.index)
	}
	return j.source
}

type buildOutcome struct {
	path   string
	result *appecf.Result
	err    error
}

func newBuildCommand(opts *rootOptions) *cobra.Command {
	var (
		outDir   string
		validate bool
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "build ARCHIVO...",
		Short: "Genera documentos e-CF desde archivos JSON o YAML",
		Long: `build genera un XML e-CF por cada registro de entrada. Los archivos
.yaml y .yml se leen como YAML; el resto como JSON, que puede contener un
objeto o una lista de objetos. Sin --out se admite un único documento, que se
escribe en la salida estándar.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers <= 0 {
				return errors.New("--workers debe ser mayor que 0")
			}

			jobs, err := loadJobs(args)
			if err != nil {
				return err
			}
			if outDir == "" && len(jobs) > 1 {
				return errors.New("--out es obligatorio para más de un documento")
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("crear directorio de salida: %w", err)
				}
			}

			log := opts.logger(cmd)
			svc, err := opts.service(log, workers, validate)
			if err != nil {
				return err
			}
			if validate && !svc.ValidationEnabled() {
				return errors.New("--validate requiere un modo de validación distinto de none")
			}

			outcomes := make([]buildOutcome, len(jobs))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(workers)
			for i, job := range jobs {
				g.Go(func() error {
					result, err := svc.Generate(ctx, appecf.GenerateInput{Request: job.req, Validate: validate})
					outcomes[i] = buildOutcome{result: result, err: err}
					if err != nil || result.Invalid() || outDir == "" {
						return nil
					}

					path := filepath.Join(outDir, outputName(job, result.Document))
					if err := os.WriteFile(path, result.Document.XML, 0o644); err != nil {
						outcomes[i].err = fmt.Errorf("escribir %s: %w", path, err)
						return nil
					}
					outcomes[i].path = path
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if outDir == "" {
				return writeSingle(cmd, jobs[0], outcomes[0])
			}
			return report(cmd.OutOrStdout(), jobs, outcomes)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directorio donde escribir los XML generados")
	cmd.Flags().BoolVar(&validate, "validate", false, "Validar cada documento con el validador configurado")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Documentos generados en paralelo")
	return cmd
}

func loadJobs(paths []string) ([]buildJob, error) {
	var jobs []buildJob
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("leer %s: %w", path, err)
		}

		reqs, err := decodeFile(path, data)
		if err != nil {
			return nil, fmt.Errorf("decodificar %s: %w", path, err)
		}
		for i, req := range reqs {
			jobs = append(jobs, buildJob{source: path, index: i, count: len(reqs), req: req})
		}
	}
	return jobs, nil
}

func decodeFile(path string, data []byte) ([]coreecf.Request, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		req, err := coreecf.DecodeYAML(data)
		if err != nil {
			return nil, err
		}
		return []coreecf.Request{req}, nil
	}

	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		reqs, err := coreecf.DecodeJSONList(data)
		if err != nil {
			return nil, err
		}
		if len(reqs) == 0 {
			return nil, errors.New("la lista no contiene documentos")
		}
		return reqs, nil
	}

	req, err := coreecf.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return []coreecf.Request{req}, nil
}

// outputName names the file after the eNCF, falling back to the input file name.
func outputName(job buildJob, doc *coreecf.Document) string {
	if name := filepath.Base(strings.TrimSpace(doc.ENCF)); name != "" && name != "." && name != string(filepath.Separator) {
		return name + ".xml"
	}
	base := strings.TrimSuffix(filepath.Base(job.source), filepath.Ext(job.source))
	if job.count > 1 {
		return fmt.Sprintf("%s-%d.xml", base, job.index+1)
	}
	return base + ".xml"
}

func writeSingle(cmd *cobra.Command, job buildJob, outcome buildOutcome) error {
	if outcome.err != nil {
		return fmt.Errorf("%s: %w", job.label(), outcome.err)
	}
	if outcome.result.Invalid() {
		printDiagnostics(cmd.ErrOrStderr(), outcome.result.Validation.Messages())
		return fmt.Errorf("%s: documento inválido", job.label())
	}
	_, err := cmd.OutOrStdout().Write(outcome.result.Document.XML)
	return err
}

func report(w io.Writer, jobs []buildJob, outcomes []buildOutcome) error {
	failed := 0
	for i, outcome := range outcomes {
		label := jobs[i].label()
		switch {
		case outcome.err != nil:
			failed++
			fmt.Fprintf(w, "ERROR    %s: %v\n", label, outcome.err)
		case outcome.result.Invalid():
			failed++
			fmt.Fprintf(w, "INVÁLIDO %s\n", label)
			printDiagnostics(w, outcome.result.Validation.Messages())
		default:
			fmt.Fprintf(w, "OK       %s -> %s\n", label, outcome.path)
		}
	}

	fmt.Fprintf(w, "%d documentos, %d generados, %d con errores\n", len(outcomes), len(outcomes)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d de %d documentos fallaron", failed, len(outcomes))
	}
	return nil
}

func printDiagnostics(w io.Writer, messages []string) {
	for _, msg := range messages {
		fmt.Fprintf(w, "         %s\n", msg)
	}
}
