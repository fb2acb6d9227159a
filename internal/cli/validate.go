package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/spf13/cobra"

	"3tcapital/ms_ecf_core/internal/application/health"
	coreecf "3tcapital/ms_ecf_core/internal/core/ecf"
	"3tcapital/ms_ecf_core/internal/infrastructure/bootstrap"
)

func newValidateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate ARCHIVO...",
		Short: "Valida documentos XML e-CF",
		Long: `validate revisa cada XML con el validador elegido en --validation-mode.
Con xmllint, el esquema se elige a partir del TipoeCF del documento.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.logger(cmd)
			validator, _, err := bootstrap.NewValidator(opts.validationSettings(), log)
			if err != nil {
				return err
			}
			if validator == nil {
				return errors.New("--validation-mode none no valida documentos")
			}

			ctx := cmd.Context()
			if checker, ok := validator.(health.Checker); ok {
				if err := checker.Check(ctx); err != nil {
					return fmt.Errorf("%s no disponible: %w", checker.Name(), err)
				}
			}

			out := cmd.OutOrStdout()
			invalid := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("leer %s: %w", path, err)
				}

				result, err := validator.Validate(ctx, data, schemaFor(data))
				if err != nil {
					return fmt.Errorf("validar %s: %w", path, err)
				}
				if result.Valid {
					fmt.Fprintf(out, "OK       %s\n", path)
					continue
				}
				invalid++
				fmt.Fprintf(out, "INVÁLIDO %s\n", path)
				printDiagnostics(out, result.Messages())
			}

			if invalid > 0 {
				return fmt.Errorf("%d de %d documentos inválidos", invalid, len(args))
			}
			return nil
		},
	}
}

// schemaFor picks the schema from the document's TipoeCF. It returns "" when
// the document cannot be read or carries no usable type code.
func schemaFor(data []byte) string {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return ""
	}
	el := doc.FindElement("./ECF/Encabezado/IdDoc/TipoeCF")
	if el == nil {
		return ""
	}
	code, err := strconv.Atoi(strings.TrimSpace(el.Text()))
	if err != nil || code <= 0 {
		return ""
	}
	return coreecf.SchemaName(code)
}
