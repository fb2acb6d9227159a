// Package cli implements the ecfctl command line tool.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	appecf "3tcapital/ms_ecf_core/internal/application/ecf"
	"3tcapital/ms_ecf_core/internal/infrastructure/bootstrap"
	"3tcapital/ms_ecf_core/internal/infrastructure/config"
	"3tcapital/ms_ecf_core/internal/infrastructure/logger"
)

// Version is set at build time with -ldflags "-X 3tcapital/ms_ecf_core/internal/cli.Version=...".
var Version = "dev"

type rootOptions struct {
	policy         string
	timeZone       string
	logLevel       string
	validationMode string
	schemaDir      string
	xmllintPath    string
}

// NewRootCommand returns the ecfctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ecfctl",
		Short: "Herramienta de generación de comprobantes fiscales electrónicos (e-CF)",
		Long: `ecfctl genera y valida documentos XML e-CF sin firmar a partir de
registros JSON o YAML.

Ejemplos:
  ecfctl build factura.json --out salida/
  ecfctl build lote.json --out salida/ --validate --workers 8
  ecfctl validate --validation-mode xmllint --schema-dir schemas salida/*.xml
  ecfctl semilla`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.policy, "unknown-type-policy", "reject", "Tratamiento de TipoeCF sin variante: reject o base")
	flags.StringVar(&opts.timeZone, "timezone", "America/Santo_Domingo", "Zona horaria de FechaHoraFirma")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Nivel de log (debug, info, warn, error)")
	flags.StringVar(&opts.validationMode, "validation-mode", config.ValidationWellFormed, "Validador: none, wellformed o xmllint")
	flags.StringVar(&opts.schemaDir, "schema-dir", "schemas", "Directorio de esquemas XSD para xmllint")
	flags.StringVar(&opts.xmllintPath, "xmllint", "xmllint", "Ruta del ejecutable xmllint")

	cmd.AddCommand(
		newBuildCommand(opts),
		newValidateCommand(opts),
		newSeedCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logger.NewWithWriter(cmd.ErrOrStderr(), "ecfctl", o.logLevel, "local")
}

func (o *rootOptions) validationSettings() config.ValidationSettings {
	return config.ValidationSettings{
		Mode:        o.validationMode,
		SchemaDir:   o.schemaDir,
		XMLLintPath: o.xmllintPath,
	}
}

// service builds a generation service. The validator is attached only when
// withValidation is set.
func (o *rootOptions) service(log *slog.Logger, workers int, withValidation bool) (*appecf.Service, error) {
	generator, err := bootstrap.NewGenerator(config.ECFSettings{
		UnknownTypePolicy: o.policy,
		TimeZone:          o.timeZone,
	})
	if err != nil {
		return nil, err
	}

	svcOpts := []appecf.Option{appecf.WithWorkers(workers)}
	if withValidation {
		validator, name, err := bootstrap.NewValidator(o.validationSettings(), log)
		if err != nil {
			return nil, err
		}
		if validator != nil {
			svcOpts = append(svcOpts, appecf.WithValidator(name, validator))
		}
	}
	return appecf.NewService(generator, log, svcOpts...), nil
}
